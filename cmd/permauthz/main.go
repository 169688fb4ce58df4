package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// errDenied makes the check command exit non-zero without printing an
// error; the decision has already been written.
var errDenied = errors.New("denied")

const exitDenied = 2

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = serveCmd(os.Args[2:])
	case "check":
		err = checkCmd(os.Args[2:], os.Stdout)
	case "generate":
		err = generateCmd(os.Args[2:])
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if errors.Is(err, errDenied) {
		os.Exit(exitDenied)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `permauthz - route permission policies

Usage:
  permauthz serve    [--env-file .env] [--policy policy.yaml] [--addr :8080]
  permauthz check    --policy policy.yaml --method GET --path /reports/{id} [--perm A]...
  permauthz generate --in policy.yaml --out routes.go [--pkg httproutes]

serve runs a demo server. Its POST /token endpoint mints a session with
any permissions the caller asks for, without authentication. Do not
expose it outside local testing.
`)
}
