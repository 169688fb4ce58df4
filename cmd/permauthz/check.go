package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/chr1sbest/permauthz/internal/engine"
	"github.com/chr1sbest/permauthz/internal/model"
	"github.com/chr1sbest/permauthz/internal/parser"
	"github.com/chr1sbest/permauthz/internal/policy"
)

// principal is the identity used by check; it only carries a name for
// deny reasons and the permissions given on the command line.
type principal struct {
	name  string
	perms []string
}

func (p principal) String() string { return p.name }

func checkCmd(args []string, out io.Writer) error {
	flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
	policyPath := flagSet.String("policy", "", "path to the policy document")
	method := flagSet.String("method", "GET", "HTTP method of the operation")
	path := flagSet.String("path", "", "route pattern as written in the policy document")
	name := flagSet.String("principal", "cli", "principal name used in deny reasons")
	perms := flagSet.StringArray("perm", nil, "permission held by the principal (repeatable)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if *policyPath == "" || *path == "" {
		return errors.New("--policy and --path are required")
	}

	cfg, err := parser.ParseConfig(*policyPath)
	if err != nil {
		return fmt.Errorf("parse policy: %w", err)
	}
	table := policy.Compile(cfg)

	key := model.RouteKey{Method: strings.ToUpper(*method), Path: *path}
	route, ok := table.Lookup(key)
	if !ok {
		return fmt.Errorf("no operation %s %s in %s", key.Method, key.Path, *policyPath)
	}
	if route.Public {
		fmt.Fprintln(out, "allow (public)")
		return nil
	}

	e, err := engine.New(func(p principal) []string { return p.perms }, table.EngineOptions()...)
	if err != nil {
		return err
	}

	decision, err := e.Evaluate(context.Background(), principal{name: *name, perms: *perms}, route.Requirement)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, decision)
	if !decision.Allowed {
		return errDenied
	}
	return nil
}
