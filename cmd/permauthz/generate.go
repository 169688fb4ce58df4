package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/chr1sbest/permauthz/internal/generator"
	"github.com/chr1sbest/permauthz/internal/parser"
)

func generateCmd(args []string) error {
	flagSet := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	in := flagSet.String("in", "", "Path to policy YAML file")
	out := flagSet.String("out", "", "Path to output Go file")
	pkg := flagSet.String("pkg", "httproutes", "Package name for generated code")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if *in == "" || *out == "" {
		return errors.New("--in and --out are required")
	}

	cfg, err := parser.ParseConfig(*in)
	if err != nil {
		return fmt.Errorf("parse policy: %w", err)
	}

	code, err := generator.Generate(*pkg, cfg)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	if err := os.WriteFile(*out, code, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
