package generator

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/chr1sbest/permauthz/internal/model"
)

// Decode reads source produced by Generate back into a Config. It only
// understands the literal forms Generate emits.
func Decode(src []byte) (*model.Config, error) {
	file, err := parser.ParseFile(token.NewFileSet(), "routes.go", src, 0)
	if err != nil {
		return nil, fmt.Errorf("parse generated code: %w", err)
	}

	cfg := &model.Config{Policies: make(map[model.RouteKey]model.RoutePolicy)}
	foundTable := false

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok || len(vs.Names) != 1 || len(vs.Values) != 1 {
				continue
			}
			switch vs.Names[0].Name {
			case "GlobalPermission":
				if cfg.Global, err = stringLit(vs.Values[0]); err != nil {
					return nil, fmt.Errorf("GlobalPermission: %w", err)
				}
			case "RoutePermissions":
				table, ok := vs.Values[0].(*ast.CompositeLit)
				if !ok {
					return nil, fmt.Errorf("RoutePermissions: expected composite literal")
				}
				if err := decodeTable(table, cfg.Policies); err != nil {
					return nil, fmt.Errorf("RoutePermissions: %w", err)
				}
				foundTable = true
			}
		}
	}

	if !foundTable {
		return nil, fmt.Errorf("no RoutePermissions table in generated code")
	}
	return cfg, nil
}

func decodeTable(table *ast.CompositeLit, out map[model.RouteKey]model.RoutePolicy) error {
	for _, elt := range table.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			return fmt.Errorf("expected key: value entry")
		}

		var key model.RouteKey
		err := eachField(kv.Key, func(name string, value ast.Expr) error {
			s, err := stringLit(value)
			if err != nil {
				return err
			}
			switch name {
			case "Method":
				key.Method = s
			case "Path":
				key.Path = s
			default:
				return fmt.Errorf("unknown key field %s", name)
			}
			return nil
		})
		if err != nil {
			return err
		}

		var p model.RoutePolicy
		err = eachField(kv.Value, func(name string, value ast.Expr) error {
			var err error
			switch name {
			case "Public":
				ident, ok := value.(*ast.Ident)
				if !ok {
					return fmt.Errorf("Public: expected bool")
				}
				p.Public = ident.Name == "true"
			case "All":
				p.All, err = stringSliceLit(value)
			case "Any":
				p.Any, err = stringSliceLit(value)
			case "None":
				p.None, err = stringSliceLit(value)
			default:
				return fmt.Errorf("unknown policy field %s", name)
			}
			return err
		})
		if err != nil {
			return fmt.Errorf("%s %s: %w", key.Method, key.Path, err)
		}
		out[key] = p
	}
	return nil
}

func eachField(expr ast.Expr, fn func(name string, value ast.Expr) error) error {
	lit, ok := expr.(*ast.CompositeLit)
	if !ok {
		return fmt.Errorf("expected composite literal")
	}
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			return fmt.Errorf("expected keyed field")
		}
		name, ok := kv.Key.(*ast.Ident)
		if !ok {
			return fmt.Errorf("expected field name")
		}
		if err := fn(name.Name, kv.Value); err != nil {
			return err
		}
	}
	return nil
}

func stringLit(expr ast.Expr) (string, error) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", fmt.Errorf("expected string literal")
	}
	return strconv.Unquote(lit.Value)
}

// stringSliceLit keeps an empty literal as a non-nil slice; an empty
// any-of clause is configured, not absent.
func stringSliceLit(expr ast.Expr) ([]string, error) {
	lit, ok := expr.(*ast.CompositeLit)
	if !ok {
		return nil, fmt.Errorf("expected []string literal")
	}
	out := make([]string, 0, len(lit.Elts))
	for _, elt := range lit.Elts {
		s, err := stringLit(elt)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
