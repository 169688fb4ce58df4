package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strconv"
	"strings"

	"github.com/chr1sbest/permauthz/internal/model"
)

// Generate renders cfg as a self-contained Go source file in package pkg.
// The file declares the global permission and a RoutePermissions table
// that applications can compile in instead of reading YAML at startup.
// The table is plain data with the same fields as model.RoutePolicy;
// Decode reads it back into a model.Config for policy.Compile.
func Generate(pkg string, cfg *model.Config) ([]byte, error) {
	if pkg == "" {
		return nil, fmt.Errorf("package name is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	keys := make([]model.RouteKey, 0, len(cfg.Policies))
	for k := range cfg.Policies {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Path != keys[j].Path {
			return keys[i].Path < keys[j].Path
		}
		return keys[i].Method < keys[j].Method
	})

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by permauthz. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkg)
	buf.WriteString(`// RouteKey identifies an operation by HTTP method and route pattern.
type RouteKey struct {
	Method string
	Path   string
}

// RoutePermission lists the permissions an operation requires. Nil
// clauses are not enforced.
type RoutePermission struct {
	Public bool
	All    []string
	Any    []string
	None   []string
}

`)
	fmt.Fprintf(&buf, "// GlobalPermission bypasses every requirement when held. Empty means none.\n")
	fmt.Fprintf(&buf, "const GlobalPermission = %s\n\n", strconv.Quote(cfg.Global))

	buf.WriteString("// RoutePermissions maps each operation to its requirement.\n")
	buf.WriteString("var RoutePermissions = map[RouteKey]RoutePermission{\n")
	for _, k := range keys {
		fmt.Fprintf(&buf, "\t{Method: %s, Path: %s}: {%s},\n",
			strconv.Quote(k.Method), strconv.Quote(k.Path), policyFields(cfg.Policies[k]))
	}
	buf.WriteString("}\n")

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return out, nil
}

func policyFields(p model.RoutePolicy) string {
	var fields []string
	if p.Public {
		fields = append(fields, "Public: true")
	}
	for _, clause := range []struct {
		name  string
		names []string
	}{{"All", p.All}, {"Any", p.Any}, {"None", p.None}} {
		if clause.names == nil {
			continue
		}
		fields = append(fields, clause.name+": "+stringSlice(clause.names))
	}
	return strings.Join(fields, ", ")
}

func stringSlice(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}
