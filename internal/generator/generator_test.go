package generator

import (
	"context"
	"go/parser"
	"go/token"
	"reflect"
	"strings"
	"testing"

	"github.com/chr1sbest/permauthz/internal/engine"
	"github.com/chr1sbest/permauthz/internal/model"
	"github.com/chr1sbest/permauthz/internal/policy"
)

func TestGenerate_ProducesValidSource(t *testing.T) {
	cfg := &model.Config{Global: "Z", Policies: map[model.RouteKey]model.RoutePolicy{
		{Method: "GET", Path: "/public"}:   {Public: true},
		{Method: "GET", Path: "/user"}:     {All: []string{"A"}},
		{Method: "DELETE", Path: "/admin"}: {All: []string{"A", "B"}, None: []string{"C"}},
		{Method: "POST", Path: "/scoped"}:  {Any: []string{}},
	}}

	got, err := Generate("httproutes", cfg)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	file, err := parser.ParseFile(token.NewFileSet(), "routes.go", got, 0)
	if err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, got)
	}
	if file.Name.Name != "httproutes" {
		t.Errorf("expected package httproutes, got %s", file.Name.Name)
	}

	src := string(got)
	for _, want := range []string{
		"// Code generated by permauthz. DO NOT EDIT.",
		`GlobalPermission = "Z"`,
		`{Method: "GET", Path: "/public"}:`,
		"{Public: true}",
		`{All: []string{"A", "B"}, None: []string{"C"}}`,
		`{Any: []string{}}`,
	} {
		if !strings.Contains(src, want) {
			t.Errorf("generated code missing %q.\nGot:\n%s", want, src)
		}
	}

	// Entries are sorted by path so output is stable across runs.
	if strings.Index(src, `"/admin"`) > strings.Index(src, `"/user"`) {
		t.Errorf("expected /admin before /user.\nGot:\n%s", src)
	}
}

func TestGenerate_Validates(t *testing.T) {
	if _, err := Generate("", &model.Config{}); err == nil {
		t.Errorf("expected error for empty package name")
	}
	if _, err := Generate("p", nil); err == nil {
		t.Errorf("expected error for nil config")
	}
}

func TestDecode_RoundTripsIntoEngine(t *testing.T) {
	cfg := &model.Config{Global: "Z", Policies: map[model.RouteKey]model.RoutePolicy{
		{Method: "GET", Path: "/public"}:   {Public: true},
		{Method: "DELETE", Path: "/admin"}: {All: []string{"A", "B"}, None: []string{"C"}},
		{Method: "POST", Path: "/scoped"}:  {Any: []string{}},
	}}

	src, err := Generate("httproutes", cfg)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	got, err := Decode(src)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("round trip mismatch.\nGot:  %+v\nWant: %+v", got, cfg)
	}

	table := policy.Compile(got)
	e, err := engine.New(func(perms []string) []string { return perms }, table.EngineOptions()...)
	if err != nil {
		t.Fatalf("engine.New error: %v", err)
	}

	admin, ok := table.Lookup(model.RouteKey{Method: "DELETE", Path: "/admin"})
	if !ok {
		t.Fatalf("missing DELETE /admin after decode")
	}
	for _, tc := range []struct {
		perms []string
		allow bool
	}{
		{[]string{"A", "B"}, true},
		{[]string{"A", "B", "C"}, false},
		{[]string{"A"}, false},
		{[]string{"Z", "C"}, true},
	} {
		d, err := e.Evaluate(context.Background(), tc.perms, admin.Requirement)
		if err != nil {
			t.Fatalf("Evaluate error: %v", err)
		}
		if d.Allowed != tc.allow {
			t.Errorf("perms %v: expected allowed=%v, got %v", tc.perms, tc.allow, d)
		}
	}
}

func TestDecode_RejectsForeignSource(t *testing.T) {
	if _, err := Decode([]byte("package x\n\nvar Other = 1\n")); err == nil {
		t.Errorf("expected error for source without RoutePermissions")
	}
	if _, err := Decode([]byte("not go")); err == nil {
		t.Errorf("expected parse error")
	}
}
