package parser

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/chr1sbest/permauthz/internal/model"
)

func TestParseConfig_Basic(t *testing.T) {
	path := filepath.Join("..", "..", "testdata", "policy.yaml")

	cfg, err := ParseConfig(path)
	if err != nil {
		t.Fatalf("ParseConfig error: %v", err)
	}

	if cfg.Global != "Z" {
		t.Errorf("expected global permission Z, got %q", cfg.Global)
	}

	policies := cfg.Policies

	// /health GET -> explicit empty block, public
	if p, ok := policies[model.RouteKey{Method: "GET", Path: "/health"}]; !ok {
		t.Fatalf("missing policy for GET /health")
	} else if !p.Public {
		t.Errorf("expected GET /health to be public, got %+v", p)
	}

	// /A GET -> no block, inherits root all [A]
	if p, ok := policies[model.RouteKey{Method: "GET", Path: "/A"}]; !ok {
		t.Fatalf("missing policy for GET /A")
	} else {
		if p.Public {
			t.Errorf("expected GET /A to be protected")
		}
		if !reflect.DeepEqual(p.All, []string{"A"}) {
			t.Errorf("expected all [A] for GET /A, got %+v", p.All)
		}
		if p.Any != nil || p.None != nil {
			t.Errorf("expected no any/none clauses for GET /A, got %+v", p)
		}
	}

	// /reports/{id} GET -> combined clauses
	if p, ok := policies[model.RouteKey{Method: "GET", Path: "/reports/{id}"}]; !ok {
		t.Fatalf("missing policy for GET /reports/{id}")
	} else {
		want := model.RoutePolicy{All: []string{"A"}, Any: []string{"B", "C"}, None: []string{"Z"}}
		if !reflect.DeepEqual(p, want) {
			t.Errorf("expected %+v for GET /reports/{id}, got %+v", want, p)
		}
	}

	// /reports/{id} DELETE -> operation-level block overrides root
	if p, ok := policies[model.RouteKey{Method: "DELETE", Path: "/reports/{id}"}]; !ok {
		t.Fatalf("missing policy for DELETE /reports/{id}")
	} else if !reflect.DeepEqual(p.All, []string{"A", "B"}) {
		t.Errorf("expected all [A B] for DELETE /reports/{id}, got %+v", p.All)
	}

	if len(policies) != 13 {
		t.Errorf("expected 13 operations, got %d", len(policies))
	}
}

func TestParse_EmptyAnyIsConfigured(t *testing.T) {
	cfg, err := Parse([]byte(`
paths:
  /nobody:
    get:
      x-permissions:
        any: []
`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	p := cfg.Policies[model.RouteKey{Method: "GET", Path: "/nobody"}]
	if p.Public {
		t.Fatalf("expected GET /nobody to be protected")
	}
	if p.Any == nil || len(p.Any) != 0 {
		t.Errorf("expected configured empty any clause, got %#v", p.Any)
	}
}

func TestParse_NoPermissionsIsPublic(t *testing.T) {
	cfg, err := Parse([]byte("paths:\n  /open:\n    get: {}\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Global != "" {
		t.Errorf("expected no global permission, got %q", cfg.Global)
	}
	if p := cfg.Policies[model.RouteKey{Method: "GET", Path: "/open"}]; !p.Public {
		t.Errorf("expected GET /open to be public, got %+v", p)
	}
}

func TestParseConfig_BlankPermission(t *testing.T) {
	path := filepath.Join("..", "..", "testdata", "blank.yaml")

	if _, err := ParseConfig(path); err == nil {
		t.Fatalf("expected error for blank permission")
	}
}

func TestParseConfig_MissingFile(t *testing.T) {
	_, err := ParseConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("paths: [")); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}
