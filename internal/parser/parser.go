package parser

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chr1sbest/permauthz/internal/model"
)

// ParseConfig reads a YAML policy document and extracts the permission
// requirements of every operation into a Config. The document is shaped
// like an OpenAPI v3 paths section with x-permissions extensions; any
// other keys are ignored.
func ParseConfig(path string) (*model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return Parse(data)
}

// Parse is ParseConfig for an in-memory document.
func Parse(data []byte) (*model.Config, error) {
	var root policyRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("unmarshal policy: %w", err)
	}

	policies := make(map[model.RouteKey]model.RoutePolicy)

	for rawPath, item := range root.Paths {
		if item == nil {
			continue
		}

		for method, op := range item.Operations() {
			if op == nil {
				continue
			}

			key := model.RouteKey{Method: method, Path: rawPath}
			policy, err := derivePolicy(&root, op)
			if err != nil {
				return nil, fmt.Errorf("derive policy for %s %s: %w", method, rawPath, err)
			}
			policies[key] = policy
		}
	}

	return &model.Config{Global: strings.TrimSpace(root.Global), Policies: policies}, nil
}

// policyRoot is the subset of the document we read: the global
// permission, default permissions and per-path operations.
type policyRoot struct {
	Global      string               `yaml:"x-global-permission"`
	Permissions *permissions         `yaml:"x-permissions"`
	Paths       map[string]*pathItem `yaml:"paths"`
}

type pathItem struct {
	Get     *operation `yaml:"get"`
	Post    *operation `yaml:"post"`
	Put     *operation `yaml:"put"`
	Delete  *operation `yaml:"delete"`
	Patch   *operation `yaml:"patch"`
	Options *operation `yaml:"options"`
	Head    *operation `yaml:"head"`
}

// Operations returns a map of HTTP method (uppercase) to operation.
func (p *pathItem) Operations() map[string]*operation {
	ops := make(map[string]*operation)
	if p.Get != nil {
		ops["GET"] = p.Get
	}
	if p.Post != nil {
		ops["POST"] = p.Post
	}
	if p.Put != nil {
		ops["PUT"] = p.Put
	}
	if p.Delete != nil {
		ops["DELETE"] = p.Delete
	}
	if p.Patch != nil {
		ops["PATCH"] = p.Patch
	}
	if p.Options != nil {
		ops["OPTIONS"] = p.Options
	}
	if p.Head != nil {
		ops["HEAD"] = p.Head
	}
	return ops
}

type operation struct {
	Permissions *permissions `yaml:"x-permissions"`
}

type permissions struct {
	All  []string `yaml:"all"`
	Any  []string `yaml:"any"`
	None []string `yaml:"none"`
}

// derivePolicy determines the RoutePolicy for an operation. An
// operation-level x-permissions block overrides the root one; an empty
// block, or no block at all, makes the operation public.
func derivePolicy(root *policyRoot, op *operation) (model.RoutePolicy, error) {
	perms := op.Permissions
	if perms == nil {
		perms = root.Permissions
	}

	if perms == nil || (perms.All == nil && perms.Any == nil && perms.None == nil) {
		return model.RoutePolicy{Public: true}, nil
	}

	policy := model.RoutePolicy{}
	var err error
	if policy.All, err = clean("all", perms.All); err != nil {
		return model.RoutePolicy{}, err
	}
	if policy.Any, err = clean("any", perms.Any); err != nil {
		return model.RoutePolicy{}, err
	}
	if policy.None, err = clean("none", perms.None); err != nil {
		return model.RoutePolicy{}, err
	}
	return policy, nil
}

// clean trims each permission name and rejects blank ones, which would
// otherwise never match and silently lock a route.
func clean(clause string, names []string) ([]string, error) {
	if names == nil {
		return nil, nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, fmt.Errorf("blank permission in %q clause", clause)
		}
		out = append(out, n)
	}
	return out, nil
}
