package authz

import (
	"fmt"
	"sort"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// ActionCall is the casbin action for invoking a tool.
const ActionCall = "call"

// Subjects are key permissions, objects are tool names.
const toolModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// ToolEnforcer answers whether a permission set may call a tool.
type ToolEnforcer struct {
	enforcer *casbin.Enforcer
}

// NewToolEnforcer builds policies from a tool -> required permission table.
// Tools that need no permission are not listed.
func NewToolEnforcer(requirements map[string]string) (*ToolEnforcer, error) {
	m, err := model.NewModelFromString(toolModel)
	if err != nil {
		return nil, fmt.Errorf("casbin: load model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("casbin: create enforcer: %w", err)
	}

	tools := make([]string, 0, len(requirements))
	for tool := range requirements {
		tools = append(tools, tool)
	}
	sort.Strings(tools)

	for _, tool := range tools {
		perm := requirements[tool]
		if perm == "" {
			continue
		}
		if _, err := e.AddPolicy(perm, tool, ActionCall); err != nil {
			return nil, fmt.Errorf("casbin: add policy for %s: %w", tool, err)
		}
	}
	return &ToolEnforcer{enforcer: e}, nil
}

// Allowed reports whether any of permissions grants calling tool.
func (t *ToolEnforcer) Allowed(permissions []string, tool string) (bool, error) {
	for _, perm := range permissions {
		ok, err := t.enforcer.Enforce(perm, tool, ActionCall)
		if err != nil {
			return false, fmt.Errorf("casbin: enforce %s on %s: %w", perm, tool, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Policies lists the loaded (permission, tool, action) rules.
func (t *ToolEnforcer) Policies() [][]string {
	ast, ok := t.enforcer.GetModel()["p"]["p"]
	if !ok {
		return nil
	}
	return ast.Policy
}
