package access

import (
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Possession string

const (
	Own Possession = "own"
	Any Possession = "any"
)

// AnyResource in a policy file applies a role's grants to every resource.
const AnyResource = "*"

// ActionForMethod maps an HTTP verb to the action it performs.
func ActionForMethod(method string) (Action, bool) {
	switch method {
	case http.MethodGet, http.MethodHead:
		return ActionRead, true
	case http.MethodPost:
		return ActionCreate, true
	case http.MethodPatch, http.MethodPut:
		return ActionUpdate, true
	case http.MethodDelete:
		return ActionDelete, true
	}
	return "", false
}

//go:embed roles.yaml
var defaultPolicyYAML []byte

type grantKey struct {
	action     Action
	possession Possession
}

// Policy is the role permission matrix: role -> resource -> (action,
// possession) -> attributes. It is built once and then only read.
type Policy struct {
	grants map[string]map[string]map[grantKey][]string
}

func NewPolicy() *Policy {
	return &Policy{grants: map[string]map[string]map[grantKey][]string{}}
}

// Grant adds attributes for a role. It returns the policy so rules can be
// chained while the policy is being built.
func (p *Policy) Grant(role, resource string, action Action, possession Possession, attrs ...string) *Policy {
	if len(attrs) == 0 {
		attrs = []string{"*"}
	}
	resources, ok := p.grants[role]
	if !ok {
		resources = map[string]map[grantKey][]string{}
		p.grants[role] = resources
	}
	rules, ok := resources[resource]
	if !ok {
		rules = map[grantKey][]string{}
		resources[resource] = rules
	}
	key := grantKey{action: action, possession: possession}
	rules[key] = append(rules[key], attrs...)
	return p
}

// Roles lists the roles known to the policy.
func (p *Policy) Roles() []string {
	out := make([]string, 0, len(p.grants))
	for role := range p.grants {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// Evaluate resolves the grant of a role set. An any grant also satisfies an
// own request.
func (p *Policy) Evaluate(roles []string, resource string, action Action, possession Possession) Grant {
	var lists [][]string
	for _, role := range roles {
		resources, ok := p.grants[role]
		if !ok {
			continue
		}
		for _, res := range []string{resource, AnyResource} {
			rules, ok := resources[res]
			if !ok {
				continue
			}
			if attrs, ok := rules[grantKey{action, Any}]; ok {
				lists = append(lists, attrs)
			}
			if possession == Own {
				if attrs, ok := rules[grantKey{action, Own}]; ok {
					lists = append(lists, attrs)
				}
			}
		}
	}
	return newGrant(lists)
}

// Decide picks the widest possession the actor holds for the request. A
// resource without an owner field never yields an own decision.
func (p *Policy) Decide(actor Actor, resource string, action Action) Decision {
	d := Decision{Resource: resource, Action: action, ActorID: actor.ID}
	if g := p.Evaluate(actor.Roles, resource, action, Any); g.Granted {
		d.Possession = Any
		d.Grant = g
		return d
	}
	if _, ok := OwnerField(resource); !ok {
		return d
	}
	if g := p.Evaluate(actor.Roles, resource, action, Own); g.Granted {
		d.Possession = Own
		d.Grant = g
	}
	return d
}

// policyFile is the YAML layout: role -> resource -> "action:possession" ->
// attribute list.
type policyFile map[string]map[string]map[string][]string

func ParsePolicy(data []byte) (*Policy, error) {
	var raw policyFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse role policy: %w", err)
	}
	p := NewPolicy()
	for role, resources := range raw {
		for resource, rules := range resources {
			for key, attrs := range rules {
				action, possession, err := parseGrantKey(key)
				if err != nil {
					return nil, fmt.Errorf("role %s resource %s: %w", role, resource, err)
				}
				p.Grant(role, resource, action, possession, attrs...)
			}
		}
	}
	return p, nil
}

func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePolicy(data)
}

// DefaultPolicy returns the built-in role matrix.
func DefaultPolicy() *Policy {
	p, err := ParsePolicy(defaultPolicyYAML)
	if err != nil {
		panic(err)
	}
	return p
}

func parseGrantKey(key string) (Action, Possession, error) {
	parts := strings.SplitN(strings.TrimSpace(key), ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid grant key %q, want action:possession", key)
	}
	action := Action(strings.ToLower(parts[0]))
	switch action {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
	default:
		return "", "", fmt.Errorf("unknown action %q", parts[0])
	}
	possession := Possession(strings.ToLower(parts[1]))
	if possession != Own && possession != Any {
		return "", "", fmt.Errorf("unknown possession %q", parts[1])
	}
	return action, possession, nil
}
