// Package catalog holds the declarative rule catalog: compiled-in rule
// definitions plus the override layer that produces the immutable effective
// catalog a review runs against.
package catalog

import (
	"fmt"
	"sort"

	"github.com/nsxbet/schema-reviewer/pkg/schema"
	"github.com/nsxbet/schema-reviewer/pkg/types"
)

// CheckFunc runs one rule against the extracted schema. Check functions are
// pure: they read the schema and the rule's effective severity/payload and
// return diagnostics, never mutating either.
type CheckFunc func(*schema.Schema, *Rule) []*types.Diagnostic

// Rule is one entry of the rule catalog.
type Rule struct {
	ID       string
	Category types.Category
	Severity types.Severity
	Title    string
	Enabled  bool
	Payload  map[string]interface{}
	Check    CheckFunc
}

// StringPayload returns the string payload under key, or def when absent.
func (r *Rule) StringPayload(key, def string) string {
	if r.Payload == nil {
		return def
	}
	if s, ok := r.Payload[key].(string); ok {
		return s
	}
	return def
}

// ListPayload returns the string-list payload under key, or def when absent.
// YAML/JSON decoding yields []interface{}, which is accepted too.
func (r *Rule) ListPayload(key string, def []string) []string {
	if r.Payload == nil {
		return def
	}
	switch v := r.Payload[key].(type) {
	case []string:
		return v
	case []interface{}:
		var list []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
		return list
	default:
		return def
	}
}

func (r *Rule) clone() *Rule {
	c := *r
	if r.Payload != nil {
		c.Payload = make(map[string]interface{}, len(r.Payload))
		for k, v := range r.Payload {
			c.Payload[k] = v
		}
	}
	return &c
}

// Registry collects rule definitions at init time.
type Registry struct {
	rules map[string]*Rule
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]*Rule)}
}

// Register adds a rule definition. Registering the same id twice is a
// programming error.
func (r *Registry) Register(rule *Rule) {
	if _, exists := r.rules[rule.ID]; exists {
		panic(fmt.Sprintf("catalog: rule %q registered twice", rule.ID))
	}
	r.rules[rule.ID] = rule
}

// DefaultRegistry is the global registry the rules package populates.
var DefaultRegistry = NewRegistry()

// Register adds a rule to the default registry.
func Register(rule *Rule) {
	DefaultRegistry.Register(rule)
}

// Catalog is an immutable snapshot of rule definitions, ordered by rule id.
type Catalog struct {
	rules []*Rule
	byID  map[string]*Rule
}

// Default snapshots the default registry into a catalog with built-in
// severities and payloads.
func Default() *Catalog {
	return FromRegistry(DefaultRegistry)
}

// FromRegistry snapshots a registry into a catalog.
func FromRegistry(registry *Registry) *Catalog {
	c := &Catalog{byID: make(map[string]*Rule, len(registry.rules))}
	for _, rule := range registry.rules {
		clone := rule.clone()
		c.rules = append(c.rules, clone)
		c.byID[clone.ID] = clone
	}
	sort.Slice(c.rules, func(i, j int) bool { return c.rules[i].ID < c.rules[j].ID })
	return c
}

// Rules returns all rules in id order, enabled or not.
func (c *Catalog) Rules() []*Rule {
	return c.rules
}

// Get looks up a rule by id.
func (c *Catalog) Get(id string) (*Rule, bool) {
	rule, ok := c.byID[id]
	return rule, ok
}

// RulesForCategory returns the enabled rules of one category, in id order.
func (c *Catalog) RulesForCategory(category types.Category) []*Rule {
	var rules []*Rule
	for _, rule := range c.rules {
		if rule.Enabled && rule.Category == category {
			rules = append(rules, rule)
		}
	}
	return rules
}

// Override patches one rule of the catalog. Nil fields keep the built-in
// value.
type Override struct {
	ID       string                 `yaml:"id" json:"id"`
	Enabled  *bool                  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Severity types.Severity         `yaml:"severity,omitempty" json:"severity,omitempty"`
	Payload  map[string]interface{} `yaml:"payload,omitempty" json:"payload,omitempty"`
}

// Apply layers overrides on top of the catalog and returns a new effective
// catalog; the receiver is untouched. An override naming an unknown rule id
// is a configuration error: proceeding with a silently inconsistent rule set
// would mislead the caller.
func (c *Catalog) Apply(overrides ...*Override) (*Catalog, error) {
	next := &Catalog{byID: make(map[string]*Rule, len(c.rules))}
	for _, rule := range c.rules {
		clone := rule.clone()
		next.rules = append(next.rules, clone)
		next.byID[clone.ID] = clone
	}

	for _, o := range overrides {
		rule, ok := next.byID[o.ID]
		if !ok {
			return nil, fmt.Errorf("invalid configuration: unknown rule id %q", o.ID)
		}
		if o.Enabled != nil {
			rule.Enabled = *o.Enabled
		}
		if o.Severity != types.Severity_UNSPECIFIED {
			rule.Severity = o.Severity
		}
		for k, v := range o.Payload {
			if rule.Payload == nil {
				rule.Payload = make(map[string]interface{})
			}
			rule.Payload[k] = v
		}
	}
	return next, nil
}
