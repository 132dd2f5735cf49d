// Package registry keeps named rules in memory.
//
// A Registry can be read from any number of goroutines without locking.
// Changes copy the set of rules and swap it in atomically, so a reader always
// sees a consistent set, either before or after a change.
package registry

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ezachrisen/rulekit"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ErrRuleNotFound is returned when no rule has the requested ID.
var ErrRuleNotFound = errors.New("rule not found")

// Rule is a compiled rule with its source text.
type Rule struct {
	// ID uniquely identifies the rule in the registry.
	ID string

	// Expr is the rule source. Rules built by Combine carry the rendered
	// combined tree.
	Expr string

	Description string

	// AST is the compiled tree. It is immutable and may be shared between rules.
	AST rulekit.Node

	CreatedAt time.Time
}

// Registry is an in-memory, copy-on-write set of rules keyed by ID.
type Registry struct {
	rules  atomic.Pointer[map[string]*Rule]
	mu     sync.Mutex // serializes writers
	schema *rulekit.Schema
	now    func() time.Time
}

// Option configures a Registry.
type Option func(r *Registry)

// WithSchema checks every rule added to the registry against the schema.
func WithSchema(s rulekit.Schema) Option {
	return func(r *Registry) {
		r.schema = &s
	}
}

// WithClock sets the function used to stamp Rule.CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	empty := map[string]*Rule{}
	r.rules.Store(&empty)
	return r
}

func (r *Registry) compileOptions() []rulekit.CompileOption {
	if r.schema == nil {
		return nil
	}
	return []rulekit.CompileOption{rulekit.WithSchema(*r.schema)}
}

// Create compiles expr and stores it under a newly generated ID.
func (r *Registry) Create(expr, description string) (*Rule, error) {
	ast, err := rulekit.Compile(expr, r.compileOptions()...)
	if err != nil {
		return nil, fmt.Errorf("compiling rule: %w", err)
	}
	rule := &Rule{
		ID:          uuid.NewString(),
		Expr:        expr,
		Description: description,
		AST:         ast,
		CreatedAt:   r.now(),
	}
	r.store(rule)
	return rule, nil
}

// Add stores the rule, replacing any rule with the same ID. If the rule has
// no AST, Expr is compiled; if it has no ID, one is generated.
func (r *Registry) Add(rule *Rule) error {
	if rule == nil {
		return fmt.Errorf("adding nil rule")
	}
	rr := *rule
	if rr.ID == "" {
		rr.ID = uuid.NewString()
	}
	if rr.AST == nil {
		ast, err := rulekit.Compile(rr.Expr, r.compileOptions()...)
		if err != nil {
			return fmt.Errorf("compiling rule %s: %w", rr.ID, err)
		}
		rr.AST = ast
	} else if r.schema != nil {
		if err := r.schema.Check(rr.AST); err != nil {
			return fmt.Errorf("checking rule %s: %w", rr.ID, err)
		}
	}
	if rr.Expr == "" {
		rr.Expr = rr.AST.String()
	}
	if rr.CreatedAt.IsZero() {
		rr.CreatedAt = r.now()
	}
	r.store(&rr)
	return nil
}

func (r *Registry) store(rule *Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := maps.Clone(*r.rules.Load())
	next[rule.ID] = rule
	r.rules.Store(&next)
}

// Get returns the rule with the ID.
func (r *Registry) Get(id string) (*Rule, error) {
	rule, ok := (*r.rules.Load())[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return rule, nil
}

// All returns the rules sorted by ID.
func (r *Registry) All() []*Rule {
	m := *r.rules.Load()
	rules := make([]*Rule, 0, len(m))
	for _, rule := range m {
		rules = append(rules, rule)
	}
	slices.SortFunc(rules, func(a, b *Rule) int {
		return strings.Compare(a.ID, b.ID)
	})
	return rules
}

// Len returns the number of rules.
func (r *Registry) Len() int {
	return len(*r.rules.Load())
}

// Delete removes the rule with the ID.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := *r.rules.Load()
	if _, ok := cur[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	next := maps.Clone(cur)
	delete(next, id)
	r.rules.Store(&next)
	return nil
}

// Evaluate evaluates the rule with the ID against the record.
func (r *Registry) Evaluate(id string, data map[string]any, opts ...rulekit.EvalOption) (bool, error) {
	rule, err := r.Get(id)
	if err != nil {
		return false, err
	}
	return rulekit.Evaluate(rule.AST, data, opts...)
}

// Combine combines the rules with the IDs into one rule, stores it under a
// new ID and returns it.
func (r *Registry) Combine(ids ...string) (*Rule, error) {
	nodes := make([]rulekit.Node, 0, len(ids))
	for _, id := range ids {
		rule, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, rule.AST)
	}
	ast, err := rulekit.Combine(nodes...)
	if err != nil {
		return nil, err
	}
	rule := &Rule{
		ID:          uuid.NewString(),
		Expr:        ast.String(),
		Description: "combined from " + strings.Join(ids, ", "),
		AST:         ast,
		CreatedAt:   r.now(),
	}
	r.store(rule)
	return rule, nil
}

// String returns a table of the rules, sorted by ID.
func (r *Registry) String() string {
	tw := table.NewWriter()
	tw.SetTitle("\nRULES\n")
	tw.AppendHeader(table.Row{"\nRule", "\nExpression", "\nWeight", "\nDescription"})

	maxWidthOfExpressionColumn := 50
	maxExprLength := 0
	for _, rule := range r.All() {
		tw.AppendRow(table.Row{rule.ID, rule.Expr, rule.AST.Weight(), rule.Description})
		if len(rule.Expr) > maxExprLength {
			maxExprLength = len(rule.Expr)
		}
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1},
		{Number: 2, WidthMax: maxWidthOfExpressionColumn},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, WidthMax: 40},
	})

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	// Only add the row separator if the expression is wide enough to wrap.
	if maxExprLength > maxWidthOfExpressionColumn {
		style.Options.SeparateRows = true
	}
	tw.SetStyle(style)
	return tw.Render()
}
