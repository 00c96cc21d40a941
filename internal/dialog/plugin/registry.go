package plugin

import "fmt"

// ArgSpec declares how many arguments a plugin accepts. Max 0 means no
// upper limit, matching the descriptor file convention.
type ArgSpec struct {
	Min int
	Max int
}

// Validate checks the argument count against the spec.
//
// Postcondition: Returns nil iff len(args) satisfies Min and Max.
func (s ArgSpec) Validate(args []string) error {
	if len(args) < s.Min {
		return fmt.Errorf("expected at least %d argument(s), got %d", s.Min, len(args))
	}
	if s.Max > 0 && len(args) > s.Max {
		return fmt.Errorf("expected at most %d argument(s), got %d", s.Max, len(args))
	}
	return nil
}

// CheckFunc is a condition plugin: it inspects game state and returns a verdict.
type CheckFunc func(ctx *Context, args []string) (bool, error)

// EffectFunc is an effect plugin: it mutates game state.
type EffectFunc func(ctx *Context, args []string) error

// Condition is a named, argument-checked condition plugin.
type Condition struct {
	Name  string
	Args  ArgSpec
	Check CheckFunc
}

// Effect is a named, argument-checked effect plugin.
type Effect struct {
	Name  string
	Args  ArgSpec
	Apply EffectFunc
}

// Registry maps condition and effect names to their implementations.
type Registry struct {
	conditions map[string]*Condition
	effects    map[string]*Effect
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		conditions: make(map[string]*Condition),
		effects:    make(map[string]*Effect),
	}
}

// RegisterCondition adds a condition plugin.
//
// Precondition: c.Name must be non-empty and c.Check non-nil.
// Postcondition: Returns an error on duplicate names.
func (r *Registry) RegisterCondition(c Condition) error {
	if c.Name == "" || c.Check == nil {
		return fmt.Errorf("invalid condition registration %q", c.Name)
	}
	if _, exists := r.conditions[c.Name]; exists {
		return fmt.Errorf("duplicate condition name: %q", c.Name)
	}
	r.conditions[c.Name] = &c
	return nil
}

// RegisterEffect adds an effect plugin.
//
// Precondition: e.Name must be non-empty and e.Apply non-nil.
// Postcondition: Returns an error on duplicate names.
func (r *Registry) RegisterEffect(e Effect) error {
	if e.Name == "" || e.Apply == nil {
		return fmt.Errorf("invalid effect registration %q", e.Name)
	}
	if _, exists := r.effects[e.Name]; exists {
		return fmt.Errorf("duplicate effect name: %q", e.Name)
	}
	r.effects[e.Name] = &e
	return nil
}

// Condition returns the condition registered under name.
//
// Postcondition: Returns (condition, true) if found, or (nil, false).
func (r *Registry) Condition(name string) (*Condition, bool) {
	c, ok := r.conditions[name]
	return c, ok
}

// Effect returns the effect registered under name.
//
// Postcondition: Returns (effect, true) if found, or (nil, false).
func (r *Registry) Effect(name string) (*Effect, bool) {
	e, ok := r.effects[name]
	return e, ok
}

// ConditionNames returns the names of all registered conditions, unordered.
func (r *Registry) ConditionNames() []string {
	names := make([]string, 0, len(r.conditions))
	for name := range r.conditions {
		names = append(names, name)
	}
	return names
}

// EffectNames returns the names of all registered effects, unordered.
func (r *Registry) EffectNames() []string {
	names := make([]string, 0, len(r.effects))
	for name := range r.effects {
		names = append(names, name)
	}
	return names
}

// Check resolves and invokes the named condition. The caller decides how to
// treat an error; the engine treats any error as verdict=false.
//
// Postcondition: Returns the plugin verdict, or an error on unknown name,
// argument-count violation, or plugin failure.
func (r *Registry) Check(ctx *Context, name string, args []string) (bool, error) {
	c, ok := r.conditions[name]
	if !ok {
		return false, fmt.Errorf("unknown condition %q", name)
	}
	if err := c.Args.Validate(args); err != nil {
		return false, fmt.Errorf("condition %q: %w", name, err)
	}
	verdict, err := c.Check(ctx, args)
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", name, err)
	}
	return verdict, nil
}

// Apply resolves and invokes the named effect. The caller decides how to
// treat an error; the engine logs and continues with the next effect.
//
// Postcondition: Returns nil on success, or an error on unknown name,
// argument-count violation, or plugin failure.
func (r *Registry) Apply(ctx *Context, name string, args []string) error {
	e, ok := r.effects[name]
	if !ok {
		return fmt.Errorf("unknown effect %q", name)
	}
	if err := e.Args.Validate(args); err != nil {
		return fmt.Errorf("effect %q: %w", name, err)
	}
	if err := e.Apply(ctx, args); err != nil {
		return fmt.Errorf("effect %q: %w", name, err)
	}
	return nil
}
