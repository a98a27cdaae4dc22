package pipeline

import (
	"fmt"
	"slices"

	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// ParamKind discriminates the supported hyperparameter shapes.
type ParamKind int

const (
	// KindFloat is a continuous numeric range.
	KindFloat ParamKind = iota

	// KindInt is a discrete integer range.
	KindInt

	// KindChoice is a categorical set of string values.
	KindChoice
)

// String returns the kind name used in error messages.
func (k ParamKind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindChoice:
		return "choice"
	default:
		return fmt.Sprintf("ParamKind(%d)", int(k))
	}
}

// Param declares one hyperparameter: its value domain, an optional default,
// and an optional conditional activation under a parent choice parameter.
//
// Numeric parameters carry inclusive [Min, Max] bounds; Log switches sampling
// to log-uniform (bounds must then be positive). Choice parameters enumerate
// their values in Choices.
//
// A conditional parameter names a Parent choice parameter and the
// ParentValues under which it is active; when the parent holds any other
// value the parameter is absent from sampled configurations.
type Param struct {
	Name         string
	Kind         ParamKind
	Min          float64
	Max          float64
	Log          bool
	Choices      []string
	Default      any
	Parent       string
	ParentValues []string
}

// Schema declares an operator's hyperparameters. Parents must be declared
// before their conditional children; Validate enforces this along with the
// per-parameter domain rules.
type Schema struct {
	Params []Param
}

//////
// Param constructors.
//////

// FloatParam declares a continuous hyperparameter with inclusive bounds.
func FloatParam[T constraints.Float](name string, min, max T) Param {
	return Param{
		Name: name,
		Kind: KindFloat,
		Min:  float64(min),
		Max:  float64(max),
	}
}

// IntParam declares an integer hyperparameter with inclusive bounds.
func IntParam[T constraints.Integer](name string, min, max T) Param {
	return Param{
		Name: name,
		Kind: KindInt,
		Min:  float64(min),
		Max:  float64(max),
	}
}

// ChoiceParam declares a categorical hyperparameter over the given values.
func ChoiceParam(name string, choices ...string) Param {
	return Param{
		Name:    name,
		Kind:    KindChoice,
		Choices: choices,
	}
}

// LogScale marks a numeric parameter for log-uniform sampling.
func (p Param) LogScale() Param {
	p.Log = true

	return p
}

// WithDefault attaches a default value, used when a configuration omits the
// parameter.
func (p Param) WithDefault(v any) Param {
	p.Default = v

	return p
}

// When makes the parameter conditional: it is only active while the parent
// choice parameter holds one of the given values.
func (p Param) When(parent string, values ...string) Param {
	p.Parent = parent
	p.ParentValues = values

	return p
}

//////
// Schema methods.
//////

// NewSchema assembles a schema from the given parameter declarations.
func NewSchema(params ...Param) *Schema {
	return &Schema{Params: params}
}

// Param looks a parameter up by name.
func (s *Schema) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}

	return Param{}, false
}

// Validate checks the schema's internal consistency: unique non-empty names,
// ordered numeric bounds, positive bounds on log-scaled ranges, non-empty
// unique choice sets, and conditional parameters whose parent is a choice
// parameter declared earlier with a compatible value set.
func (s *Schema) Validate() error {
	seen := map[string]ParamKind{}

	for _, p := range s.Params {
		if p.Name == "" {
			return fmt.Errorf("hyperparameter with empty name")
		}

		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate hyperparameter %q", p.Name)
		}

		switch p.Kind {
		case KindFloat, KindInt:
			if p.Min > p.Max {
				return fmt.Errorf("hyperparameter %q: min %v greater than max %v", p.Name, p.Min, p.Max)
			}

			if p.Log && p.Min <= 0 {
				return fmt.Errorf("hyperparameter %q: log scale requires positive bounds, got min %v", p.Name, p.Min)
			}

			if len(p.Choices) != 0 {
				return fmt.Errorf("hyperparameter %q: %s parameter cannot carry choices", p.Name, p.Kind)
			}
		case KindChoice:
			if len(p.Choices) == 0 {
				return fmt.Errorf("hyperparameter %q: choice parameter with no choices", p.Name)
			}

			uniq := map[string]bool{}
			for _, c := range p.Choices {
				if uniq[c] {
					return fmt.Errorf("hyperparameter %q: duplicate choice %q", p.Name, c)
				}

				uniq[c] = true
			}
		default:
			return fmt.Errorf("hyperparameter %q: unsupported kind %s", p.Name, p.Kind)
		}

		if p.Parent != "" {
			parentKind, ok := seen[p.Parent]
			if !ok {
				return fmt.Errorf("hyperparameter %q: parent %q not declared before it", p.Name, p.Parent)
			}

			if parentKind != KindChoice {
				return fmt.Errorf("hyperparameter %q: parent %q is not a choice parameter", p.Name, p.Parent)
			}

			if len(p.ParentValues) == 0 {
				return fmt.Errorf("hyperparameter %q: conditional on %q with no activating values", p.Name, p.Parent)
			}

			parent, _ := s.Param(p.Parent)
			for _, v := range p.ParentValues {
				if !slices.Contains(parent.Choices, v) {
					return fmt.Errorf("hyperparameter %q: activating value %q not among choices of %q", p.Name, v, p.Parent)
				}
			}
		}

		seen[p.Name] = p.Kind
	}

	return nil
}

// Active reports whether a parameter is active under the given configuration.
// An unconditional parameter is always active; a conditional one requires its
// parent to be present with an activating value. Activation chains through
// nested conditionals because an inactive parent is absent from the
// configuration.
func (s *Schema) Active(p Param, cfg Config) bool {
	if p.Parent == "" {
		return true
	}

	v, ok := cfg[p.Parent].(string)
	if !ok {
		return false
	}

	return slices.Contains(p.ParentValues, v)
}

// Prefixed returns a copy of the schema with every parameter name, and every
// internal parent reference, prepended with prefix. Composite operators use
// it to merge member schemas into one flat namespace.
func (s *Schema) Prefixed(prefix string) *Schema {
	out := &Schema{Params: make([]Param, len(s.Params))}

	for i, p := range s.Params {
		p.Name = prefix + p.Name
		if p.Parent != "" {
			p.Parent = prefix + p.Parent
		}

		p.Choices = slices.Clone(p.Choices)
		p.ParentValues = slices.Clone(p.ParentValues)
		out.Params[i] = p
	}

	return out
}
