package plugin

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Descriptor is the static definition of a plugin, loaded from YAML. It is
// what the offline validator resolves names against, so malformed rule
// files are caught without running the game.
type Descriptor struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"` // "pre" | "post"
	Description string `yaml:"description"`
	// MinArgs is the minimum argument count.
	MinArgs int `yaml:"min_args"`
	// MaxArgs is the maximum argument count; 0 means no upper limit.
	MaxArgs int `yaml:"max_args"`
	// ArgPatterns holds one anchored regular expression per argument
	// position; positions beyond the list are unchecked.
	ArgPatterns []string `yaml:"arg_patterns"`

	compiled []*regexp.Regexp
}

// Spec returns the descriptor's argument-count spec.
func (d *Descriptor) Spec() ArgSpec {
	return ArgSpec{Min: d.MinArgs, Max: d.MaxArgs}
}

// MatchArg checks the argument at position i against the declared pattern,
// if any.
//
// Postcondition: Returns nil when no pattern is declared for i or the
// argument matches.
func (d *Descriptor) MatchArg(i int, arg string) error {
	if i >= len(d.compiled) || d.compiled[i] == nil {
		return nil
	}
	if !d.compiled[i].MatchString(arg) {
		return fmt.Errorf("argument %d %q does not match %q", i+1, arg, d.ArgPatterns[i])
	}
	return nil
}

func (d *Descriptor) compile() error {
	d.compiled = make([]*regexp.Regexp, len(d.ArgPatterns))
	for i, pat := range d.ArgPatterns {
		re, err := regexp.Compile("^(?:" + pat + ")$")
		if err != nil {
			return fmt.Errorf("argument pattern %d %q: %w", i+1, pat, err)
		}
		d.compiled[i] = re
	}
	return nil
}

// DescriptorSet holds all known plugin descriptors keyed by kind and name.
type DescriptorSet struct {
	pre  map[string]*Descriptor
	post map[string]*Descriptor
}

// NewDescriptorSet creates an empty DescriptorSet.
func NewDescriptorSet() *DescriptorSet {
	return &DescriptorSet{
		pre:  make(map[string]*Descriptor),
		post: make(map[string]*Descriptor),
	}
}

// Add registers a descriptor, overwriting any existing entry with the same
// kind and name.
//
// Precondition: d.Name must be non-empty and d.Kind must be "pre" or "post".
// Postcondition: Returns an error on an invalid descriptor or pattern.
func (s *DescriptorSet) Add(d *Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("descriptor with empty name")
	}
	if err := d.compile(); err != nil {
		return fmt.Errorf("descriptor %q: %w", d.Name, err)
	}
	switch d.Kind {
	case "pre":
		s.pre[d.Name] = d
	case "post":
		s.post[d.Name] = d
	default:
		return fmt.Errorf("descriptor %q has unknown kind %q", d.Name, d.Kind)
	}
	return nil
}

// Pre returns the condition descriptor for name.
func (s *DescriptorSet) Pre(name string) (*Descriptor, bool) {
	d, ok := s.pre[name]
	return d, ok
}

// Post returns the effect descriptor for name.
func (s *DescriptorSet) Post(name string) (*Descriptor, bool) {
	d, ok := s.post[name]
	return d, ok
}

// Verify cross-checks a Registry against the descriptor set: every
// registered plugin must have a descriptor of the matching kind whose
// argument counts agree with the registration.
//
// Postcondition: Returns nil when registry and descriptors agree, or an
// error naming every mismatch.
func (s *DescriptorSet) Verify(r *Registry) error {
	var errs []string
	for _, name := range r.ConditionNames() {
		c, _ := r.Condition(name)
		d, ok := s.pre[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("condition %q has no descriptor", name))
			continue
		}
		if d.Spec() != c.Args {
			errs = append(errs, fmt.Sprintf("condition %q: descriptor args %+v != registered %+v", name, d.Spec(), c.Args))
		}
	}
	for _, name := range r.EffectNames() {
		e, _ := r.Effect(name)
		d, ok := s.post[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("effect %q has no descriptor", name))
			continue
		}
		if d.Spec() != e.Args {
			errs = append(errs, fmt.Sprintf("effect %q: descriptor args %+v != registered %+v", name, d.Spec(), e.Args))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("descriptor verification failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// LoadDescriptors reads every *.yaml file in dir/pre and dir/post, parses
// each as a Descriptor, and returns a populated DescriptorSet. A file's
// kind defaults to its subdirectory when unset.
//
// Precondition: dir must contain readable pre/ and post/ subdirectories.
// Postcondition: Returns a non-nil DescriptorSet, or an error if any file
// fails to parse.
func LoadDescriptors(dir string) (*DescriptorSet, error) {
	set := NewDescriptorSet()
	for _, kind := range []string{"pre", "post"} {
		sub := filepath.Join(dir, kind)
		entries, err := os.ReadDir(sub)
		if err != nil {
			return nil, fmt.Errorf("reading descriptor dir %q: %w", sub, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
				continue
			}
			path := filepath.Join(sub, e.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading %q: %w", path, err)
			}
			var d Descriptor
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(&d); err != nil {
				return nil, fmt.Errorf("parsing %q: %w", path, err)
			}
			if d.Kind == "" {
				d.Kind = kind
			}
			if err := set.Add(&d); err != nil {
				return nil, fmt.Errorf("loading %q: %w", path, err)
			}
		}
	}
	return set, nil
}
