// Package validate checks dialogue rule files offline, without a running
// game. It walks a file's include graph unconditionally (guards cannot be
// evaluated without live game state), resolves every condition and effect
// name against the plugin descriptors, and checks argument counts,
// argument patterns, message lengths, and rule shape.
package validate

import (
	"fmt"
	"path/filepath"

	"github.com/cory-johannsen/dialogue/internal/dialog/loader"
	"github.com/cory-johannsen/dialogue/internal/dialog/plugin"
)

// DefaultMaxMessageLength bounds a single message variant. The game client
// truncates beyond this, so longer messages are an authoring mistake.
const DefaultMaxMessageLength = 2048

// Finding is one problem located in a rule file.
type Finding struct {
	File string
	// Rule is the 1-based rule index within the file, or 0 for file-level
	// findings.
	Rule    int
	Message string
}

func (f Finding) String() string {
	if f.Rule > 0 {
		return fmt.Sprintf("%s: rule %d: %s", f.File, f.Rule, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.File, f.Message)
}

// Report is the outcome of validating one rule file and everything it
// includes. Errors are problems that would break or misbehave in game;
// warnings are suspect authoring that still loads.
type Report struct {
	Files    int
	Rules    int
	Errors   []Finding
	Warnings []Finding
}

// OK reports whether validation found no errors. Warnings do not fail a
// report.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

func (r *Report) errorf(file string, rule int, format string, args ...any) {
	r.Errors = append(r.Errors, Finding{File: file, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(file string, rule int, format string, args ...any) {
	r.Warnings = append(r.Warnings, Finding{File: file, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// Validator validates rule files against a plugin descriptor set.
type Validator struct {
	root             string
	descriptors      *plugin.DescriptorSet
	maxMessageLength int
}

// New creates a Validator rooted at the dialogue content root.
//
// Precondition: descriptors must be non-nil. maxMessageLength 0 selects
// DefaultMaxMessageLength.
func New(root string, descriptors *plugin.DescriptorSet, maxMessageLength int) *Validator {
	if maxMessageLength <= 0 {
		maxMessageLength = DefaultMaxMessageLength
	}
	return &Validator{
		root:             root,
		descriptors:      descriptors,
		maxMessageLength: maxMessageLength,
	}
}

// Validate checks the rule file at path and every file it includes,
// directly or transitively. Include guards are not evaluated; every branch
// is followed.
//
// Postcondition: Returns a Report covering all reachable files. An
// unreadable or unparseable file is an error in the report, not a returned
// error.
func (v *Validator) Validate(path string) *Report {
	report := &Report{}
	resolver := loader.NewLoader(v.root, nil, nil)
	visiting := make(map[string]bool)
	v.validateFile(resolver.Resolve(path, v.root), report, visiting)
	return report
}

func (v *Validator) validateFile(path string, report *Report, visiting map[string]bool) {
	clean := filepath.Clean(path)
	if visiting[clean] {
		report.errorf(clean, 0, "include cycle")
		return
	}
	visiting[clean] = true
	defer delete(visiting, clean)

	doc, err := loader.ParseFile(clean)
	if err != nil {
		report.errorf(clean, 0, "%v", err)
		return
	}
	report.Files++

	for _, key := range doc.Unknown {
		report.warnf(clean, 0, "unknown key %q", key)
	}
	if len(doc.Rules) == 0 {
		report.warnf(clean, 0, "file defines no rules")
	}

	resolver := loader.NewLoader(v.root, nil, nil)
	for i := range doc.Rules {
		entry := &doc.Rules[i]
		rule := i + 1
		for _, key := range entry.Unknown {
			report.warnf(clean, rule, "unknown key %q", key)
		}
		if entry.IsInclude() {
			v.validateInclude(entry, clean, rule, report)
			for _, ref := range entry.Include {
				v.validateFile(resolver.Resolve(ref, filepath.Dir(clean)), report, visiting)
			}
			continue
		}
		report.Rules++
		v.validateRule(entry, clean, rule, report)
	}
}

// validateInclude checks an include directive. Only a single "pre" guard
// block may accompany an include; match/msg/post/replies on an include
// entry are silently dropped in game, so they are reported here.
func (v *Validator) validateInclude(entry *loader.Entry, file string, rule int, report *Report) {
	if len(entry.Match) > 0 || len(entry.Msg) > 0 || len(entry.Post) > 0 || len(entry.Replies) > 0 {
		report.warnf(file, rule, "include directive carries rule keys; only \"pre\" gates an include")
	}
	v.validateConditions(entry.Pre, "pre", file, rule, report)
}

func (v *Validator) validateRule(entry *loader.Entry, file string, rule int, report *Report) {
	if len(entry.Match) == 0 {
		report.errorf(file, rule, "rule has no match keywords")
	}
	if len(entry.Msg) == 0 {
		report.errorf(file, rule, "rule has no messages")
	}
	for i, msg := range entry.Msg {
		if len(msg) > v.maxMessageLength {
			report.warnf(file, rule, "message %d is %d characters, limit is %d", i+1, len(msg), v.maxMessageLength)
		}
	}
	for i, reply := range entry.Replies {
		if reply.Word == "" || reply.Text == "" {
			report.errorf(file, rule, "reply %d needs both a word and a text", i+1)
		}
	}
	v.validateConditions(entry.Pre, "pre", file, rule, report)
	v.validateEffects(entry.Post, file, rule, report)
}

func (v *Validator) validateConditions(conditions [][]string, block string, file string, rule int, report *Report) {
	for _, condition := range conditions {
		if len(condition) == 0 {
			report.errorf(file, rule, "empty %s block entry", block)
			continue
		}
		name, args := condition[0], condition[1:]
		d, ok := v.descriptors.Pre(name)
		if !ok {
			report.errorf(file, rule, "unknown condition %q", name)
			continue
		}
		v.checkArgs(d, "condition", name, args, file, rule, report)
	}
}

func (v *Validator) validateEffects(effects [][]string, file string, rule int, report *Report) {
	for _, effect := range effects {
		if len(effect) == 0 {
			report.errorf(file, rule, "empty post block entry")
			continue
		}
		name, args := effect[0], effect[1:]
		d, ok := v.descriptors.Post(name)
		if !ok {
			report.errorf(file, rule, "unknown effect %q", name)
			continue
		}
		v.checkArgs(d, "effect", name, args, file, rule, report)
	}
}

func (v *Validator) checkArgs(d *plugin.Descriptor, kind, name string, args []string, file string, rule int, report *Report) {
	if err := d.Spec().Validate(args); err != nil {
		report.errorf(file, rule, "%s %q: %v", kind, name, err)
		return
	}
	for i, arg := range args {
		if err := d.MatchArg(i, arg); err != nil {
			report.errorf(file, rule, "%s %q: %v", kind, name, err)
		}
	}
}
