// Package loader reads dialogue rule files. A rule file is a JSON document
// with a namespace ("location") and an ordered rule list; rules may instead
// be include directives that splice in further files, optionally gated by a
// precondition block. The loader flattens the include graph into one
// ordered rule list and builds engine rules from it.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dialogue/internal/dialog"
	"github.com/cory-johannsen/dialogue/internal/host"
)

// ReplyEntry is one suggested reply as written in a rule file:
// [word, text] or [word, text, kind].
type ReplyEntry struct {
	Word string
	Text string
	Kind int
}

// Entry is one element of a document's rule list: either a dialogue rule
// (match/pre/msg/post, optional replies) or an include directive
// (include, optional pre guard).
type Entry struct {
	Match   []string
	Pre     [][]string
	Msg     []string
	Post    [][]string
	Replies []ReplyEntry
	Include []string
	// Unknown lists keys the entry carried that the loader does not
	// recognize. The engine ignores them; the validator reports them.
	Unknown []string
}

// IsInclude reports whether the entry is an include directive.
func (e *Entry) IsInclude() bool { return len(e.Include) > 0 }

// UnmarshalJSON accepts the authoring shorthand: "match", "msg", and
// "include" may each be a single string or a list of strings, and each
// reply is a [word, text] or [word, text, kind] array.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		var err error
		switch key {
		case "match":
			e.Match, err = stringList(val)
		case "msg":
			e.Msg, err = stringList(val)
		case "include":
			e.Include, err = stringList(val)
		case "pre":
			err = json.Unmarshal(val, &e.Pre)
		case "post":
			err = json.Unmarshal(val, &e.Post)
		case "replies":
			e.Replies, err = replyList(val)
		case "comment":
			// Authoring annotation, carried but meaningless.
		default:
			e.Unknown = append(e.Unknown, key)
		}
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}
	return nil
}

func stringList(data json.RawMessage) ([]string, error) {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return nil, fmt.Errorf("expected string or string list: %w", err)
	}
	return many, nil
}

func replyList(data json.RawMessage) ([]ReplyEntry, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("expected a list of reply arrays: %w", err)
	}
	replies := make([]ReplyEntry, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 || len(row) > 3 {
			return nil, fmt.Errorf("reply %d: expected [word, text] or [word, text, kind]", i+1)
		}
		var r ReplyEntry
		if err := json.Unmarshal(row[0], &r.Word); err != nil {
			return nil, fmt.Errorf("reply %d word: %w", i+1, err)
		}
		if err := json.Unmarshal(row[1], &r.Text); err != nil {
			return nil, fmt.Errorf("reply %d text: %w", i+1, err)
		}
		if len(row) == 3 {
			var kind json.Number
			if err := json.Unmarshal(row[2], &kind); err != nil {
				return nil, fmt.Errorf("reply %d kind: %w", i+1, err)
			}
			k, err := kind.Int64()
			if err != nil || k < 0 || k > 2 {
				return nil, fmt.Errorf("reply %d kind: %q is not 0, 1 or 2", i+1, kind)
			}
			r.Kind = int(k)
		}
		replies = append(replies, r)
	}
	return replies, nil
}

// Document is one parsed rule file, before include resolution.
type Document struct {
	Location string
	Rules    []Entry
	// Unknown lists unrecognized top-level keys.
	Unknown []string
}

// UnmarshalJSON records unknown top-level keys instead of dropping them.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		var err error
		switch key {
		case "location":
			err = json.Unmarshal(val, &d.Location)
		case "rules":
			err = json.Unmarshal(val, &d.Rules)
		default:
			d.Unknown = append(d.Unknown, key)
		}
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}
	return nil
}

// ParseFile reads and parses one rule file, without resolving includes.
//
// Postcondition: Returns the parsed document, or an error naming the file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	return &doc, nil
}

// RuleSet is a fully resolved rule list: every include has been replaced by
// the entries of the file it names.
type RuleSet struct {
	// Location is the dialogue namespace. The first file in parse order
	// that declares a location wins; later declarations are ignored.
	Location string
	// Entries are the dialogue rules, in evaluation order.
	Entries []Entry
	// Files lists every file parsed, in parse order.
	Files []string
}

// GuardFunc evaluates an include guard's precondition block. location is
// the namespace declared so far in parse order, or "" when no file has
// declared one yet. A nil GuardFunc includes unconditionally, which is what
// the offline validator wants since it must see every reachable file.
type GuardFunc func(location string, pre [][]string) bool

// Loader resolves and parses rule files.
type Loader struct {
	root   string
	guard  GuardFunc
	logger *zap.Logger
}

// NewLoader creates a Loader.
//
// Precondition: root must be the dialogue content root; absolute include
// paths ("/...") resolve against it.
func NewLoader(root string, guard GuardFunc, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{root: root, guard: guard, logger: logger}
}

// Load parses the rule file at path and resolves its includes depth-first.
// path is relative to the content root unless absolute on the filesystem.
//
// Postcondition: Returns a RuleSet whose entries contain no include
// directives, or an error naming the file that failed. Include cycles are
// detected and reported as errors.
func (l *Loader) Load(path string) (*RuleSet, error) {
	rs := &RuleSet{}
	visiting := make(map[string]bool)
	if err := l.load(l.Resolve(path, l.root), rs, visiting); err != nil {
		return nil, err
	}
	return rs, nil
}

// Resolve maps an include reference to a filesystem path. References
// starting with "/" are relative to the content root; all others are
// relative to the directory of the including file.
func (l *Loader) Resolve(ref, fromDir string) string {
	if strings.HasPrefix(ref, "/") {
		return filepath.Join(l.root, strings.TrimPrefix(ref, "/"))
	}
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(fromDir, ref)
}

func (l *Loader) load(path string, rs *RuleSet, visiting map[string]bool) error {
	clean := filepath.Clean(path)
	if visiting[clean] {
		return fmt.Errorf("include cycle through %q", clean)
	}
	visiting[clean] = true
	defer delete(visiting, clean)

	doc, err := ParseFile(clean)
	if err != nil {
		return err
	}
	l.logger.Debug("loaded rule file", zap.String("path", clean))
	rs.Files = append(rs.Files, clean)

	if doc.Location != "" {
		if rs.Location == "" {
			rs.Location = doc.Location
		} else if rs.Location != doc.Location {
			l.logger.Warn("ignoring location from included file",
				zap.String("path", clean),
				zap.String("kept", rs.Location),
				zap.String("ignored", doc.Location),
			)
		}
	}

	for i := range doc.Rules {
		entry := doc.Rules[i]
		if !entry.IsInclude() {
			rs.Entries = append(rs.Entries, entry)
			continue
		}
		if l.guard != nil && len(entry.Pre) > 0 && !l.guard(rs.Location, entry.Pre) {
			l.logger.Debug("skipping include, guard conditions not met",
				zap.String("path", clean),
				zap.Strings("include", entry.Include),
			)
			continue
		}
		for _, ref := range entry.Include {
			if err := l.load(l.Resolve(ref, filepath.Dir(clean)), rs, visiting); err != nil {
				return err
			}
		}
	}
	return nil
}

// Build converts resolved entries into engine rules.
//
// Postcondition: Returns one rule per entry, in order, or an error for the
// first entry that has no messages.
func Build(rs *RuleSet) ([]*dialog.Rule, error) {
	rules := make([]*dialog.Rule, 0, len(rs.Entries))
	for i, entry := range rs.Entries {
		var opts []dialog.RuleOption
		if len(entry.Replies) > 0 {
			replies := make([]dialog.Reply, len(entry.Replies))
			for j, r := range entry.Replies {
				replies[j] = dialog.Reply{
					Word: r.Word,
					Text: r.Text,
					Kind: host.ReplyKind(r.Kind),
				}
			}
			opts = append(opts, dialog.WithReplies(replies))
		}
		rule, err := dialog.NewRule(entry.Match, entry.Pre, entry.Msg, entry.Post, opts...)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
