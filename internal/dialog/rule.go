// Package dialog implements a rule-based dialogue engine for NPC
// conversations. A Dialog binds an ordered list of Rules to a
// (listener, speaker, namespace) triple; Speak tests the rules in order
// against the player's utterance and fires the first rule whose keywords
// match and whose preconditions pass.
package dialog

import (
	"errors"

	"github.com/cory-johannsen/dialogue/internal/dialog/plugin"
	"github.com/cory-johannsen/dialogue/internal/dialog/random"
	"github.com/cory-johannsen/dialogue/internal/host"
)

// Reply is one suggested quick reply: the word the player says, the full
// sentence shown when they say it, and the kind of utterance it renders as.
type Reply struct {
	Word string
	Text string
	Kind host.ReplyKind
}

// PreFunc is an optional custom predicate evaluated in addition to a rule's
// declarative preconditions, for logic the plugin set cannot express.
type PreFunc func(ctx *plugin.Context, r *Rule) bool

// Rule is one unit of dialogue: keyword triggers, gating preconditions,
// message variants, and effects applied after the message is delivered.
// Rules are immutable after construction.
type Rule struct {
	keywords []string
	pre      [][]string
	messages []string
	post     [][]string
	replies  []Reply
	preFn    PreFunc
}

// RuleOption customizes a Rule at construction.
type RuleOption func(*Rule)

// WithReplies attaches suggested quick replies to the rule.
func WithReplies(replies []Reply) RuleOption {
	return func(r *Rule) { r.replies = replies }
}

// WithPreFunc attaches a custom pre-function to the rule.
func WithPreFunc(fn PreFunc) RuleOption {
	return func(r *Rule) { r.preFn = fn }
}

// ErrNoMessages is returned when a rule is constructed without any message
// variants. A firing rule must always have something to say, so the empty
// list is rejected at construction rather than failing at selection time.
var ErrNoMessages = errors.New("dialog: rule has no messages")

// NewRule constructs a Rule.
//
// Precondition: messages must be non-empty. keywords, pre, and post may be
// empty; each pre/post entry is (name, args...) with at least the name.
// Postcondition: Returns an immutable Rule, or ErrNoMessages.
func NewRule(keywords []string, pre [][]string, messages []string, post [][]string, opts ...RuleOption) (*Rule, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}
	r := &Rule{
		keywords: append([]string(nil), keywords...),
		pre:      clonePairs(pre),
		messages: append([]string(nil), messages...),
		post:     clonePairs(post),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func clonePairs(in [][]string) [][]string {
	if in == nil {
		return nil
	}
	out := make([][]string, len(in))
	for i, entry := range in {
		out[i] = append([]string(nil), entry...)
	}
	return out
}

// Keywords returns the rule's trigger strings. "*" matches any utterance.
func (r *Rule) Keywords() []string { return r.keywords }

// Preconditions returns the (name, args...) condition tuples, in order.
func (r *Rule) Preconditions() [][]string { return r.pre }

// Postconditions returns the (name, args...) effect tuples, in order.
func (r *Rule) Postconditions() [][]string { return r.post }

// Replies returns the suggested quick replies, if any.
func (r *Rule) Replies() []Reply { return r.replies }

// PreFunc returns the custom pre-function, or nil.
func (r *Rule) PreFunc() PreFunc { return r.preFn }

// ChooseMessage returns one message variant selected uniformly at random.
//
// Precondition: src must be non-nil. The message list is non-empty by the
// construction invariant.
func (r *Rule) ChooseMessage(src random.Source) string {
	if len(r.messages) == 1 {
		return r.messages[0]
	}
	return r.messages[src.Intn(len(r.messages))]
}

// Messages returns all message variants, in definition order.
func (r *Rule) Messages() []string { return r.messages }
