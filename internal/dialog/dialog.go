package dialog

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dialogue/internal/dialog/plugin"
	"github.com/cory-johannsen/dialogue/internal/dialog/random"
	"github.com/cory-johannsen/dialogue/internal/host"
	"github.com/cory-johannsen/dialogue/internal/scripting"
)

// namespacePattern constrains dialogue namespaces: they are folded into
// persistent storage keys, so whitespace and separator characters are not
// allowed.
var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// statusKeyPrefix namespaces dialogue flags within a participant's
// key/value storage, away from unrelated host data.
const statusKeyPrefix = "dialog_"

// Config assembles a Dialog's collaborators.
type Config struct {
	// Character is the listener, typically the player.
	Character host.Participant
	// Speaker is the NPC that answers.
	Speaker host.Participant
	// Location is the dialogue namespace; it scopes persisted flags so
	// unrelated dialogues cannot collide.
	Location string
	// Registry resolves condition and effect names; defaults to the
	// built-in set.
	Registry *plugin.Registry
	// Services exposes the host game systems.
	Services *host.Services
	// Replies is the shared one-shot quick-reply cache; defaults to a
	// private cache (adequate only when the Dialog itself is long-lived).
	Replies *ReplyCache
	// Random selects among message variants; defaults to a crypto source.
	Random random.Source
	// Scripts dispatches Lua hooks for script plugins; may be nil.
	Scripts *scripting.Manager
	// Logger receives engine diagnostics; defaults to a no-op logger.
	Logger *zap.Logger
}

// Dialog binds an ordered rule list to a (listener, speaker, namespace)
// triple. Rules are tested in insertion order and the first matching,
// passing rule wins.
type Dialog struct {
	character host.Participant
	speaker   host.Participant
	location  string
	rules     []*Rule
	registry  *plugin.Registry
	services  *host.Services
	replies   *ReplyCache
	rng       random.Source
	scripts   *scripting.Manager
	logger    *zap.Logger
}

// New creates a Dialog.
//
// Precondition: cfg.Character, cfg.Speaker, and cfg.Services must be
// non-nil; cfg.Location must be a valid namespace (letters, digits,
// "_", ".", "-").
// Postcondition: Returns a Dialog with no rules, or a non-nil error.
func New(cfg Config) (*Dialog, error) {
	if cfg.Character == nil || cfg.Speaker == nil {
		return nil, fmt.Errorf("dialog: both participants are required")
	}
	if cfg.Services == nil {
		return nil, fmt.Errorf("dialog: host services are required")
	}
	if !namespacePattern.MatchString(cfg.Location) {
		return nil, fmt.Errorf("dialog: invalid namespace %q", cfg.Location)
	}

	d := &Dialog{
		character: cfg.Character,
		speaker:   cfg.Speaker,
		location:  cfg.Location,
		registry:  cfg.Registry,
		services:  cfg.Services,
		replies:   cfg.Replies,
		rng:       cfg.Random,
		scripts:   cfg.Scripts,
		logger:    cfg.Logger,
	}
	if d.registry == nil {
		d.registry = plugin.Builtins()
	}
	if d.replies == nil {
		d.replies = NewReplyCache()
	}
	if d.rng == nil {
		d.rng = random.NewCryptoSource()
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d, nil
}

// AddRule appends a rule. Order is significant: earlier rules win, so the
// most generic catch-all rule must be added last.
//
// Precondition: r must be non-nil.
func (d *Dialog) AddRule(r *Rule) {
	d.rules = append(d.rules, r)
}

// Rules returns the rules in evaluation order.
func (d *Dialog) Rules() []*Rule { return d.rules }

// Location returns the dialogue namespace.
func (d *Dialog) Location() string { return d.location }

// uniqueKey identifies this (namespace, listener) pair in the reply cache.
func (d *Dialog) uniqueKey() string {
	return d.location + "_" + d.character.Name()
}

// Speak processes one utterance from the listener. It walks the rules in
// order; the first rule whose keywords match the utterance and whose
// preconditions all pass fires: one of its messages is chosen at random,
// $me/$you are substituted, the message is spoken, quick replies are
// offered, and postconditions are applied in order.
//
// Postcondition: Returns true when a rule fired (the utterance was
// consumed), false otherwise. Plugin failures never propagate; they are
// logged and the affected rule does not fire (conditions) or the effect is
// skipped (postconditions).
func (d *Dialog) Speak(utterance string) bool {
	// A speaker mid-animation cannot converse.
	if d.services.Animator != nil && d.services.Animator.Busy(d.speaker) {
		return false
	}

	// The replies offered last turn, if any, are consumed now (one-shot)
	// and used after a rule fires to translate a short reply word into the
	// sentence the player is shown to have said.
	prior, _ := d.replies.Take(d.uniqueKey())

	for _, rule := range d.rules {
		if !IsAnswer(utterance, rule.Keywords()) {
			continue
		}
		if !d.matchConditions(rule) {
			continue
		}

		message := rule.ChooseMessage(d.rng)
		message = strings.ReplaceAll(message, "$me", d.speaker.Name())
		message = strings.ReplaceAll(message, "$you", d.character.Name())
		d.services.Speech.Say(d.speaker, message)

		if replies := rule.Replies(); len(replies) > 0 {
			for _, r := range replies {
				d.services.Speech.AddReply(d.character, r.Word, r.Text, r.Kind)
			}
			d.replies.Put(d.uniqueKey(), replies)
		}

		d.setConditions(rule)

		for _, r := range prior {
			if r.Word == utterance {
				d.services.Speech.SetPlayerMessage(d.character, r.Text, r.Kind)
				break
			}
		}
		return true
	}
	return false
}

// IsAnswer reports whether the utterance triggers any of the keywords.
// Matching is case-insensitive substring containment: the keyword "hi"
// triggers on "this" as well as "Hi there". A keyword of "*" matches any
// utterance. Short keywords therefore match aggressively; authors order
// rules accordingly.
func IsAnswer(utterance string, keywords []string) bool {
	lowered := strings.ToLower(utterance)
	for _, kw := range keywords {
		if kw == "*" || strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// matchConditions evaluates a rule's preconditions and optional
// pre-function. All must pass; evaluation short-circuits on the first
// failure. An unknown condition name or a failing plugin counts as false
// and is logged.
func (d *Dialog) matchConditions(rule *Rule) bool {
	if !d.EvaluateConditions(rule.Preconditions()) {
		return false
	}
	if fn := rule.PreFunc(); fn != nil {
		if !fn(d.pluginContext(), rule) {
			return false
		}
	}
	return true
}

// EvaluateConditions evaluates an independent (name, args...) condition
// list, as used both by rule preconditions and by include guards.
//
// Postcondition: Returns true iff every condition resolves and reports true.
func (d *Dialog) EvaluateConditions(conditions [][]string) bool {
	ctx := d.pluginContext()
	for _, condition := range conditions {
		if len(condition) == 0 {
			d.logger.Error("empty condition tuple",
				zap.String("location", d.location),
			)
			return false
		}
		name, args := condition[0], condition[1:]
		verdict, err := d.registry.Check(ctx, name, args)
		if err != nil {
			d.logger.Error("failed to evaluate condition",
				zap.String("location", d.location),
				zap.Strings("condition", condition),
				zap.Error(err),
			)
			return false
		}
		if !verdict {
			return false
		}
	}
	return true
}

// setConditions applies a rule's postconditions in order. Effects are
// independent and best-effort: a failing effect is logged and skipped, and
// the remaining effects still run.
func (d *Dialog) setConditions(rule *Rule) {
	ctx := d.pluginContext()
	for _, condition := range rule.Postconditions() {
		if len(condition) == 0 {
			d.logger.Error("empty effect tuple",
				zap.String("location", d.location),
			)
			continue
		}
		d.logger.Debug("applying effect",
			zap.String("location", d.location),
			zap.Strings("effect", condition),
		)
		name, args := condition[0], condition[1:]
		if err := d.registry.Apply(ctx, name, args); err != nil {
			d.logger.Error("failed to apply effect",
				zap.String("location", d.location),
				zap.Strings("effect", condition),
				zap.Error(err),
			)
		}
	}
}

// pluginContext builds the explicit context plugins receive.
func (d *Dialog) pluginContext() *plugin.Context {
	return &plugin.Context{
		Character: d.character,
		Speaker:   d.speaker,
		Location:  d.location,
		Status:    d.Status(),
		NPCStatus: d.NPCStatus(),
		Host:      d.services,
		Scripts:   d.scripts,
		Logger:    d.logger,
	}
}

// Status returns the player-scoped flag space for this namespace. Flags
// here survive map resets and follow the player.
func (d *Dialog) Status() plugin.Status {
	return statusStore{
		owner:      d.character,
		storageKey: statusKeyPrefix + d.location,
	}
}

// NPCStatus returns the speaker-scoped flag space for this namespace,
// additionally keyed by the listener's name. Flags here live on the NPC and
// reset with its map.
func (d *Dialog) NPCStatus() plugin.Status {
	return statusStore{
		owner:      d.speaker,
		storageKey: statusKeyPrefix + d.location + "_" + d.character.Name(),
	}
}

// GetStatus reads a player-scoped flag; "0" when unset.
func (d *Dialog) GetStatus(key string) string { return d.Status().Get(key) }

// SetStatus writes a player-scoped flag; the value "*" is a no-op.
func (d *Dialog) SetStatus(key, value string) error { return d.Status().Set(key, value) }

// GetNPCStatus reads a speaker-scoped flag; "0" when unset.
func (d *Dialog) GetNPCStatus(key string) string { return d.NPCStatus().Get(key) }

// SetNPCStatus writes a speaker-scoped flag; the value "*" is a no-op.
func (d *Dialog) SetNPCStatus(key, value string) error { return d.NPCStatus().Set(key, value) }
