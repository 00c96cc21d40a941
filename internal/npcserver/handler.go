// Package npcserver glues the dialogue engine to the host game loop. A
// speech event names the two participants and the rule file attached to
// the NPC; the handler loads the rules, runs one conversation turn, and
// applies the post-turn bookkeeping the game expects.
package npcserver

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dialogue/internal/dialog"
	"github.com/cory-johannsen/dialogue/internal/dialog/loader"
	"github.com/cory-johannsen/dialogue/internal/dialog/plugin"
	"github.com/cory-johannsen/dialogue/internal/dialog/random"
	"github.com/cory-johannsen/dialogue/internal/host"
	"github.com/cory-johannsen/dialogue/internal/scripting"
)

// DefaultNamespace is used when no rule file in the include chain declares
// a location.
const DefaultNamespace = "defaultdialognamespace"

// talkedToKey is written on the NPC after a consumed turn. The value is a
// small random count the host's idle-chatter system decrements, keeping
// the NPC from talking over an active conversation.
const talkedToKey = "talked_to"

// SpeechEvent is one player utterance aimed at an NPC.
type SpeechEvent struct {
	// Character is the listener, the player who spoke.
	Character host.Participant
	// Speaker is the NPC the utterance is aimed at.
	Speaker host.Participant
	// RuleFile is the rule file attached to the NPC's say event, relative
	// to the dialogue content root unless it starts with "/".
	RuleFile string
	// Message is what the player said.
	Message string
}

// Config assembles a Handler's collaborators.
type Config struct {
	// Root is the dialogue content root.
	Root string
	// Services exposes the host game systems.
	Services *host.Services
	// Registry resolves plugin names; defaults to the built-in set.
	Registry *plugin.Registry
	// Replies is the process-wide one-shot reply cache; defaults to a new
	// cache owned by the handler.
	Replies *dialog.ReplyCache
	// Scripts dispatches Lua hooks; may be nil.
	Scripts *scripting.Manager
	// Random selects among message variants and rolls the talked_to count;
	// defaults to a crypto source.
	Random random.Source
	// Logger receives handler diagnostics; defaults to a no-op logger.
	Logger *zap.Logger
}

// Handler runs conversation turns.
type Handler struct {
	root     string
	services *host.Services
	registry *plugin.Registry
	replies  *dialog.ReplyCache
	scripts  *scripting.Manager
	rng      random.Source
	logger   *zap.Logger
}

// NewHandler creates a Handler.
//
// Precondition: cfg.Root must be non-empty and cfg.Services non-nil.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("npcserver: content root is required")
	}
	if cfg.Services == nil {
		return nil, fmt.Errorf("npcserver: host services are required")
	}
	h := &Handler{
		root:     cfg.Root,
		services: cfg.Services,
		registry: cfg.Registry,
		replies:  cfg.Replies,
		scripts:  cfg.Scripts,
		rng:      cfg.Random,
		logger:   cfg.Logger,
	}
	if h.registry == nil {
		h.registry = plugin.Builtins()
	}
	if h.replies == nil {
		h.replies = dialog.NewReplyCache()
	}
	if h.rng == nil {
		h.rng = random.NewCryptoSource()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h, nil
}

// HandleSay runs one conversation turn. The NPC's rule file is loaded with
// include guards evaluated against current game state, the rules are bound
// into a Dialog, and the utterance is spoken to it. When a rule consumed
// the utterance, a fresh talked_to count of 3 to 8 is written on the NPC.
//
// Postcondition: Returns true when the utterance was consumed and the
// host's default NPC chatter should be suppressed, or an error when the
// rule file cannot be loaded.
func (h *Handler) HandleSay(ev SpeechEvent) (bool, error) {
	if ev.Character == nil || ev.Speaker == nil {
		return false, fmt.Errorf("npcserver: both participants are required")
	}
	turn := uuid.NewString()
	log := h.logger.With(
		zap.String("turn_id", turn),
		zap.String("character", ev.Character.Name()),
		zap.String("speaker", ev.Speaker.Name()),
		zap.String("rule_file", ev.RuleFile),
	)

	guard := func(location string, pre [][]string) bool {
		return h.guardPasses(ev, location, pre, log)
	}
	rs, err := loader.NewLoader(h.root, guard, log).Load(ev.RuleFile)
	if err != nil {
		return false, fmt.Errorf("loading dialogue for %q: %w", ev.Speaker.Name(), err)
	}
	location := rs.Location
	if location == "" {
		location = DefaultNamespace
	}

	rules, err := loader.Build(rs)
	if err != nil {
		return false, fmt.Errorf("building dialogue for %q: %w", ev.Speaker.Name(), err)
	}

	d, err := h.newDialog(ev, location, log)
	if err != nil {
		return false, err
	}
	for _, rule := range rules {
		d.AddRule(rule)
	}

	consumed := d.Speak(ev.Message)
	log.Debug("conversation turn complete",
		zap.String("location", location),
		zap.Int("rules", len(rules)),
		zap.Bool("consumed", consumed),
	)
	if !consumed {
		return false, nil
	}

	count := strconv.Itoa(3 + h.rng.Intn(6))
	if err := ev.Speaker.WriteKey(talkedToKey, count); err != nil {
		log.Error("failed to write talked_to count", zap.Error(err))
	}
	return true, nil
}

// guardPasses evaluates an include guard with a throwaway Dialog bound to
// the namespace known so far.
func (h *Handler) guardPasses(ev SpeechEvent, location string, pre [][]string, log *zap.Logger) bool {
	if location == "" {
		location = DefaultNamespace
	}
	d, err := h.newDialog(ev, location, log)
	if err != nil {
		log.Error("failed to evaluate include guard", zap.Error(err))
		return false
	}
	return d.EvaluateConditions(pre)
}

func (h *Handler) newDialog(ev SpeechEvent, location string, log *zap.Logger) (*dialog.Dialog, error) {
	return dialog.New(dialog.Config{
		Character: ev.Character,
		Speaker:   ev.Speaker,
		Location:  location,
		Registry:  h.registry,
		Services:  h.services,
		Replies:   h.replies,
		Random:    h.rng,
		Scripts:   h.scripts,
		Logger:    log,
	})
}
