// Package plugin provides the named condition and effect registries the
// dialogue engine dispatches to. Every plugin is a pure function over an
// explicit Context; there is no shared ambient state between the engine and
// its plugins.
package plugin

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dialogue/internal/host"
	"github.com/cory-johannsen/dialogue/internal/scripting"
)

// Status is a read/write view of one flag space, already scoped to a
// (storage owner, namespace) pair by the caller.
type Status interface {
	// Get returns the flag value, or "0" when the flag was never set.
	Get(key string) string
	// Set writes the flag. A value of "*" is a no-op by contract.
	Set(key, value string) error
}

// Context carries everything a plugin invocation may act on. The engine
// builds one Context per conversation turn.
type Context struct {
	// Character is the listener, typically the player.
	Character host.Participant
	// Speaker is the NPC delivering the dialogue.
	Speaker host.Participant
	// Location is the dialogue namespace.
	Location string
	// Status is the player-scoped flag space for this namespace.
	Status Status
	// NPCStatus is the speaker-scoped flag space for this namespace and player.
	NPCStatus Status
	// Host exposes the game systems plugins act on.
	Host *host.Services
	// Scripts dispatches Lua hooks for the script plugin; may be nil.
	Scripts *scripting.Manager
	// Logger receives plugin diagnostics; may be nil.
	Logger *zap.Logger
}

// Log returns the context logger, or a no-op logger when none is set.
func (c *Context) Log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
