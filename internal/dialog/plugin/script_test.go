package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dialogue/internal/scripting"
)

func scriptManager(t *testing.T, namespace, source string) *scripting.Manager {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hooks.lua"), []byte(source), 0o644))
	m := scripting.NewManager(zap.NewNop())
	require.NoError(t, m.LoadNamespace(namespace, dir, 0))
	return m
}

func TestScriptConditionVerdict(t *testing.T) {
	ctx, _ := testContext(t)
	ctx.Scripts = scriptManager(t, ctx.Location, `
function always_yes(player, npc)
  return true
end

function always_no(player, npc)
  return false
end

function non_boolean(player, npc)
  return "yes"
end
`)

	assert.True(t, check(t, ctx, "script", "always_yes"))
	assert.False(t, check(t, ctx, "script", "always_no"))
	// Anything but boolean true is a failed condition.
	assert.False(t, check(t, ctx, "script", "non_boolean"))
}

func TestScriptReceivesParticipantsAndArgs(t *testing.T) {
	ctx, _ := testContext(t)
	ctx.Scripts = scriptManager(t, ctx.Location, `
function guard(player, npc, password)
  return player == "Ada" and npc == "Gorlak" and password == "swordfish"
end
`)

	assert.True(t, check(t, ctx, "script", "guard", "swordfish"))
	assert.False(t, check(t, ctx, "script", "guard", "plugh"))
}

func TestScriptEffectRuns(t *testing.T) {
	ctx, _ := testContext(t)
	var said []string
	m := scriptManager(t, ctx.Location, `
function announce(player, npc)
  dialog.say(npc .. " clears his throat at " .. player)
end
`)
	m.Say = func(text string) { said = append(said, text) }
	ctx.Scripts = m

	apply(t, ctx, "script", "announce")
	require.Len(t, said, 1)
	assert.Equal(t, "Gorlak clears his throat at Ada", said[0])
}

func TestScriptUndefinedHook(t *testing.T) {
	ctx, _ := testContext(t)
	ctx.Scripts = scriptManager(t, ctx.Location, "-- no hooks defined\n")

	_, err := Builtins().Check(ctx, "script", []string{"missing"})
	assert.ErrorContains(t, err, "undefined script hook")
	assert.ErrorContains(t, Builtins().Apply(ctx, "script", []string{"missing"}), "undefined script hook")
}

func TestScriptWithoutManager(t *testing.T) {
	ctx, _ := testContext(t)
	_, err := Builtins().Check(ctx, "script", []string{"anything"})
	assert.ErrorContains(t, err, "no script manager")
}
