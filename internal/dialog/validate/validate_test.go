package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dialogue/internal/dialog/plugin"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testDescriptors(t *testing.T) *plugin.DescriptorSet {
	t.Helper()
	set := plugin.NewDescriptorSet()
	require.NoError(t, set.Add(&plugin.Descriptor{
		Name: "token", Kind: "pre", MinArgs: 2, MaxArgs: 0,
	}))
	require.NoError(t, set.Add(&plugin.Descriptor{
		Name: "quest", Kind: "pre", MinArgs: 2, MaxArgs: 2,
		ArgPatterns: []string{".+", `=?[0-9]+(-[0-9]+)?`},
	}))
	require.NoError(t, set.Add(&plugin.Descriptor{
		Name: "settoken", Kind: "post", MinArgs: 2, MaxArgs: 2,
	}))
	require.NoError(t, set.Add(&plugin.Descriptor{
		Name: "connection", Kind: "post", MinArgs: 1, MaxArgs: 1,
		ArgPatterns: []string{"[0-9]+"},
	}))
	return set
}

func findingMessages(fs []Finding) string {
	var parts []string
	for _, f := range fs {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, "\n")
}

func TestValidateCleanFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gork.msg", `{
		"location": "scorn_gork",
		"rules": [
			{
				"match": ["hello"],
				"pre": [["token", "stage", "0"]],
				"post": [["settoken", "stage", "greeted"], ["connection", "12"]],
				"msg": ["Well met."]
			}
		]
	}`)

	report := New(root, testDescriptors(t), 0).Validate("gork.msg")
	assert.True(t, report.OK(), findingMessages(report.Errors))
	assert.Empty(t, report.Warnings, findingMessages(report.Warnings))
	assert.Equal(t, 1, report.Files)
	assert.Equal(t, 1, report.Rules)
}

func TestValidateUnknownPluginName(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gork.msg", `{
		"rules": [
			{"match": ["hi"], "pre": [["tokne", "a", "b"]], "msg": ["Hi."], "post": [["frobnicate", "x"]]}
		]
	}`)

	report := New(root, testDescriptors(t), 0).Validate("gork.msg")
	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0].Message, `unknown condition "tokne"`)
	assert.Contains(t, report.Errors[1].Message, `unknown effect "frobnicate"`)
	assert.Equal(t, 1, report.Errors[0].Rule)
}

func TestValidateArgumentCount(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gork.msg", `{
		"rules": [
			{"match": ["hi"], "pre": [["token", "lonely"]], "msg": ["Hi."], "post": [["settoken", "a", "b", "c"]]}
		]
	}`)

	report := New(root, testDescriptors(t), 0).Validate("gork.msg")
	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0].Message, "at least 2")
	assert.Contains(t, report.Errors[1].Message, "at most 2")
}

func TestValidateArgumentPattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gork.msg", `{
		"rules": [
			{"match": ["hi"], "pre": [["quest", "cellar", "soon"]], "msg": ["Hi."], "post": [["connection", "north"]]}
		]
	}`)

	report := New(root, testDescriptors(t), 0).Validate("gork.msg")
	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0].Message, `"soon" does not match`)
	assert.Contains(t, report.Errors[1].Message, `"north" does not match`)
}

func TestValidateRuleShape(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gork.msg", `{
		"rules": [
			{"msg": ["No trigger."]},
			{"match": ["hi"]}
		]
	}`)

	report := New(root, testDescriptors(t), 0).Validate("gork.msg")
	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0].Message, "no match keywords")
	assert.Equal(t, 1, report.Errors[0].Rule)
	assert.Contains(t, report.Errors[1].Message, "no messages")
	assert.Equal(t, 2, report.Errors[1].Rule)
}

func TestValidateMessageLength(t *testing.T) {
	root := t.TempDir()
	long := strings.Repeat("x", 50)
	writeFile(t, root, "gork.msg", `{
		"rules": [{"match": ["hi"], "msg": ["`+long+`"]}]
	}`)

	report := New(root, testDescriptors(t), 40).Validate("gork.msg")
	assert.True(t, report.OK())
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0].Message, "50 characters, limit is 40")
}

func TestValidateFollowsGuardedIncludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gork.msg", `{
		"rules": [
			{"include": "secret.msg", "pre": [["quest", "cellar", "3"]]}
		]
	}`)
	writeFile(t, root, "secret.msg", `{
		"rules": [{"match": ["hi"], "pre": [["nosuch", "x"]], "msg": ["Hi."]}]
	}`)

	// Guards cannot be evaluated offline, so both branches are validated.
	report := New(root, testDescriptors(t), 0).Validate("gork.msg")
	assert.Equal(t, 2, report.Files)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Message, `unknown condition "nosuch"`)
	assert.Contains(t, report.Errors[0].File, "secret.msg")
}

func TestValidateIncludeCarryingRuleKeys(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gork.msg", `{
		"rules": [
			{"include": "extra.msg", "match": ["hi"], "msg": ["dropped in game"]}
		]
	}`)
	writeFile(t, root, "extra.msg", `{
		"rules": [{"match": ["hi"], "msg": ["Hi."]}]
	}`)

	report := New(root, testDescriptors(t), 0).Validate("gork.msg")
	assert.True(t, report.OK())
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0].Message, "include directive carries rule keys")
}

func TestValidateUnknownKeys(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "gork.msg", `{
		"locaton": "typo",
		"rules": [{"match": ["hi"], "msg": ["Hi."], "reples": [["a","b"]]}]
	}`)

	report := New(root, testDescriptors(t), 0).Validate("gork.msg")
	assert.True(t, report.OK())
	require.Len(t, report.Warnings, 2)
	assert.Contains(t, report.Warnings[0].Message, `unknown key "locaton"`)
	assert.Equal(t, 0, report.Warnings[0].Rule)
	assert.Contains(t, report.Warnings[1].Message, `unknown key "reples"`)
	assert.Equal(t, 1, report.Warnings[1].Rule)
}

func TestValidateUnreadableFile(t *testing.T) {
	report := New(t.TempDir(), testDescriptors(t), 0).Validate("missing.msg")
	assert.False(t, report.OK())
	require.Len(t, report.Errors, 1)
}

func TestValidateIncludeCycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.msg", `{"rules": [{"include": "b.msg"}]}`)
	writeFile(t, root, "b.msg", `{"rules": [{"include": "a.msg"}]}`)

	report := New(root, testDescriptors(t), 0).Validate("a.msg")
	assert.False(t, report.OK())
	assert.Contains(t, findingMessages(report.Errors), "include cycle")
}

func TestValidateEmptyRuleList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "empty.msg", `{"location": "x", "rules": []}`)

	report := New(root, testDescriptors(t), 0).Validate("empty.msg")
	assert.True(t, report.OK())
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0].Message, "no rules")
}
