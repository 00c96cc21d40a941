package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dialogue/internal/dialog/plugin"
	"github.com/cory-johannsen/dialogue/internal/dialog/random"
	"github.com/cory-johannsen/dialogue/internal/host"
)

type fixture struct {
	world     *host.World
	character *host.WorldParticipant
	speaker   *host.WorldParticipant
	cache     *ReplyCache
	dialog    *Dialog
}

func newFixture(t *testing.T, location string) *fixture {
	t.Helper()
	world := host.NewWorld(host.Calendar{
		MonthsPerYear: 17, WeeksPerMonth: 5, DaysPerWeek: 7, HoursPerDay: 28,
	})
	character, err := world.AddParticipant("Ada", 5)
	require.NoError(t, err)
	speaker, err := world.AddParticipant("Gorlak", 1)
	require.NoError(t, err)

	cache := NewReplyCache()
	d, err := New(Config{
		Character: character,
		Speaker:   speaker,
		Location:  location,
		Services:  world.Services(),
		Replies:   cache,
		Random:    random.NewSeededSource(1),
	})
	require.NoError(t, err)

	return &fixture{
		world:     world,
		character: character,
		speaker:   speaker,
		cache:     cache,
		dialog:    d,
	}
}

func (f *fixture) addRule(t *testing.T, keywords []string, pre [][]string, messages []string, post [][]string, opts ...RuleOption) {
	t.Helper()
	r, err := NewRule(keywords, pre, messages, post, opts...)
	require.NoError(t, err)
	f.dialog.AddRule(r)
}

func TestNewValidation(t *testing.T) {
	world := host.NewWorld(host.Calendar{})
	p, err := world.AddParticipant("Ada", 1)
	require.NoError(t, err)

	_, err = New(Config{Speaker: p, Location: "castle", Services: world.Services()})
	assert.Error(t, err)

	_, err = New(Config{Character: p, Speaker: p, Location: "castle"})
	assert.Error(t, err)

	_, err = New(Config{Character: p, Speaker: p, Location: "has space", Services: world.Services()})
	assert.Error(t, err)

	_, err = New(Config{Character: p, Speaker: p, Location: "", Services: world.Services()})
	assert.Error(t, err)

	d, err := New(Config{Character: p, Speaker: p, Location: "scorn.kar-gork_1", Services: world.Services()})
	require.NoError(t, err)
	assert.Equal(t, "scorn.kar-gork_1", d.Location())
}

func TestIsAnswer(t *testing.T) {
	cases := []struct {
		name      string
		utterance string
		keywords  []string
		want      bool
	}{
		{"exact", "hello", []string{"hello"}, true},
		{"case insensitive", "HELLO there", []string{"hello"}, true},
		{"substring of utterance", "well hello there", []string{"hello"}, true},
		{"keyword inside word", "this", []string{"hi"}, true},
		{"wildcard", "anything at all", []string{"*"}, true},
		{"second keyword", "goodbye", []string{"hello", "bye"}, true},
		{"no match", "farewell", []string{"hello"}, false},
		{"no keywords", "hello", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsAnswer(tc.utterance, tc.keywords))
		})
	}
}

func TestSpeakNoRules(t *testing.T) {
	f := newFixture(t, "castle")
	assert.False(t, f.dialog.Speak("hello"))
	assert.Empty(t, f.world.DrainSpeech())
}

func TestSpeakFirstMatchWins(t *testing.T) {
	f := newFixture(t, "castle")
	f.addRule(t, []string{"hello"}, nil, []string{"First."}, nil)
	f.addRule(t, []string{"hello"}, nil, []string{"Second."}, nil)

	assert.True(t, f.dialog.Speak("hello"))
	said := f.world.DrainSpeech()
	require.Len(t, said, 1)
	assert.Equal(t, "First.", said[0].Text)
}

func TestSpeakPreconditionGates(t *testing.T) {
	f := newFixture(t, "castle")
	f.addRule(t, []string{"hello"}, [][]string{{"token", "stage", "greeted"}},
		[]string{"Back again?"}, nil)
	f.addRule(t, []string{"hello"}, nil,
		[]string{"Well met."}, [][]string{{"settoken", "stage", "greeted"}})

	require.True(t, f.dialog.Speak("hello"))
	said := f.world.DrainSpeech()
	require.Len(t, said, 1)
	assert.Equal(t, "Well met.", said[0].Text)

	// The effect flipped the flag, so the gated rule now wins.
	require.True(t, f.dialog.Speak("hello"))
	said = f.world.DrainSpeech()
	require.Len(t, said, 1)
	assert.Equal(t, "Back again?", said[0].Text)
}

func TestSpeakSubstitutesNames(t *testing.T) {
	f := newFixture(t, "castle")
	f.addRule(t, []string{"hello"}, nil, []string{"$me greets $you."}, nil)

	require.True(t, f.dialog.Speak("hello"))
	said := f.world.DrainSpeech()
	require.Len(t, said, 1)
	assert.Equal(t, "Gorlak greets Ada.", said[0].Text)
	assert.Equal(t, "Gorlak", said[0].Speaker)
}

func TestSpeakWildcardCatchAll(t *testing.T) {
	f := newFixture(t, "castle")
	f.addRule(t, []string{"hello"}, nil, []string{"Hello."}, nil)
	f.addRule(t, []string{"*"}, nil, []string{"Eh?"}, nil)

	require.True(t, f.dialog.Speak("gibberish"))
	said := f.world.DrainSpeech()
	require.Len(t, said, 1)
	assert.Equal(t, "Eh?", said[0].Text)
}

func TestSpeakBlockedWhileAnimating(t *testing.T) {
	f := newFixture(t, "castle")
	f.addRule(t, []string{"*"}, nil, []string{"Hello."}, nil)
	f.world.SetAnimating(f.speaker, true)

	assert.False(t, f.dialog.Speak("hello"))
	assert.Empty(t, f.world.DrainSpeech())

	f.world.SetAnimating(f.speaker, false)
	assert.True(t, f.dialog.Speak("hello"))
}

func TestSpeakOffersReplies(t *testing.T) {
	f := newFixture(t, "castle")
	replies := []Reply{
		{Word: "errand", Text: "Do you have work for me?", Kind: host.KindQuestion},
		{Word: "farewell", Text: "I must be going.", Kind: host.KindSay},
	}
	f.addRule(t, []string{"hello"}, nil, []string{"Well met."}, nil, WithReplies(replies))

	require.True(t, f.dialog.Speak("hello"))

	offered := f.world.DrainReplies()
	require.Len(t, offered, 2)
	assert.Equal(t, "errand", offered[0].Word)
	assert.Equal(t, host.KindQuestion, offered[0].Kind)
	assert.Equal(t, "Ada", offered[0].Listener)

	cached, ok := f.cache.Take("castle_Ada")
	require.True(t, ok)
	assert.Equal(t, replies, cached)
}

func TestSpeakTranslatesReplyWord(t *testing.T) {
	f := newFixture(t, "castle")
	replies := []Reply{{Word: "errand", Text: "Do you have work for me?", Kind: host.KindQuestion}}
	f.addRule(t, []string{"hello"}, nil, []string{"Well met."}, nil, WithReplies(replies))
	f.addRule(t, []string{"errand"}, nil, []string{"Rats. Cellar. Go."}, nil)

	require.True(t, f.dialog.Speak("hello"))
	require.True(t, f.dialog.Speak("errand"))

	msgs := f.world.PlayerMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Do you have work for me?", msgs[0].Text)
	assert.Equal(t, host.KindQuestion, msgs[0].Kind)

	// The cached offer was consumed; saying the word again does not
	// translate a second time.
	require.True(t, f.dialog.Speak("errand"))
	assert.Len(t, f.world.PlayerMessages(), 1)
}

func TestSpeakReplyWordMustMatchExactly(t *testing.T) {
	f := newFixture(t, "castle")
	replies := []Reply{{Word: "errand", Text: "Do you have work for me?", Kind: host.KindQuestion}}
	f.addRule(t, []string{"hello"}, nil, []string{"Well met."}, nil, WithReplies(replies))
	f.addRule(t, []string{"errand"}, nil, []string{"Rats."}, nil)

	require.True(t, f.dialog.Speak("hello"))
	// Keyword matching is substring-based, but reply translation is exact.
	require.True(t, f.dialog.Speak("about that errand"))
	assert.Empty(t, f.world.PlayerMessages())
}

func TestSpeakUnknownConditionSkipsRule(t *testing.T) {
	f := newFixture(t, "castle")
	f.addRule(t, []string{"hello"}, [][]string{{"nosuchcondition", "x"}}, []string{"Gated."}, nil)
	f.addRule(t, []string{"hello"}, nil, []string{"Fallback."}, nil)

	require.True(t, f.dialog.Speak("hello"))
	said := f.world.DrainSpeech()
	require.Len(t, said, 1)
	assert.Equal(t, "Fallback.", said[0].Text)
}

func TestSpeakFailedEffectDoesNotStopOthers(t *testing.T) {
	f := newFixture(t, "castle")
	f.addRule(t, []string{"hello"}, nil, []string{"Well met."}, [][]string{
		{"quest", "cellar", "not-a-number"},
		{"settoken", "stage", "greeted"},
	})

	require.True(t, f.dialog.Speak("hello"))
	assert.Equal(t, "greeted", f.dialog.GetStatus("stage"))
}

func TestSpeakPreFuncGates(t *testing.T) {
	f := newFixture(t, "castle")
	allow := false
	fn := func(ctx *plugin.Context, _ *Rule) bool {
		assert.Equal(t, "castle", ctx.Location)
		return allow
	}
	f.addRule(t, []string{"hello"}, nil, []string{"Secret."}, nil, WithPreFunc(fn))
	f.addRule(t, []string{"*"}, nil, []string{"Eh?"}, nil)

	require.True(t, f.dialog.Speak("hello"))
	assert.Equal(t, "Eh?", f.world.DrainSpeech()[0].Text)

	allow = true
	require.True(t, f.dialog.Speak("hello"))
	assert.Equal(t, "Secret.", f.world.DrainSpeech()[0].Text)
}

func TestStatusScoping(t *testing.T) {
	f := newFixture(t, "castle")

	require.NoError(t, f.dialog.SetStatus("stage", "greeted"))
	assert.Equal(t, "greeted", f.dialog.GetStatus("stage"))
	assert.Equal(t, "stage:greeted", f.character.ReadKey("dialog_castle"))

	require.NoError(t, f.dialog.SetNPCStatus("mood", "grumpy"))
	assert.Equal(t, "grumpy", f.dialog.GetNPCStatus("mood"))
	assert.Equal(t, "mood:grumpy", f.speaker.ReadKey("dialog_castle_Ada"))

	// The two spaces never bleed into each other.
	assert.Equal(t, "0", f.dialog.GetNPCStatus("stage"))
	assert.Equal(t, "0", f.dialog.GetStatus("mood"))
}

func TestEvaluateConditions(t *testing.T) {
	f := newFixture(t, "castle")
	require.NoError(t, f.dialog.SetStatus("stage", "greeted"))

	assert.True(t, f.dialog.EvaluateConditions(nil))
	assert.True(t, f.dialog.EvaluateConditions([][]string{{"token", "stage", "greeted"}}))
	assert.False(t, f.dialog.EvaluateConditions([][]string{
		{"token", "stage", "greeted"},
		{"level", "100"},
	}))
	assert.False(t, f.dialog.EvaluateConditions([][]string{{"unknown"}}))
	assert.False(t, f.dialog.EvaluateConditions([][]string{{}}))
}

func TestErrandScenario(t *testing.T) {
	f := newFixture(t, "scorn_sigmund")
	f.world.SetItem(f.speaker, "rat tail", 1)

	f.addRule(t,
		[]string{"rat", "done"},
		[][]string{{"token", "errand", "accepted"}, {"item", "rat tail", "3"}},
		[]string{"Fine work, $you. Here is your silver."},
		[][]string{
			{"takeitem", "rat tail", "0"},
			{"giveitem", "money", "50"},
			{"settoken", "errand", "done"},
			{"quest", "scorn/cellar-rats", "3"},
		})
	f.addRule(t,
		[]string{"yes", "errand"},
		[][]string{{"token", "errand", "0"}},
		[]string{"Bring me three rat tails."},
		[][]string{{"settoken", "errand", "accepted"}, {"quest", "scorn/cellar-rats", "1"}})
	f.addRule(t, []string{"hello"}, nil, []string{"Greetings, $you."}, nil,
		WithReplies([]Reply{{Word: "errand", Text: "Do you have work for me?", Kind: host.KindQuestion}}))
	f.addRule(t, []string{"*"}, nil, []string{"$me mutters about rats."}, nil)

	// Greeting offers the errand.
	require.True(t, f.dialog.Speak("hello"))
	assert.Equal(t, "Greetings, Ada.", f.world.DrainSpeech()[0].Text)

	// Saying the reply word accepts it.
	require.True(t, f.dialog.Speak("errand"))
	assert.Equal(t, "Bring me three rat tails.", f.world.DrainSpeech()[0].Text)
	assert.Equal(t, "accepted", f.dialog.GetStatus("errand"))
	assert.Equal(t, 1, f.world.Stage(f.character, "scorn/cellar-rats"))

	// Too few tails: the catch-all answers instead.
	f.world.SetItem(f.character, "rat tail", 2)
	require.True(t, f.dialog.Speak("done"))
	assert.Equal(t, "Gorlak mutters about rats.", f.world.DrainSpeech()[0].Text)

	// With three tails the turn-in fires and pays out.
	f.world.SetItem(f.character, "rat tail", 3)
	require.True(t, f.dialog.Speak("done"))
	assert.Equal(t, "Fine work, Ada. Here is your silver.", f.world.DrainSpeech()[0].Text)
	assert.Equal(t, "done", f.dialog.GetStatus("errand"))
	assert.Equal(t, 0, f.world.CountItem(f.character, "rat tail"))
	assert.Equal(t, 50, f.world.TotalMoney(f.character))
	assert.Equal(t, 3, f.world.Stage(f.character, "scorn/cellar-rats"))

	// Asking again finds the errand flag no longer "0".
	require.True(t, f.dialog.Speak("errand"))
	assert.Equal(t, "Gorlak mutters about rats.", f.world.DrainSpeech()[0].Text)
}
