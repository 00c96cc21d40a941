// Package host defines the collaborator interfaces the dialogue engine
// depends on: participants with persistent key/value storage, the speaking
// and quick-reply transport, and the game systems (inventory, quests,
// knowledge, time, map connections, animation) that condition and effect
// plugins act on. The engine never implements these; the game server does.
// An in-memory World implementation is provided for tests and the author
// console.
package host

// ReplyKind classifies a quick reply: a plain sentence, a reply to the
// speaker, or a question asked of the speaker. It is descriptive only.
type ReplyKind int

const (
	KindSay      ReplyKind = 0
	KindReply    ReplyKind = 1
	KindQuestion ReplyKind = 2
)

// Participant is one side of a conversation: a player character or an NPC.
// ReadKey and WriteKey expose the participant's persistent key/value slots;
// the physical storage (player file, map object, database row) is the
// host's concern.
type Participant interface {
	// Name returns the participant's display name.
	Name() string
	// Level returns the participant's experience level.
	Level() int
	// ReadKey returns the stored value for key, or "" when unset.
	ReadKey(key string) string
	// WriteKey stores value under key, overwriting any previous value.
	WriteKey(key, value string) error
}

// Speech is the speaking and quick-reply transport.
type Speech interface {
	// Say delivers text as speech from the speaker.
	Say(speaker Participant, text string)
	// AddReply offers a selectable quick reply to the listener.
	AddReply(listener Participant, word, text string, kind ReplyKind)
	// SetPlayerMessage rewrites the listener's just-spoken utterance, so a
	// quick-reply word appears as its full display sentence.
	SetPlayerMessage(listener Participant, text string, kind ReplyKind)
}

// Inventory exposes the item and currency checks and mutations plugins need.
// Items are matched by display name; currency is handled by value, never as
// an object.
type Inventory interface {
	// CountItem returns how many items named name the participant holds.
	CountItem(p Participant, name string) int
	// TotalMoney returns the total currency value the participant carries.
	TotalMoney(p Participant) int
	// HasArchetype reports whether the participant holds an item of the
	// given underlying archetype.
	HasArchetype(p Participant, arch string) bool
	// GiveItem transfers qty of the named item from the speaker's stock to
	// the receiver.
	GiveItem(from, to Participant, name string, qty int) error
	// GiveContents transfers every item inside the named container held by
	// from into to's inventory.
	GiveContents(from, to Participant, container string) error
	// TakeItem removes qty of the named item from the participant; qty 0
	// removes every instance.
	TakeItem(p Participant, name string, qty int) error
	// GiveMoney credits the participant with amount currency.
	GiveMoney(p Participant, amount int) error
	// PayMoney debits amount from the participant; fails when they cannot pay.
	PayMoney(p Participant, amount int) error
}

// Quests exposes quest progression. Stage 0 means not started; stages only
// ever move forward.
type Quests interface {
	// Stage returns the participant's current stage in the named quest,
	// or 0 when the quest has not been started.
	Stage(p Participant, quest string) int
	// SetStage starts the quest at stage or advances it. Implementations
	// must reject stages at or below the current one.
	SetStage(p Participant, quest string, stage int) error
	// Completed reports whether the participant has finished the quest at
	// least once.
	Completed(p Participant, quest string) bool
}

// Knowledge exposes the knowledge-code ledger.
type Knowledge interface {
	Known(p Participant, code string) bool
	Grant(p Participant, code string) error
}

// GameTime is an in-game timestamp.
type GameTime struct {
	Year, Month, Day, Hour, Minute int
}

// Clock supplies the current in-game time.
type Clock interface {
	Now() GameTime
}

// Calendar holds the constants that relate GameTime components to each
// other. Minutes per hour is fixed at 60.
type Calendar struct {
	MonthsPerYear int
	WeeksPerMonth int
	DaysPerWeek   int
	HoursPerDay   int
}

// DaysPerMonth returns WeeksPerMonth * DaysPerWeek.
func (c Calendar) DaysPerMonth() int {
	return c.WeeksPerMonth * c.DaysPerWeek
}

// Connections triggers numbered map connections (levers, gates, teleporters).
type Connections interface {
	Trigger(n int) error
}

// Animator runs scripted animations and answers whether a participant is
// mid-animation and therefore unable to converse.
type Animator interface {
	// Busy reports whether the participant is currently playing an
	// animation that blocks speech.
	Busy(p Participant) bool
	// Run starts the animation defined at path; animation selects a clip
	// within the file and may be empty.
	Run(p Participant, path, animation string) error
}

// Services bundles every host collaborator the engine and its plugins use.
// Nil fields are treated as absent capabilities: conditions that need a
// missing service fail, effects log and skip.
type Services struct {
	Speech      Speech
	Inventory   Inventory
	Quests      Quests
	Knowledge   Knowledge
	Clock       Clock
	Calendar    Calendar
	Connections Connections
	Animator    Animator
}
