package host

import (
	"fmt"
	"sync"
)

// Utterance is one line of recorded NPC speech.
type Utterance struct {
	Speaker string
	Text    string
}

// OfferedReply is one quick reply recorded for a listener.
type OfferedReply struct {
	Listener string
	Word     string
	Text     string
	Kind     ReplyKind
}

// PlayerMessage is a recorded rewrite of a player's utterance.
type PlayerMessage struct {
	Listener string
	Text     string
	Kind     ReplyKind
}

// World is an in-memory implementation of every host service. It backs the
// author console and the test suites. All methods are safe for concurrent
// use, though the engine itself is single-threaded per conversation.
type World struct {
	mu           sync.RWMutex
	participants map[string]*WorldParticipant
	keys         map[string]map[string]string
	items        map[string]map[string]int
	archetypes   map[string]map[string]bool
	containers   map[string]map[string]map[string]int
	money        map[string]int
	quests       map[string]map[string]int
	completed    map[string]map[string]bool
	knowledge    map[string]map[string]bool
	animating    map[string]bool
	now          GameTime
	calendar     Calendar

	said        []Utterance
	replies     []OfferedReply
	playerMsgs  []PlayerMessage
	connections []int
	animations  []string
}

// NewWorld creates an empty World using the given calendar.
//
// Postcondition: Returns a non-nil World with no participants.
func NewWorld(cal Calendar) *World {
	return &World{
		participants: make(map[string]*WorldParticipant),
		keys:         make(map[string]map[string]string),
		items:        make(map[string]map[string]int),
		archetypes:   make(map[string]map[string]bool),
		containers:   make(map[string]map[string]map[string]int),
		money:        make(map[string]int),
		quests:       make(map[string]map[string]int),
		completed:    make(map[string]map[string]bool),
		knowledge:    make(map[string]map[string]bool),
		animating:    make(map[string]bool),
		calendar:     cal,
	}
}

// Services returns a Services bundle backed entirely by this World.
func (w *World) Services() *Services {
	return &Services{
		Speech:      w,
		Inventory:   w,
		Quests:      w,
		Knowledge:   w,
		Clock:       w,
		Calendar:    w.calendar,
		Connections: w,
		Animator:    w,
	}
}

// AddParticipant registers a named participant at the given level.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the participant, or an error if the name is taken.
func (w *World) AddParticipant(name string, level int) (*WorldParticipant, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.participants[name]; exists {
		return nil, fmt.Errorf("participant %q already exists", name)
	}
	p := &WorldParticipant{world: w, name: name, level: level}
	w.participants[name] = p
	return p, nil
}

// WorldParticipant is a Participant stored in a World.
type WorldParticipant struct {
	world *World
	name  string
	level int
}

func (p *WorldParticipant) Name() string { return p.name }
func (p *WorldParticipant) Level() int   { return p.level }

// ReadKey returns the stored value for key, or "" when unset.
func (p *WorldParticipant) ReadKey(key string) string {
	p.world.mu.RLock()
	defer p.world.mu.RUnlock()
	return p.world.keys[p.name][key]
}

// WriteKey stores value under key.
func (p *WorldParticipant) WriteKey(key, value string) error {
	p.world.mu.Lock()
	defer p.world.mu.Unlock()
	if p.world.keys[p.name] == nil {
		p.world.keys[p.name] = make(map[string]string)
	}
	p.world.keys[p.name][key] = value
	return nil
}

// --- Speech ---

func (w *World) Say(speaker Participant, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.said = append(w.said, Utterance{Speaker: speaker.Name(), Text: text})
}

func (w *World) AddReply(listener Participant, word, text string, kind ReplyKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.replies = append(w.replies, OfferedReply{
		Listener: listener.Name(), Word: word, Text: text, Kind: kind,
	})
}

func (w *World) SetPlayerMessage(listener Participant, text string, kind ReplyKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.playerMsgs = append(w.playerMsgs, PlayerMessage{
		Listener: listener.Name(), Text: text, Kind: kind,
	})
}

// DrainSpeech returns all recorded speech and clears the record.
func (w *World) DrainSpeech() []Utterance {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.said
	w.said = nil
	return out
}

// DrainReplies returns all recorded quick replies and clears the record.
func (w *World) DrainReplies() []OfferedReply {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.replies
	w.replies = nil
	return out
}

// PlayerMessages returns all recorded utterance rewrites.
func (w *World) PlayerMessages() []PlayerMessage {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]PlayerMessage(nil), w.playerMsgs...)
}

// --- Inventory ---

func (w *World) CountItem(p Participant, name string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.items[p.Name()][name]
}

func (w *World) TotalMoney(p Participant) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.money[p.Name()]
}

func (w *World) HasArchetype(p Participant, arch string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.archetypes[p.Name()][arch]
}

// GiveItem copies qty of the named item from the speaker's stock to the
// receiver. The stock entry is a template and is not consumed.
func (w *World) GiveItem(from, to Participant, name string, qty int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.items[from.Name()][name] == 0 && !w.containerHolds(from.Name(), name) {
		return fmt.Errorf("%s has no item %q to give", from.Name(), name)
	}
	w.addItem(to.Name(), name, qty)
	return nil
}

func (w *World) GiveContents(from, to Participant, container string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	contents, ok := w.containers[from.Name()][container]
	if !ok {
		return fmt.Errorf("%s has no container %q", from.Name(), container)
	}
	for name, qty := range contents {
		if qty < 1 {
			qty = 1
		}
		w.addItem(to.Name(), name, qty)
	}
	return nil
}

func (w *World) TakeItem(p Participant, name string, qty int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	held := w.items[p.Name()][name]
	if held == 0 {
		return fmt.Errorf("%s holds no item %q", p.Name(), name)
	}
	if qty == 0 || qty >= held {
		if qty != 0 && qty > held {
			return fmt.Errorf("%s holds %d of %q, cannot take %d", p.Name(), held, name, qty)
		}
		delete(w.items[p.Name()], name)
		return nil
	}
	w.items[p.Name()][name] = held - qty
	return nil
}

func (w *World) GiveMoney(p Participant, amount int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.money[p.Name()] += amount
	return nil
}

func (w *World) PayMoney(p Participant, amount int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.money[p.Name()] < amount {
		return fmt.Errorf("%s cannot pay %d, holds %d", p.Name(), amount, w.money[p.Name()])
	}
	w.money[p.Name()] -= amount
	return nil
}

// SetItem sets the participant's held count of the named item.
func (w *World) SetItem(p Participant, name string, qty int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.addItemSet(p.Name(), name, qty)
}

// SetContainer fills a named container held by the participant.
func (w *World) SetContainer(p Participant, container string, contents map[string]int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.containers[p.Name()] == nil {
		w.containers[p.Name()] = make(map[string]map[string]int)
	}
	c := make(map[string]int, len(contents))
	for k, v := range contents {
		c[k] = v
	}
	w.containers[p.Name()][container] = c
}

// SetMoney sets the participant's currency total.
func (w *World) SetMoney(p Participant, amount int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.money[p.Name()] = amount
}

// SetArchetype marks the participant as holding an item of the given archetype.
func (w *World) SetArchetype(p Participant, arch string, held bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.archetypes[p.Name()] == nil {
		w.archetypes[p.Name()] = make(map[string]bool)
	}
	w.archetypes[p.Name()][arch] = held
}

func (w *World) addItem(owner, name string, qty int) {
	if w.items[owner] == nil {
		w.items[owner] = make(map[string]int)
	}
	w.items[owner][name] += qty
}

func (w *World) addItemSet(owner, name string, qty int) {
	if w.items[owner] == nil {
		w.items[owner] = make(map[string]int)
	}
	if qty == 0 {
		delete(w.items[owner], name)
		return
	}
	w.items[owner][name] = qty
}

func (w *World) containerHolds(owner, name string) bool {
	for _, contents := range w.containers[owner] {
		if contents[name] > 0 {
			return true
		}
	}
	return false
}

// --- Quests ---

func (w *World) Stage(p Participant, quest string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.quests[p.Name()][quest]
}

func (w *World) SetStage(p Participant, quest string, stage int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	current := w.quests[p.Name()][quest]
	if stage <= current {
		return fmt.Errorf("quest %q stage %d not after current stage %d", quest, stage, current)
	}
	if w.quests[p.Name()] == nil {
		w.quests[p.Name()] = make(map[string]int)
	}
	w.quests[p.Name()][quest] = stage
	return nil
}

func (w *World) Completed(p Participant, quest string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.completed[p.Name()][quest]
}

// MarkCompleted records that the participant has finished the quest.
func (w *World) MarkCompleted(p Participant, quest string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.completed[p.Name()] == nil {
		w.completed[p.Name()] = make(map[string]bool)
	}
	w.completed[p.Name()][quest] = true
}

// --- Knowledge ---

func (w *World) Known(p Participant, code string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.knowledge[p.Name()][code]
}

func (w *World) Grant(p Participant, code string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.knowledge[p.Name()] == nil {
		w.knowledge[p.Name()] = make(map[string]bool)
	}
	w.knowledge[p.Name()][code] = true
	return nil
}

// --- Clock ---

func (w *World) Now() GameTime {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.now
}

// SetTime sets the world's current game time.
func (w *World) SetTime(t GameTime) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = t
}

// --- Connections ---

func (w *World) Trigger(n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connections = append(w.connections, n)
	return nil
}

// TriggeredConnections returns every connection number fired so far.
func (w *World) TriggeredConnections() []int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]int(nil), w.connections...)
}

// --- Animator ---

func (w *World) Busy(p Participant) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.animating[p.Name()]
}

func (w *World) Run(p Participant, path, animation string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.animations = append(w.animations, path+":"+animation)
	return nil
}

// SetAnimating marks the participant as mid-animation (speech-blocked).
func (w *World) SetAnimating(p Participant, busy bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.animating[p.Name()] = busy
}

// Animations returns every animation run so far as "path:clip" strings.
func (w *World) Animations() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.animations...)
}
