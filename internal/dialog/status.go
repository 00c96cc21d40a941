package dialog

import (
	"strings"

	"github.com/cory-johannsen/dialogue/internal/host"
)

// Flags for one namespace share a single storage slot on the owning
// participant, encoded as "key1:value1;key2:value2". Colons and semicolons
// therefore cannot appear inside flag names or values; this is a documented
// limitation of the wire format. Decoding and encoding are confined to this
// file so the rest of the engine works with ordered pairs.

// flagPair is one decoded flag.
type flagPair struct {
	Key   string
	Value string
}

// decodeFlags parses the wire encoding into ordered pairs. An empty string
// decodes to nil.
func decodeFlags(raw string) []flagPair {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	pairs := make([]flagPair, 0, len(parts))
	for _, part := range parts {
		kv := strings.SplitN(part, ":", 2)
		p := flagPair{Key: kv[0]}
		if len(kv) == 2 {
			p.Value = kv[1]
		}
		pairs = append(pairs, p)
	}
	return pairs
}

// encodeFlags renders ordered pairs back to the wire encoding.
func encodeFlags(pairs []flagPair) string {
	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(p.Key)
		b.WriteByte(':')
		b.WriteString(p.Value)
	}
	return b.String()
}

// unsetFlagValue is returned when a flag was never written.
const unsetFlagValue = "0"

// skipFlagValue is the sentinel meaning "leave this flag unchanged".
const skipFlagValue = "*"

// statusStore is one flag space: a (storage owner, storage key) pair. The
// storage key already folds in the namespace, and for speaker-scoped
// spaces the listener's name.
type statusStore struct {
	owner      host.Participant
	storageKey string
}

// Get returns the flag value, or "0" when the flag was never set.
func (s statusStore) Get(key string) string {
	for _, p := range decodeFlags(s.owner.ReadKey(s.storageKey)) {
		if p.Key == key {
			return p.Value
		}
	}
	return unsetFlagValue
}

// Set writes the flag, preserving the order of existing flags. Setting the
// value "*" is a no-op.
func (s statusStore) Set(key, value string) error {
	if value == skipFlagValue {
		return nil
	}
	pairs := decodeFlags(s.owner.ReadKey(s.storageKey))
	found := false
	for i := range pairs {
		if pairs[i].Key == key {
			pairs[i].Value = value
			found = true
		}
	}
	if !found {
		pairs = append(pairs, flagPair{Key: key, Value: value})
	}
	return s.owner.WriteKey(s.storageKey, encodeFlags(pairs))
}
