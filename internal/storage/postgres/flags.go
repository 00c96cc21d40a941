package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Owner kinds for flag rows. Player flags follow the character across maps;
// NPC flags belong to the speaking object.
const (
	OwnerPlayer = "player"
	OwnerNPC    = "npc"
)

// FlagStore persists participant key/value slots in the dialog_flags table.
// Each row is one slot; the dialogue engine packs a whole namespace's flags
// into a single slot value, so rows stay few.
type FlagStore struct {
	db *pgxpool.Pool
}

// NewFlagStore creates a FlagStore backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewFlagStore(db *pgxpool.Pool) *FlagStore {
	return &FlagStore{db: db}
}

// Get returns the stored value for the owner's key, or "" when unset.
//
// Precondition: ownerKind must be OwnerPlayer or OwnerNPC.
func (s *FlagStore) Get(ctx context.Context, ownerKind, ownerName, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx, `
		SELECT value FROM dialog_flags
		WHERE owner_kind = $1 AND owner_name = $2 AND key = $3`,
		ownerKind, ownerName, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading flag: %w", err)
	}
	return value, nil
}

// Set stores the value under the owner's key, overwriting any previous value.
func (s *FlagStore) Set(ctx context.Context, ownerKind, ownerName, key, value string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO dialog_flags (owner_kind, owner_name, key, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_kind, owner_name, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		ownerKind, ownerName, key, value,
	)
	if err != nil {
		return fmt.Errorf("writing flag: %w", err)
	}
	return nil
}

// DeleteOwner removes every slot belonging to the owner. NPC slots are
// dropped this way when the owning map resets.
//
// Postcondition: Returns the number of rows removed.
func (s *FlagStore) DeleteOwner(ctx context.Context, ownerKind, ownerName string) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM dialog_flags WHERE owner_kind = $1 AND owner_name = $2`,
		ownerKind, ownerName,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting flags: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StoredParticipant adapts a FlagStore row set to the engine's Participant
// interface. ReadKey and WriteKey are synchronous lookups against the
// store; the participant is built per conversation turn with that turn's
// context.
type StoredParticipant struct {
	store  *FlagStore
	ctx    context.Context
	kind   string
	name   string
	level  int
	logger *zap.Logger
}

// NewStoredParticipant creates a database-backed participant.
//
// Precondition: store must be non-nil; kind must be OwnerPlayer or OwnerNPC.
func NewStoredParticipant(ctx context.Context, store *FlagStore, kind, name string, level int, logger *zap.Logger) *StoredParticipant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoredParticipant{
		store:  store,
		ctx:    ctx,
		kind:   kind,
		name:   name,
		level:  level,
		logger: logger,
	}
}

// Name returns the participant's display name.
func (p *StoredParticipant) Name() string { return p.name }

// Level returns the participant's experience level.
func (p *StoredParticipant) Level() int { return p.level }

// ReadKey returns the stored value for key, or "" when unset or on a
// storage failure. Failures are logged; the engine treats "" as unset.
func (p *StoredParticipant) ReadKey(key string) string {
	value, err := p.store.Get(p.ctx, p.kind, p.name, key)
	if err != nil {
		p.logger.Error("failed to read participant flag",
			zap.String("owner", p.name),
			zap.String("key", key),
			zap.Error(err),
		)
		return ""
	}
	return value
}

// WriteKey stores value under key, overwriting any previous value.
func (p *StoredParticipant) WriteKey(key, value string) error {
	return p.store.Set(p.ctx, p.kind, p.name, key, value)
}
