package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/DoyleJ11/take5-client/internal/engine"
	"github.com/DoyleJ11/take5-client/pkg/types"
	"github.com/google/uuid"
)

var ErrNoIdentity = errors.New("no stored identity")
var ErrEmptyName = errors.New("display name required")

// IdentityStore persists the stable (id, name) pair between connections.
type IdentityStore interface {
	Load(ctx context.Context) (types.Identity, error)
	Save(ctx context.Context, id types.Identity) error
}

// Context is the client's single session value. It is owned by the room
// controller and handed explicitly to the engine components.
type Context struct {
	Identity types.Identity
	RoomID   string

	Lock   engine.TurnLock
	Prev   *engine.Snapshot
	Origin engine.OneShot

	State     *types.StatePayload
	Stats     []types.PlayerStat
	Countdown int

	GameOverShown  bool
	LastPendingKey string
}

func New(id types.Identity) *Context {
	return &Context{Identity: id, Stats: []types.PlayerStat{}}
}

// Restore loads the stored identity, minting a provisional id when none exists
// yet. The server may replace the id later.
func Restore(ctx context.Context, store IdentityStore, name string) (*Context, error) {
	id, err := store.Load(ctx)
	if err != nil && !errors.Is(err, ErrNoIdentity) {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if n := strings.TrimSpace(name); n != "" {
		id.Name = n
	}
	if id.ID == "" {
		id.ID = ProvisionalID()
	}
	return New(id), nil
}

func ProvisionalID() string { return "tmp_" + uuid.NewString() }

// SetName validates and stores a display name before creating or joining.
func (c *Context) SetName(name string) error {
	n := strings.TrimSpace(name)
	if n == "" {
		return ErrEmptyName
	}
	c.Identity.Name = n
	return nil
}

// IsOwner reports whether the local player owns the current room.
func (c *Context) IsOwner() bool {
	return c.State != nil && c.State.PublicState.OwnerID == c.Identity.ID
}

// Me returns the local player's public entry in the current state.
func (c *Context) Me() (types.PlayerPublic, bool) {
	if c.State == nil {
		return types.PlayerPublic{}, false
	}
	p, ok := c.State.PublicState.Players[c.Identity.ID]
	return p, ok
}

// ResetRoom forgets everything scoped to the current room.
func (c *Context) ResetRoom() {
	c.RoomID = ""
	c.Lock = engine.TurnLock{}
	c.Prev = nil
	c.Origin.Clear()
	c.State = nil
	c.Stats = []types.PlayerStat{}
	c.Countdown = 0
	c.GameOverShown = false
	c.LastPendingKey = ""
}

// MemoryStore keeps the identity for the lifetime of the process, the
// equivalent of a browser tab's session storage.
type MemoryStore struct {
	mu sync.Mutex
	id *types.Identity
}

func (m *MemoryStore) Load(ctx context.Context) (types.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.id == nil {
		return types.Identity{}, ErrNoIdentity
	}
	return *m.id, nil
}

func (m *MemoryStore) Save(ctx context.Context, id types.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = &id
	return nil
}
