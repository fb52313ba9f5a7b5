package store

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/DoyleJ11/take5-client/internal/engine"
	"github.com/DoyleJ11/take5-client/internal/session"
	"github.com/DoyleJ11/take5-client/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	mu      sync.Mutex
	batches [][]PlayRecord
	block   chan struct{}
	err     error
}

func (m *memWriter) WritePlays(_ context.Context, recs []PlayRecord) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, append([]PlayRecord(nil), recs...))
	return m.err
}

func (m *memWriter) all() []PlayRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PlayRecord
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func TestJournal_FlushesOnClose(t *testing.T) {
	w := &memWriter{}
	j := NewJournal(context.Background(), w, 8, nil)

	j.Record("r1", engine.PlayEvent{PlayerID: "a", PlayerName: "Ann", CardValue: 12, Row: 2})
	j.Record("r1", engine.PlayEvent{PlayerID: "b", PlayerName: "Bob", CardValue: 40, Row: 0})
	j.Close()

	got := w.all()
	require.Len(t, got, 2)
	assert.Equal(t, PlayRecord{RoomID: "r1", PlayerID: "a", PlayerName: "Ann", CardValue: 12, Row: 2}, got[0])
	assert.Equal(t, 40, got[1].CardValue)
}

func TestJournal_DropsWhenFull(t *testing.T) {
	w := &memWriter{block: make(chan struct{})}
	j := NewJournal(context.Background(), w, 1, nil)

	// Fill the batch so the loop blocks inside the writer.
	for i := 0; i < maxBatch; i++ {
		j.Record("r1", engine.PlayEvent{CardValue: i + 1})
	}
	// Buffer holds at most one more; the rest are dropped without blocking.
	for i := 0; i < 10; i++ {
		j.Record("r1", engine.PlayEvent{CardValue: 100 + i})
	}
	close(w.block)
	j.Close()

	assert.Less(t, len(w.all()), maxBatch+10)
}

func TestJournal_WriteErrorIsNotFatal(t *testing.T) {
	w := &memWriter{err: errors.New("db down")}
	j := NewJournal(context.Background(), w, 4, nil)
	j.Record("r1", engine.PlayEvent{CardValue: 7})
	j.Close()
	assert.Len(t, w.all(), 1)
}

// Needs a live database: TAKE5_TEST_DATABASE_URL=postgres://...
func TestIdentityStore_RoundTrip(t *testing.T) {
	dsn := os.Getenv("TAKE5_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TAKE5_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	s := NewIdentityStore(db, "test-"+t.Name())
	_, err = s.Load(ctx)
	if err != nil {
		require.ErrorIs(t, err, session.ErrNoIdentity)
	}

	require.NoError(t, s.Save(ctx, types.Identity{ID: "user_1", Name: "ann"}))
	require.NoError(t, s.Save(ctx, types.Identity{ID: "user_2", Name: "ann"}))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Identity{ID: "user_2", Name: "ann"}, got)

	require.NoError(t, db.WritePlays(ctx, []PlayRecord{{RoomID: "r1", CardValue: 5}}))
}
