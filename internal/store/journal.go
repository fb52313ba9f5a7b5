package store

import (
	"context"
	"time"

	"github.com/DoyleJ11/take5-client/internal/engine"
	"go.uber.org/zap"
)

const (
	flushEvery    = time.Second
	maxBatch      = 32
	writeDeadline = 5 * time.Second
)

// PlayWriter is the persistence side of the journal. *DB implements it.
type PlayWriter interface {
	WritePlays(ctx context.Context, recs []PlayRecord) error
}

// Journal batches play records off the controller goroutine. Record never
// blocks: when the buffer is full the record is dropped with a warning.
type Journal struct {
	in     chan PlayRecord
	w      PlayWriter
	log    *zap.Logger
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func NewJournal(parent context.Context, w PlayWriter, buffer int, log *zap.Logger) *Journal {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	j := &Journal{
		in:     make(chan PlayRecord, buffer),
		w:      w,
		log:    log.Named("journal"),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	go j.loop()
	return j
}

func (j *Journal) Record(roomID string, ev engine.PlayEvent) {
	rec := PlayRecord{
		RoomID:     roomID,
		PlayerID:   ev.PlayerID,
		PlayerName: ev.PlayerName,
		CardValue:  ev.CardValue,
		Row:        ev.Row,
	}
	select {
	case j.in <- rec:
	default:
		j.log.Warn("journal full, play dropped", zap.String("room", roomID), zap.Int("card", ev.CardValue))
	}
}

// Close stops the loop after flushing what is already buffered.
func (j *Journal) Close() {
	j.cancel()
	<-j.done
}

func (j *Journal) loop() {
	defer close(j.done)
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	var batch []PlayRecord
	for {
		select {
		case <-j.ctx.Done():
			for {
				select {
				case rec := <-j.in:
					batch = append(batch, rec)
				default:
					j.flush(batch)
					return
				}
			}

		case rec := <-j.in:
			batch = append(batch, rec)
			if len(batch) >= maxBatch {
				j.flush(batch)
				batch = nil
			}

		case <-ticker.C:
			j.flush(batch)
			batch = nil
		}
	}
}

func (j *Journal) flush(batch []PlayRecord) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeDeadline)
	defer cancel()
	if err := j.w.WritePlays(ctx, batch); err != nil {
		j.log.Warn("write plays", zap.Int("count", len(batch)), zap.Error(err))
	}
}
