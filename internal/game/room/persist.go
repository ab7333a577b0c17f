package room

import (
	"context"
	"sync"
	"time"

	"github.com/palemoky/doodle-relay/internal/logger"
	"github.com/palemoky/doodle-relay/internal/types"
)

const (
	persistQueueSize = 256
	persistTimeout   = 3 * time.Second
)

type persistJob struct {
	roomID string
	op     string
	run    func(ctx context.Context) error
}

// Persister mirrors room changes into a RoomStore.
//
// Writes are queued while the room lock is held and applied by a single
// worker, so the store sees them in the same order the rooms changed.
// The live session never waits on a write; a full queue drops the job.
// A nil *Persister, or one without a store, does nothing.
type Persister struct {
	store types.RoomStore
	jobs  chan persistJob
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewPersister starts the write worker for store.
func NewPersister(store types.RoomStore) *Persister {
	p := &Persister{
		store: store,
		jobs:  make(chan persistJob, persistQueueSize),
		done:  make(chan struct{}),
	}
	if store == nil {
		close(p.done)
		return p
	}
	go p.run()
	return p
}

func (p *Persister) run() {
	defer close(p.done)
	for job := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := job.run(ctx); err != nil {
			logger.WithRoom(job.roomID).WithError(err).Warnf("⚠️ 持久化失败: %s", job.op)
		}
		cancel()
	}
}

// Close drains queued writes and stops the worker. Writes enqueued after
// Close are logged and dropped.
func (p *Persister) Close() {
	if p == nil || p.store == nil {
		return
	}
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()
	<-p.done
}

// Lookup reads the persisted record synchronously.
func (p *Persister) Lookup(ctx context.Context, id string) (*types.RoomRecord, error) {
	if p == nil || p.store == nil {
		return nil, types.ErrRecordNotFound
	}
	return p.store.LookupRoom(ctx, id)
}

func (p *Persister) enqueue(roomID, op string, run func(ctx context.Context) error) {
	if p == nil || p.store == nil {
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		logger.WithRoom(roomID).Warnf("⚠️ 持久化已关闭，丢弃: %s", op)
		return
	}
	select {
	case p.jobs <- persistJob{roomID: roomID, op: op, run: run}:
	default:
		logger.WithRoom(roomID).Warnf("⚠️ 持久化队列已满，丢弃: %s", op)
	}
}

func (p *Persister) saveRoom(rec *types.RoomRecord) {
	p.enqueue(rec.ID, "save room", func(ctx context.Context) error {
		return p.store.SaveRoom(ctx, rec)
	})
}

func (p *Persister) setStatus(id, status string) {
	p.enqueue(id, "status "+status, func(ctx context.Context) error {
		return p.store.UpdateRoomStatus(ctx, id, status)
	})
}

func (p *Persister) setMemberCount(id string, n int) {
	p.enqueue(id, "member count", func(ctx context.Context) error {
		return p.store.UpdateMemberCount(ctx, id, n)
	})
}

func (p *Persister) saveSnapshot(snap *types.RoomSnapshot) {
	p.enqueue(snap.ID, "snapshot", func(ctx context.Context) error {
		return p.store.SaveSnapshot(ctx, snap)
	})
}

func (p *Persister) deleteSnapshot(id string) {
	p.enqueue(id, "delete snapshot", func(ctx context.Context) error {
		return p.store.DeleteSnapshot(ctx, id)
	})
}
