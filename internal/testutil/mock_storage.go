//go:build !production

package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/doodle-relay/internal/types"
)

// MockRoomStore types.RoomStore 的 mock
type MockRoomStore struct {
	mock.Mock
}

func (m *MockRoomStore) LookupRoom(ctx context.Context, id string) (*types.RoomRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RoomRecord), args.Error(1)
}

func (m *MockRoomStore) SaveRoom(ctx context.Context, rec *types.RoomRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRoomStore) UpdateRoomStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockRoomStore) UpdateMemberCount(ctx context.Context, id string, count int) error {
	args := m.Called(ctx, id, count)
	return args.Error(0)
}

func (m *MockRoomStore) SaveSnapshot(ctx context.Context, snap *types.RoomSnapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func (m *MockRoomStore) DeleteSnapshot(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MemoryRoomStore is an in-memory types.RoomStore.
type MemoryRoomStore struct {
	mu        sync.Mutex
	records   map[string]types.RoomRecord
	snapshots map[string]types.RoomSnapshot
}

// NewMemoryRoomStore 创建内存存储
func NewMemoryRoomStore() *MemoryRoomStore {
	return &MemoryRoomStore{
		records:   make(map[string]types.RoomRecord),
		snapshots: make(map[string]types.RoomSnapshot),
	}
}

// Put seeds a record, as if the room had been created elsewhere.
func (s *MemoryRoomStore) Put(rec types.RoomRecord) {
	s.mu.Lock()
	s.records[rec.ID] = rec
	s.mu.Unlock()
}

// Record returns a copy of the stored record.
func (s *MemoryRoomStore) Record(id string) (types.RoomRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok
}

// Snapshot returns a copy of the stored snapshot.
func (s *MemoryRoomStore) Snapshot(id string) (types.RoomSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[id]
	return snap, ok
}

func (s *MemoryRoomStore) LookupRoom(_ context.Context, id string) (*types.RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, types.ErrRecordNotFound
	}
	return &rec, nil
}

func (s *MemoryRoomStore) SaveRoom(_ context.Context, rec *types.RoomRecord) error {
	s.Put(*rec)
	return nil
}

func (s *MemoryRoomStore) UpdateRoomStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return types.ErrRecordNotFound
	}
	rec.Status = status
	s.records[id] = rec
	return nil
}

func (s *MemoryRoomStore) UpdateMemberCount(_ context.Context, id string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return types.ErrRecordNotFound
	}
	rec.MemberCount = count
	s.records[id] = rec
	return nil
}

func (s *MemoryRoomStore) SaveSnapshot(_ context.Context, snap *types.RoomSnapshot) error {
	s.mu.Lock()
	s.snapshots[snap.ID] = *snap
	s.mu.Unlock()
	return nil
}

func (s *MemoryRoomStore) DeleteSnapshot(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.snapshots, id)
	s.mu.Unlock()
	return nil
}
