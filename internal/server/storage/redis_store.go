package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/doodle-relay/internal/types"
)

const (
	// Redis key 前缀
	roomKeyPrefix     = "room:"
	snapshotKeyPrefix = "live:"

	// 房间元数据过期时间
	roomExpiration = 24 * time.Hour
	// 实时快照过期时间
	snapshotExpiration = 2 * time.Hour
)

// ErrRoomNotFound is returned when no record exists for a room id.
var ErrRoomNotFound = types.ErrRecordNotFound

// Hash fields of a room record.
const (
	fieldHostID      = "hostId"
	fieldStatus      = "status"
	fieldMemberCount = "memberCount"
	fieldCreatedAt   = "createdAt"
)

// setIfExists updates field/value pairs without creating the hash.
var setIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], unpack(ARGV))
return 1
`)

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ types.RoomStore = (*RedisStore)(nil)

// --- 房间元数据 ---

// LookupRoom 读取房间元数据
func (rs *RedisStore) LookupRoom(ctx context.Context, id string) (*types.RoomRecord, error) {
	data, err := rs.client.HGetAll(ctx, roomKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("读取房间 %s 失败: %w", id, err)
	}
	if len(data) == 0 {
		return nil, ErrRoomNotFound
	}

	rec := &types.RoomRecord{
		ID:     id,
		HostID: data[fieldHostID],
		Status: data[fieldStatus],
	}
	if v := data[fieldMemberCount]; v != "" {
		if rec.MemberCount, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("房间 %s 的 memberCount 无效: %w", id, err)
		}
	}
	if v := data[fieldCreatedAt]; v != "" {
		if rec.CreatedAt, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("房间 %s 的 createdAt 无效: %w", id, err)
		}
	}
	return rec, nil
}

// SaveRoom 写入房间元数据
func (rs *RedisStore) SaveRoom(ctx context.Context, rec *types.RoomRecord) error {
	if rec == nil {
		return nil
	}
	key := roomKeyPrefix + rec.ID
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			fieldHostID:      rec.HostID,
			fieldStatus:      rec.Status,
			fieldMemberCount: rec.MemberCount,
			fieldCreatedAt:   rec.CreatedAt,
		})
		pipe.Expire(ctx, key, roomExpiration)
		return nil
	})
	if err != nil {
		return fmt.Errorf("保存房间 %s 失败: %w", rec.ID, err)
	}
	return nil
}

// UpdateRoomStatus 更新房间状态
func (rs *RedisStore) UpdateRoomStatus(ctx context.Context, id, status string) error {
	return rs.setFields(ctx, id, fieldStatus, status)
}

// UpdateMemberCount 更新房间人数
func (rs *RedisStore) UpdateMemberCount(ctx context.Context, id string, count int) error {
	return rs.setFields(ctx, id, fieldMemberCount, count)
}

// ResetRoom marks a record left behind by a stopped process as an empty
// waiting room.
func (rs *RedisStore) ResetRoom(ctx context.Context, id string) error {
	return rs.setFields(ctx, id, fieldStatus, types.RoomStatusWaiting, fieldMemberCount, 0)
}

func (rs *RedisStore) setFields(ctx context.Context, id string, pairs ...any) error {
	n, err := setIfExists.Run(ctx, rs.client, []string{roomKeyPrefix + id}, pairs...).Int()
	if err != nil {
		return fmt.Errorf("更新房间 %s 失败: %w", id, err)
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// DeleteRoom 删除房间元数据
func (rs *RedisStore) DeleteRoom(ctx context.Context, id string) error {
	return rs.client.Del(ctx, roomKeyPrefix+id).Err()
}

// --- 实时快照 ---

// SaveSnapshot 保存房间快照到 Redis
func (rs *RedisStore) SaveSnapshot(ctx context.Context, snap *types.RoomSnapshot) error {
	if snap == nil {
		return nil
	}

	jsonData, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("序列化房间快照失败: %w", err)
	}

	key := snapshotKeyPrefix + snap.ID
	return rs.client.Set(ctx, key, jsonData, snapshotExpiration).Err()
}

// LoadSnapshot 从 Redis 加载房间快照，不存在时返回 nil
func (rs *RedisStore) LoadSnapshot(ctx context.Context, id string) (*types.RoomSnapshot, error) {
	data, err := rs.client.Get(ctx, snapshotKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snap types.RoomSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("反序列化房间快照失败: %w", err)
	}
	return &snap, nil
}

// DeleteSnapshot 删除房间快照
func (rs *RedisStore) DeleteSnapshot(ctx context.Context, id string) error {
	return rs.client.Del(ctx, snapshotKeyPrefix+id).Err()
}

// LiveRoomIDs 获取所有有快照的房间 ID
func (rs *RedisStore) LiveRoomIDs(ctx context.Context) ([]string, error) {
	keys, err := rs.client.Keys(ctx, snapshotKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(keys))
	for i, key := range keys {
		ids[i] = key[len(snapshotKeyPrefix):]
	}
	return ids, nil
}
