package server

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/doodle-relay/internal/logger"
	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/protocol/codec"
	"github.com/palemoky/doodle-relay/internal/server/storage"
)

const (
	statsInterval = 30 * time.Second
	drainTimeout  = 5 * time.Second
)

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		stats := s.Stats()
		logrus.WithFields(logrus.Fields{
			"online":       stats.Online,
			"rooms":        stats.Rooms,
			"active_games": stats.ActiveGames,
			"goroutines":   runtime.NumGoroutine(),
			"conns":        len(s.semaphore),
			"max_conns":    s.maxConnections,
			"mem_mb":       float64(m.Alloc) / 1024 / 1024,
		}).Info("📊 [监控]")
	}
}

// EnterMaintenanceMode 进入维护模式
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	// 通知在线用户
	s.Broadcast(codec.NewErrorMessage(protocol.ErrCodeServerMaintenance))

	logrus.Info("🔧 进入维护模式：停止新连接和房间创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// purgeStaleSnapshots drops live snapshots left by a previous process.
// Rooms only live in memory, so none of them can be resumed; their records
// are reset to empty waiting rooms so they can be joined again.
func (s *Server) purgeStaleSnapshots(ctx context.Context) {
	ids, err := s.redisStore.LiveRoomIDs(ctx)
	if err != nil {
		logrus.WithError(err).Warn("⚠️ 读取残留房间快照失败")
		return
	}
	for _, id := range ids {
		if s.registry.Get(id) != nil {
			continue
		}
		if err := s.redisStore.ResetRoom(ctx, id); err != nil && !errors.Is(err, storage.ErrRoomNotFound) {
			logger.WithRoom(id).WithError(err).Warn("⚠️ 重置残留房间失败")
		}
		if err := s.redisStore.DeleteSnapshot(ctx, id); err != nil {
			logger.WithRoom(id).WithError(err).Warn("⚠️ 删除残留房间快照失败")
		}
	}
	if len(ids) > 0 {
		logrus.WithField("count", len(ids)).Info("🧹 已清理残留房间快照")
	}
}

// GracefulShutdown 优雅关闭服务器
func (s *Server) GracefulShutdown(timeout time.Duration) {
	// 1. 进入维护模式
	s.EnterMaintenanceMode()

	// 2. 等待游戏结束
	s.waitForGames(timeout)

	// 3. 关闭服务器
	s.Shutdown()
}

// waitForGames blocks until no room has a game in progress or timeout passes.
func (s *Server) waitForGames(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.config.Game.ShutdownCheckIntervalDuration())
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		activeGames := s.registry.ActiveGames()
		if activeGames == 0 {
			logrus.Infof("✅ 所有游戏已结束，将在 %ds 后关闭服务器", s.config.Game.RoomCleanupDelay)
			return
		}
		logrus.Infof("⏳ 等待 %d 局游戏结束...", activeGames)
		<-ticker.C
	}

	if activeGames := s.registry.ActiveGames(); activeGames > 0 {
		logrus.Warnf("⚠️ 超时，仍有 %d 局游戏进行中，强制关闭", activeGames)
	}
}

// waitSessions reports whether every read loop returned within timeout.
func (s *Server) waitSessions(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Shutdown 关闭服务器
func (s *Server) Shutdown() {
	time.Sleep(s.config.Game.RoomCleanupDelayDuration())

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.httpServer.Shutdown(ctx)
		cancel()
	}

	// 关闭所有客户端连接
	s.clientsMu.Lock()
	s.draining = true
	for client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	// 等待读循环完成断线处理，它们还会写入持久化队列
	if !s.waitSessions(drainTimeout) {
		logrus.Warn("⚠️ 等待连接退出超时")
	}

	s.cancel()
	// 写完排队的持久化任务后再关闭 Redis
	s.persister.Close()
	_ = s.redis.Close()

	logrus.Info("服务器已关闭")
}
