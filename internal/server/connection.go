package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/doodle-relay/internal/logger"
	"github.com/palemoky/doodle-relay/internal/server/auth"
	"github.com/palemoky/doodle-relay/internal/server/core"
)

// Websocket close codes for rejected credentials.
const (
	CloseNoToken      = 4001
	CloseInvalidToken = 4002
)

// handleWebSocket 处理 WebSocket 连接. The request goroutine runs the read
// loop, so the connection slot is held until the client goes away.
func (s *Server) handleWebSocket(c *gin.Context) {
	r := c.Request
	clientIP := core.GetClientIP(r)
	log := logrus.WithField("ip", clientIP)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		log.Info("🔧 维护模式，拒绝新连接")
		c.String(http.StatusServiceUnavailable, "Server is under maintenance, please try again later")
		return
	}

	// 连接数限制检查
	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	default:
		log.Warnf("🚫 达到最大连接数限制 (%d)", s.maxConnections)
		c.String(http.StatusServiceUnavailable, "Server Full")
		return
	}

	// 来源验证
	if !s.originChecker.Check(r) {
		log.WithField("origin", r.Header.Get("Origin")).Warn("🚫 来源验证失败")
		c.String(http.StatusForbidden, "Origin not allowed")
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, r, nil)
	if err != nil {
		log.WithError(err).Warn("WebSocket 升级失败")
		return
	}

	// 身份验证
	identity, err := s.verifier.Verify(c.Query(s.config.Auth.TokenParam))
	if err != nil {
		code, reason := CloseInvalidToken, "Invalid token"
		if errors.Is(err, auth.ErrMissingToken) {
			code, reason = CloseNoToken, "No token"
		}
		log.WithError(err).Info("🔑 身份验证失败")
		rejectConn(conn, code, reason)
		return
	}

	client := NewClient(s, conn, identity)
	client.IP = clientIP
	if !s.registerClient(client) {
		client.cancel()
		rejectConn(conn, websocket.CloseGoingAway, "Server shutting down")
		return
	}
	defer s.sessions.Done()

	log.WithFields(logrus.Fields{"player": client.ID, "name": client.Name}).Info("✅ 玩家已连接")

	go client.WritePump()
	client.ReadPump()
}

// rejectConn closes conn with code before any game state is touched.
func rejectConn(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(writeWait)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Online      int  `json:"online"`
	Rooms       int  `json:"rooms"`
	ActiveGames int  `json:"activeGames"`
	Maintenance bool `json:"maintenance"`
}

// handleStats 服务器统计
func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Stats())
}

// Stats 当前统计
func (s *Server) Stats() StatsResponse {
	return StatsResponse{
		Online:      s.GetOnlineCount(),
		Rooms:       s.registry.Count(),
		ActiveGames: s.registry.ActiveGames(),
		Maintenance: s.IsMaintenanceMode(),
	}
}

// handleRoomSnapshot 返回 Redis 中保存的房间快照
func (s *Server) handleRoomSnapshot(c *gin.Context) {
	snap, err := s.redisStore.LoadSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		logger.WithRoom(c.Param("id")).WithError(err).Error("读取房间快照失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot unavailable"})
		return
	}
	if snap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// registerClient 注册客户端. It refuses once Shutdown has started; on
// success the caller owns one count of s.sessions.
func (s *Server) registerClient(client *Client) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if s.draining {
		return false
	}
	s.sessions.Add(1)
	s.clients[client] = struct{}{}
	return true
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		logrus.WithFields(logrus.Fields{"player": client.ID, "name": client.Name}).Info("❌ 玩家已断开")
	}
}
