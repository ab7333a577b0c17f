package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/doodle-relay/internal/config"
	"github.com/palemoky/doodle-relay/internal/game/room"
	"github.com/palemoky/doodle-relay/internal/server/auth"
	"github.com/palemoky/doodle-relay/internal/server/core"
	"github.com/palemoky/doodle-relay/internal/server/handler"
	"github.com/palemoky/doodle-relay/internal/server/storage"
)

// Server WebSocket 服务器
type Server struct {
	config     *config.Config
	redis      *redis.Client
	redisStore *storage.RedisStore

	registry    *room.Registry
	persister   *room.Persister
	membership  *room.Membership
	coordinator *room.Coordinator
	handler     *handler.Handler

	clients   map[*Client]struct{}
	clientsMu sync.RWMutex
	sessions  sync.WaitGroup // 运行中的读循环，含断线处理
	draining  bool           // Shutdown 已开始，不再登记新连接

	// 安全组件
	verifier      *auth.Verifier
	originChecker *core.OriginChecker
	upgrader      websocket.Upgrader

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	engine     *gin.Engine
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化 Redis 客户端
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	s := newServer(cfg, rdb)
	s.purgeStaleSnapshots(ctx)
	return s, nil
}

func newServer(cfg *config.Config, rdb *redis.Client) *Server {
	s := &Server{
		config:         cfg,
		redis:          rdb,
		redisStore:     storage.NewRedisStore(rdb),
		registry:       room.NewRegistry(),
		clients:        make(map[*Client]struct{}),
		verifier:       auth.NewVerifier(cfg.Auth.Secret),
		originChecker:  core.NewOriginChecker(cfg.Security.AllowedOrigins),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 来源在升级前已由 originChecker 验证
		CheckOrigin: func(*http.Request) bool { return true },
	}

	s.persister = room.NewPersister(s.redisStore)
	s.membership = room.NewMembership(s.registry, s.persister)
	s.coordinator = room.NewCoordinator(s.registry, s.persister)
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:      s,
		Membership:  s.membership,
		Coordinator: s.coordinator,
	})

	s.engine = s.newRouter()

	logrus.WithFields(logrus.Fields{
		"max_connections": cfg.Server.MaxConnections,
		"message_limit":   cfg.Security.MessageLimit.MaxPerSecond,
		"origins":         cfg.Security.AllowedOrigins,
	}).Info("🔒 安全配置")
	return s
}

func (s *Server) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/ws", s.handleWebSocket)
	r.GET("/health", s.handleHealth)
	r.GET("/stats", s.handleStats)
	r.GET("/rooms/:id", s.handleRoomSnapshot)
	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start 启动服务器, blocking until the listener stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()

	// 启动监控 goroutine
	go s.monitorStats(s.ctx)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		IdleTimeout:       60 * time.Second,
	}

	logrus.Infof("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
