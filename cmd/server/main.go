package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/doodle-relay/internal/config"
	"github.com/palemoky/doodle-relay/internal/logger"
	"github.com/palemoky/doodle-relay/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Warn("加载配置文件失败，使用默认配置")
		cfg = config.Default()
		if err := config.ApplyEnv(cfg); err != nil {
			logrus.WithError(err).Fatal("读取环境变量失败")
		}
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("配置无效")
	}

	if err := logger.Init(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}); err != nil {
		logrus.WithError(err).Fatal("初始化日志失败")
	}
	defer logger.Close()

	// 创建服务器
	srv, err := server.NewServer(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("创建服务器失败")
	}

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sig := <-quit
		logrus.WithField("signal", sig.String()).Info("正在关闭服务器...")
		srv.GracefulShutdown(cfg.Game.ShutdownTimeoutDuration())
	}()

	logrus.Info("🎨 Doodle Relay 服务器启动中...")
	if err := srv.Start(); err != nil {
		logrus.WithError(err).Fatal("服务器启动失败")
	}
	// Start returns as soon as the listener stops; teardown is still running.
	<-stopped
}
