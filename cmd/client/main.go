package main

import (
	"flag"
	"fmt"
	"net/url"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/palemoky/doodle-relay/internal/server/auth"
	"github.com/palemoky/doodle-relay/internal/transport"
	"github.com/palemoky/doodle-relay/internal/ui"
)

func main() {
	serverAddr := flag.String("server", "localhost:3001", "服务器地址")
	token := flag.String("token", "", "身份令牌")
	devSecret := flag.String("dev-secret", "", "本地开发: 用服务器密钥自行签发令牌")
	name := flag.String("name", "player", "显示名称 (仅用于自签令牌)")
	flag.Parse()

	if *token == "" && *devSecret != "" {
		issued, err := auth.NewVerifier(*devSecret).Issue(auth.Identity{
			ID:   uuid.NewString(),
			Name: *name,
		}, 24*time.Hour)
		if err != nil {
			logrus.WithError(err).Fatal("签发令牌失败")
		}
		*token = issued
	}
	if *token == "" {
		logrus.Fatal("需要 -token 或 -dev-secret")
	}

	serverURL := fmt.Sprintf("ws://%s/ws?token=%s", *serverAddr, url.QueryEscape(*token))
	model := ui.NewModel(transport.NewClient(serverURL), *name)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logrus.WithError(err).Fatal("启动客户端时出错")
	}
}
