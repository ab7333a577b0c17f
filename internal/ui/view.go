package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/doodle-relay/internal/protocol"
)

func decodeData(msg *protocol.Message, v any) error {
	if len(msg.Data) == 0 {
		return errors.New("empty data")
	}
	return json.Unmarshal(msg.Data, v)
}

// View renders the model.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.fatal != "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, ErrorStyle.Render(m.fatal))
	}
	if !m.connected {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, "正在连接服务器...")
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle("🎨 Doodle Relay"))
	sb.WriteString("\n\n")

	if m.roomID == "" {
		sb.WriteString(m.lobbyView())
	} else {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.rosterView(), " ", m.contentView()))
	}

	if len(m.events) > 0 {
		sb.WriteString("\n")
		sb.WriteString(DimStyle.Render(strings.Join(m.events, "\n")))
	}
	if m.error != "" {
		sb.WriteString("\n")
		sb.WriteString(ErrorStyle.Render(m.error))
	}
	sb.WriteString(PromptStyle.Render("\n" + m.input.View()))

	return DocStyle.Render(sb.String())
}

func (m *Model) lobbyView() string {
	lines := []string{
		fmt.Sprintf("你好, %s", m.name),
		"",
		"/create        创建房间",
		"/join <房间号> 加入房间",
		"/quit          退出",
	}
	return BoxStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) rosterView() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "房间 %s\n", TruncateName(m.roomID, 13))
	fmt.Fprintf(&sb, "玩家 %d\n\n", len(m.roster))
	for _, p := range m.roster {
		line := TruncateName(displayName(p), 12)
		if p.ID == m.hostID {
			line = HostIcon + " " + line
		} else {
			line = "   " + line
		}
		if p.ID == m.playerID {
			line += YouMark
		}
		sb.WriteString(line + "\n")
	}
	return BoxStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

func (m *Model) contentView() string {
	var sb strings.Builder

	status := phaseLabel(m.phase)
	if m.round > 0 {
		status = fmt.Sprintf("第 %d 轮 · %s", m.round, status)
	}
	sb.WriteString(PhaseStyle.Render(status))
	sb.WriteString("\n\n")

	switch {
	case m.phase == "waiting" && m.isHost():
		sb.WriteString("人齐后输入 /start 开始")
	case m.phase == "waiting":
		sb.WriteString("等待房主开始游戏...")
	case len(m.received) == 0:
		sb.WriteString(DimStyle.Render("还没有收到内容"))
	default:
		if m.phase != "finished" {
			last := m.received[len(m.received)-1]
			fmt.Fprintf(&sb, "%s 传给你的%s:\n", m.nameOf(last.From), contentLabel(last.Type))
			sb.WriteString(ContentStyle.Render(last.Content))
			break
		}
		sb.WriteString("你收到的全部内容:\n")
		for _, c := range m.received {
			fmt.Fprintf(&sb, "%s %s: %s\n", contentLabel(c.Type), m.nameOf(c.From), ContentStyle.Render(c.Content))
		}
	}
	return BoxStyle.Render(strings.TrimRight(sb.String(), "\n"))
}
