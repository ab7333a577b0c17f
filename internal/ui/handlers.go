package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/doodle-relay/internal/protocol"
	"github.com/palemoky/doodle-relay/internal/protocol/codec"
)

// handleServerMessage applies one server frame to the model.
func (m *Model) handleServerMessage(msg *protocol.Message) tea.Cmd {
	switch msg.Type {
	case protocol.MsgRoomCreated:
		if p, err := codec.ParsePayload[protocol.RoomCreatedPayload](msg); err == nil {
			m.enterRoom(p.RoomID, p.PlayerID)
			m.addEvent("🏠 房间已创建: " + p.RoomID)
		}

	case protocol.MsgJoinedRoom:
		if p, err := codec.ParsePayload[protocol.JoinedRoomPayload](msg); err == nil {
			m.enterRoom(p.RoomID, p.PlayerID)
			m.addEvent("🚪 已加入房间: " + p.RoomID)
		}

	case protocol.MsgLeftRoom:
		if p, err := codec.ParsePayload[protocol.LeftRoomPayload](msg); err == nil && p.RoomID == m.roomID {
			m.leaveRoom()
			m.addEvent("👋 已离开房间")
		}

	case protocol.MsgPlayerList:
		var roster []protocol.PlayerInfo
		if err := decodeData(msg, &roster); err == nil {
			m.roster = roster
			m.hostID = msg.HostID
		}

	case protocol.MsgPlayerJoined:
		var p protocol.PlayerInfo
		if err := decodeData(msg, &p); err == nil {
			m.addEvent(fmt.Sprintf("➕ %s 加入了房间", displayName(p)))
		}

	case protocol.MsgGamePhase:
		var p protocol.GamePhasePayload
		if err := decodeData(msg, &p); err == nil {
			m.applyPhase(p)
		}

	case protocol.MsgGameContent:
		var p protocol.GameContentPayload
		if err := decodeData(msg, &p); err == nil {
			m.received = append(m.received, p)
			m.addEvent(fmt.Sprintf("📨 收到来自 %s 的%s", m.nameOf(p.From), contentLabel(p.Type)))
		}

	case protocol.MsgError:
		var p protocol.ErrorPayload
		if err := decodeData(msg, &p); err == nil {
			return m.showError("❌ " + p.Msg)
		}
	}
	return nil
}

func (m *Model) applyPhase(p protocol.GamePhasePayload) {
	prev := m.phase
	m.phase = p.Phase
	m.round = p.Round

	switch p.Phase {
	case "prompt":
		if prev == "waiting" || prev == "finished" {
			m.received = nil
		}
		m.input.Placeholder = "写下一个题目"
	case "draw":
		m.input.Placeholder = "描述你的画 (文字或数据)"
	case "guess":
		m.input.Placeholder = "猜猜这是什么"
	case "finished":
		m.input.Placeholder = "游戏结束，/leave 离开房间"
		m.addEvent("🏁 游戏结束")
		return
	}
	m.addEvent(fmt.Sprintf("🔄 第 %d 轮: %s", p.Round, phaseLabel(p.Phase)))
}

// nameOf resolves a player id against the current roster.
func (m *Model) nameOf(id string) string {
	for _, p := range m.roster {
		if p.ID == id {
			return displayName(p)
		}
	}
	return id
}

func displayName(p protocol.PlayerInfo) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func phaseLabel(phase string) string {
	switch phase {
	case "waiting":
		return "等待开始"
	case "prompt":
		return "出题"
	case "draw":
		return "作画"
	case "guess":
		return "猜词"
	case "finished":
		return "已结束"
	default:
		return phase
	}
}

func contentLabel(kind string) string {
	switch kind {
	case "prompt":
		return "题目"
	case "draw":
		return "画作"
	case "guess":
		return "猜测"
	default:
		return "内容"
	}
}
