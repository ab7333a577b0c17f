package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/doodle-relay/internal/protocol"
)

const (
	maxEvents      = 8
	errorDisplayed = 3 * time.Second
	lobbyHint      = "/create 或 /join <房间号>"
)

// Model is the whole client state: one connection, at most one room.
type Model struct {
	conn Conn
	name string

	connected bool
	fatal     string // connection-level failure, shown full screen
	error     string

	playerID string
	roomID   string
	hostID   string
	roster   []protocol.PlayerInfo
	phase    string
	round    int
	received []protocol.GameContentPayload
	events   []string

	input  textinput.Model
	width  int
	height int
}

// NewModel creates the client model. name is only used for display until
// the server reports our id.
func NewModel(conn Conn, name string) *Model {
	ti := textinput.New()
	ti.Placeholder = lobbyHint
	ti.CharLimit = 4096
	ti.Width = 50
	ti.Focus()

	return &Model{
		conn:  conn,
		name:  name,
		input: ti,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.connectToServer(), textinput.Blink)
}

func (m *Model) connectToServer() tea.Cmd {
	return func() tea.Msg {
		if err := m.conn.Connect(context.Background()); err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ConnectedMsg{}
	}
}

func (m *Model) listenForMessages() tea.Cmd {
	return func() tea.Msg {
		msg, err := m.conn.Receive()
		if err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ServerMessage{Msg: msg}
	}
}

func clearErrorAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return ClearErrorMsg{} })
}

// Update handles tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ConnectedMsg:
		m.connected = true
		m.fatal = ""
		cmds = append(cmds, m.listenForMessages())

	case ConnectionErrorMsg:
		m.connected = false
		m.fatal = fmt.Sprintf("与服务器的连接已断开: %v\n\n按 ESC 退出", msg.Err)

	case ServerMessage:
		if cmd := m.handleServerMessage(msg.Msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, m.listenForMessages())

	case ClearErrorMsg:
		m.error = ""

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.conn.Close()
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			m.input.Reset()
			return m, m.runLine(line)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// runLine executes one line typed by the player.
func (m *Model) runLine(line string) tea.Cmd {
	c, err := parseCommand(line)
	if err != nil {
		return m.showError(err.Error())
	}
	if !m.connected && c.kind != cmdQuit && c.kind != cmdNone {
		return m.showError("尚未连接到服务器")
	}

	switch c.kind {
	case cmdNone:
		return nil
	case cmdQuit:
		m.conn.Close()
		return tea.Quit
	case cmdCreate:
		err = m.conn.CreateRoom()
	case cmdJoin:
		err = m.conn.JoinRoom(c.arg)
	case cmdLeave, cmdStart, cmdSubmit:
		if m.roomID == "" {
			return m.showError("你还不在房间里，" + lobbyHint)
		}
		switch c.kind {
		case cmdLeave:
			err = m.conn.LeaveRoom(m.roomID)
		case cmdStart:
			err = m.conn.StartGame(m.roomID)
		default:
			err = m.conn.Submit(m.roomID, c.arg)
			if err == nil {
				m.addEvent("已提交: " + TruncateName(c.arg, 40))
			}
		}
	}
	if err != nil {
		return m.showError(fmt.Sprintf("发送失败: %v", err))
	}
	return nil
}

func (m *Model) showError(text string) tea.Cmd {
	m.error = text
	return clearErrorAfter(errorDisplayed)
}

func (m *Model) addEvent(e string) {
	m.events = append(m.events, e)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

// enterRoom resets room state for a freshly created or joined room.
func (m *Model) enterRoom(roomID, playerID string) {
	m.roomID = roomID
	m.playerID = playerID
	m.hostID = ""
	m.roster = nil
	m.phase = "waiting"
	m.round = 0
	m.received = nil
	m.input.Placeholder = "/start 开始游戏，/leave 离开"
}

func (m *Model) leaveRoom() {
	m.roomID = ""
	m.hostID = ""
	m.roster = nil
	m.phase = ""
	m.round = 0
	m.received = nil
	m.input.Placeholder = lobbyHint
}

func (m *Model) isHost() bool {
	return m.playerID != "" && m.playerID == m.hostID
}

// --- accessors, mainly for tests ---

func (m *Model) RoomID() string                          { return m.roomID }
func (m *Model) HostID() string                          { return m.hostID }
func (m *Model) Phase() string                           { return m.phase }
func (m *Model) Round() int                              { return m.round }
func (m *Model) Roster() []protocol.PlayerInfo           { return m.roster }
func (m *Model) Received() []protocol.GameContentPayload { return m.received }
func (m *Model) Error() string                           { return m.error }
func (m *Model) Connected() bool                         { return m.connected }
