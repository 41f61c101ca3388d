package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/Imtguy97/mindharbor-bot/pkg/cli"
)

// chatReply is one server frame: an answer, a rejection, or a
// protocol-level error.
type chatReply struct {
	Status   string `json:"status"`
	Response string `json:"response"`
	Matches  []struct {
		Text  string  `json:"text"`
		Score float32 `json:"score"`
	} `json:"matches"`
	TokensRemaining *int   `json:"tokens_remaining"`
	Error           string `json:"error"`
}

// chatReplyMsg delivers a server frame to the update loop.
type chatReplyMsg struct {
	reply chatReply
	err   error
}

type chatModel struct {
	user   string
	conn   *websocket.Conn
	input  textinput.Model
	styles cli.Styles

	lines   []string
	status  string
	waiting bool
	width   int
	height  int
}

func newChatModel(user string, conn *websocket.Conn) chatModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "type a message"
	ti.Focus()

	return chatModel{
		user:   user,
		conn:   conn,
		input:  ti,
		styles: cli.NewStyles(cli.DefaultTheme),
		status: "connected",
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.readReply())
}

// readReply blocks on the next server frame. It re-arms itself from
// Update after each delivery; a read error ends the listener.
func (m chatModel) readReply() tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return chatReplyMsg{err: err}
		}
		var reply chatReply
		if err := json.Unmarshal(data, &reply); err != nil {
			return chatReplyMsg{err: err}
		}
		return chatReplyMsg{reply: reply}
	}
}

// send writes one message frame. The reply arrives through the
// readReply listener.
func (m chatModel) send(text string) tea.Cmd {
	conn, user := m.conn, m.user
	return func() tea.Msg {
		if err := conn.WriteJSON(map[string]string{"user_id": user, "message": text}); err != nil {
			return chatReplyMsg{err: err}
		}
		return nil
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting || m.status == "disconnected" {
				return m, nil
			}
			m.input.Reset()
			m.lines = append(m.lines, m.styles.Label.Render("you")+" "+text)
			m.waiting = true
			m.status = "thinking"
			return m, m.send(text)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-8)
		return m, nil

	case chatReplyMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "disconnected"
			m.lines = append(m.lines, m.styles.Help.Render(fmt.Sprintf("connection lost: %v", msg.err)))
			return m, nil
		}
		m.status = "connected"
		m.lines = append(m.lines, m.renderReply(msg.reply)...)
		return m, m.readReply()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) renderReply(r chatReply) []string {
	if r.Error != "" {
		return []string{m.styles.Help.Render("server: " + r.Error)}
	}

	var lines []string
	if r.Response != "" {
		lines = append(lines, m.styles.Label.Render("harbor")+" "+r.Response)
	} else {
		lines = append(lines, m.styles.Label.Render("harbor")+" here's what helps others:")
	}
	for _, match := range r.Matches {
		lines = append(lines, fmt.Sprintf("   %.2f  %s", match.Score, match.Text))
	}
	if r.TokensRemaining != nil {
		lines = append(lines, m.styles.Help.Render(fmt.Sprintf("%d tokens left", *r.TokensRemaining)))
	}
	return lines
}

func (m chatModel) View() string {
	help := "enter: send • esc: quit"
	if m.waiting {
		help = "waiting for reply • esc: quit"
	}

	body := make([]string, 0, len(m.lines)+2)
	body = append(body, m.lines...)
	body = append(body, "", m.input.View())

	frame := cli.Chrome{
		Styles: m.styles,
		Title:  "mindharbor · " + m.user,
		Status: m.status,
		Body:   body,
		Help:   help,
	}
	return frame.Render(m.width, m.height)
}
