package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-explorer/pkg/explorer"
	"github.com/dd0wney/cluso-explorer/pkg/linkmode"
	"github.com/dd0wney/cluso-explorer/pkg/navigation"
	"github.com/dd0wney/cluso-explorer/pkg/pubsub"
	"github.com/dd0wney/cluso-explorer/pkg/snapshot"
	"github.com/dd0wney/cluso-explorer/pkg/storage"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	graphBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFFF00")).
			Bold(true).
			Padding(0, 1)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// The canvas starts below the title, status line and top border.
const (
	canvasTop  = 3
	canvasLeft = 1
	chromeRows = 7
	noticeTTL  = 5 * time.Second
)

type inputMode int

const (
	browsing inputMode = iota
	addingChild
	renaming
	labelingLink
)

type slotOp int

const (
	slotRecall slotOp = iota
	slotStore
	slotClear
)

type tickMsg time.Time

// busNoticeMsg carries a notice published on the session bus.
type busNoticeMsg pubsub.Notice

// reloadMsg asks the model to replace the graph with a document changed on
// disk by another program.
type reloadMsg struct {
	doc    *snapshot.Document
	source string
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForNotice(ch <-chan any) tea.Cmd {
	return func() tea.Msg {
		for msg := range ch {
			if n, ok := msg.(pubsub.Notice); ok {
				return busNoticeMsg(n)
			}
		}
		return nil
	}
}

type model struct {
	session   *explorer.Session
	notices   <-chan any
	interval  time.Duration
	afterLoad func()

	keys  keyMap
	help  help.Model
	input textinput.Model
	mode  inputMode
	slot  slotOp

	width     int
	height    int
	lastFrame time.Time

	hover    storage.NodeID
	dragging storage.NodeID
	dragged  bool

	notice   pubsub.Notice
	noticeAt time.Time
}

func newModel(session *explorer.Session, notices <-chan any, interval time.Duration) model {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 40

	return model{
		session:  session,
		notices:  notices,
		interval: interval,
		keys:     keys,
		help:     help.New(),
		input:    ti,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.interval),
		waitForNotice(m.notices),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		now := time.Time(msg)
		dt := m.interval
		if !m.lastFrame.IsZero() {
			dt = now.Sub(m.lastFrame)
		}
		m.lastFrame = now
		m.session.Frame(dt)
		if m.notice.Message != "" && now.Sub(m.noticeAt) > noticeTTL {
			m.notice = pubsub.Notice{}
		}
		return m, tickCmd(m.interval)

	case busNoticeMsg:
		m.notice = pubsub.Notice(msg)
		m.noticeAt = time.Now()
		return m, waitForNotice(m.notices)

	case reloadMsg:
		m.session.Load(msg.doc, msg.source)
		m.leaveInput()
		m.hover, m.dragging = "", ""
		if m.afterLoad != nil {
			m.afterLoad()
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		if m.mode != browsing {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *model) leaveInput() {
	m.mode = browsing
	m.input.Reset()
	m.input.Blur()
}

func (m *model) enterInput(mode inputMode, placeholder, value string) tea.Cmd {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == labelingLink {
			m.session.Cancel()
		}
		m.leaveInput()
		return m, nil

	case tea.KeyEnter:
		value := m.input.Value()
		switch m.mode {
		case addingChild:
			m.session.AddChild(value)
		case renaming:
			m.session.EditNode(m.session.Store().Current().Focus(), storage.NodeEdit{Label: &value})
		case labelingLink:
			m.session.SubmitCustom(value)
			if m.session.LinkState() == linkmode.AwaitingLabel {
				return m, nil
			}
		}
		m.leaveInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.session.LinkState() == linkmode.AwaitingType && isLinkOption(k) {
		m.session.ChooseLinkOption(k)
		if m.session.LinkState() == linkmode.AwaitingLabel {
			cmd := m.enterInput(labelingLink, "relationship", "")
			return m, cmd
		}
		return m, nil
	}

	if m.slot != slotRecall {
		op := m.slot
		m.slot = slotRecall
		if key.Matches(msg, m.keys.Slot) {
			i := int(k[0] - '1')
			if op == slotStore {
				m.session.StoreSlot(i)
			} else {
				m.session.ClearSlot(i)
			}
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.session.Jump(navigation.Up)
	case key.Matches(msg, m.keys.Down):
		m.session.Jump(navigation.Down)
	case key.Matches(msg, m.keys.Left):
		m.session.Jump(navigation.Left)
	case key.Matches(msg, m.keys.Right):
		m.session.Jump(navigation.Right)
	case key.Matches(msg, m.keys.Tab):
		m.session.CyclePreview(true)
	case key.Matches(msg, m.keys.ShiftTab):
		m.session.CyclePreview(false)
	case key.Matches(msg, m.keys.Enter):
		m.session.CommitPreview()
	case key.Matches(msg, m.keys.Back):
		m.session.Back()

	case key.Matches(msg, m.keys.Add):
		cmd := m.enterInput(addingChild, explorer.DefaultChildLabel, "")
		return m, cmd
	case key.Matches(msg, m.keys.Edit):
		label := ""
		if n, ok := m.session.Store().Current().Node(m.session.Store().Current().Focus()); ok {
			label = n.Label
		}
		cmd := m.enterInput(renaming, "label", label)
		return m, cmd
	case key.Matches(msg, m.keys.Delete):
		m.session.DeleteFocus()
	case key.Matches(msg, m.keys.Link):
		m.session.BeginLink()

	case key.Matches(msg, m.keys.Slot):
		m.session.RecallSlot(int(k[0] - '1'))
	case key.Matches(msg, m.keys.Mark):
		m.slot = slotStore
	case key.Matches(msg, m.keys.Unmark):
		m.slot = slotClear

	case key.Matches(msg, m.keys.Wider):
		m.session.SetViewLayers(m.session.Store().Current().ViewLayers() + 1)
	case key.Matches(msg, m.keys.Narrower):
		m.session.SetViewLayers(m.session.Store().Current().ViewLayers() - 1)

	case key.Matches(msg, m.keys.Yes):
		m.session.Confirm()
	case key.Matches(msg, m.keys.No):
		m.session.Decline()
	case key.Matches(msg, m.keys.Cancel):
		m.session.Cancel()
	case key.Matches(msg, m.keys.Save):
		m.session.SaveNow()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func isLinkOption(k string) bool {
	if len(k) != 1 {
		return false
	}
	return (k[0] >= '1' && k[0] <= '9') || k == "c" || k == "x"
}

func (m *model) handleMouse(msg tea.MouseMsg) {
	sc := m.scene()
	col, row := msg.X-canvasLeft, msg.Y-canvasTop

	switch msg.Action {
	case tea.MouseActionMotion:
		if m.dragging != "" {
			p := sc.viewport.Unproject(col, row)
			m.session.Drag(m.dragging, p.X, p.Y)
			m.dragged = true
			return
		}
		id, _ := sc.nodeAt(col, row)
		if id != m.hover {
			m.hover = id
			m.session.Hover(id)
		}

	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if id, ok := sc.nodeAt(col, row); ok {
			m.dragging, m.dragged = id, false
		}

	case tea.MouseActionRelease:
		if m.dragging == "" {
			return
		}
		id := m.dragging
		m.dragging = ""
		if m.dragged {
			m.session.Release()
			return
		}
		m.session.Navigate(id)
	}
}

func (m model) canvasSize() (int, int) {
	rows := chromeRows
	if m.help.ShowAll {
		tallest := 0
		for _, column := range m.keys.FullHelp() {
			tallest = max(tallest, len(column))
		}
		rows += tallest - 1
	}
	return max(m.width-2, 10), max(m.height-rows, 5)
}

func (m model) scene() scene {
	state := m.session.Store().Current()
	w, h := m.canvasSize()
	return scene{
		state:      state,
		viewport:   viewportFor(state, w, h, m.session.Rotation()),
		preview:    m.session.Preview(),
		hover:      m.hover,
		linkSource: m.session.LinkSource(),
	}
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	state := m.session.Store().Current()
	var s strings.Builder

	s.WriteString(titleStyle.Render("◆ Cluso Explorer"))
	if focus, ok := state.Node(state.Focus()); ok {
		s.WriteString(titleStyle.Render("  " + focus.Label))
	}
	s.WriteString("\n")
	s.WriteString(statusStyle.Render(m.status(state)))
	s.WriteString("\n")

	s.WriteString(graphBoxStyle.Render(m.scene().draw().String()))
	s.WriteString("\n")

	s.WriteString(m.modeLine(state))
	s.WriteString("\n")
	s.WriteString(m.noticeLine())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return s.String()
}

func (m model) status(state *storage.State) string {
	slots := make([]string, 0, storage.SlotCount)
	for i, id := range state.Slots() {
		label := "–"
		if n, ok := state.Node(id); ok {
			label = truncate(n.Label, 12)
		}
		slots = append(slots, fmt.Sprintf("%d:%s", i+1, label))
	}
	return fmt.Sprintf("%d nodes · %d links · %d layers · back %d · slots %s",
		state.NodeCount(), state.LinkCount(), state.ViewLayers(),
		len(state.History()), strings.Join(slots, " "))
}

func (m model) modeLine(state *storage.State) string {
	if prompt, ok := m.session.Pending(); ok {
		return promptStyle.Render(prompt.Message() + " [y/n]")
	}

	switch m.mode {
	case addingChild:
		return "New child: " + m.input.View()
	case renaming:
		return "Rename: " + m.input.View()
	case labelingLink:
		return "Relationship: " + m.input.View()
	}

	switch m.slot {
	case slotStore:
		return linkStyle.Render("Store focus in slot 1-4")
	case slotClear:
		return linkStyle.Render("Clear slot 1-4")
	}

	source := ""
	if n, ok := state.Node(m.session.LinkSource()); ok {
		source = n.Label
	}
	switch m.session.LinkState() {
	case linkmode.AwaitingType:
		opts := make([]string, 0)
		for _, o := range m.session.LinkOptions() {
			opts = append(opts, o.Key+" "+o.Label)
		}
		return linkStyle.Render("Link from " + source + ": " + strings.Join(opts, " · "))
	case linkmode.Active:
		kind, value := m.session.LinkChoice()
		if kind == linkmode.Delete {
			return linkStyle.Render("Unlinking from " + source + ": go to the other end (esc cancels)")
		}
		return linkStyle.Render("Linking from " + source + " as " + value + ": go to the target (esc cancels)")
	}

	if p, ok := state.Node(m.session.Preview()); ok {
		return statusStyle.Render("Preview: " + p.Label + " (enter to go)")
	}
	return ""
}

func (m model) noticeLine() string {
	if m.notice.Message == "" {
		return ""
	}
	switch m.notice.Severity {
	case pubsub.SeverityError:
		return errorStyle.Render("✗ " + m.notice.Message)
	case pubsub.SeverityWarning:
		return warningStyle.Render("! " + m.notice.Message)
	default:
		return successStyle.Render("✓ " + m.notice.Message)
	}
}
