package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/haview/pkg/app"
	"github.com/matzehuels/haview/pkg/geom"
	"github.com/matzehuels/haview/pkg/source"
	"github.com/matzehuels/haview/pkg/view"
)

// Viewer key steps.
const (
	panCells = 4    // cells moved per arrow key
	zoomStep = 1.25 // scale factor per +/- key
)

// Screen rows outside the panes.
const (
	headerRows   = 1
	footerRows   = 2
	minMainWidth = 20
)

var (
	paneTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	separatorStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// =============================================================================
// Screen Layout
// =============================================================================

// paneRect is a pane position in terminal cells.
type paneRect struct {
	x, y, w, h int
}

func (r paneRect) contains(x, y int) bool {
	return x >= r.x && y >= r.y && x < r.x+r.w && y < r.y+r.h
}

// screen places the main view on the left and the overview (and, when
// visible, the editor below it) on the right. Each right-hand pane has a
// title row above it.
type screen struct {
	main, overview, editor paneRect
	editorVisible          bool
}

func computeScreen(width, height int, editorVisible bool) screen {
	bodyH := max(height-headerRows-footerRows, 2)

	rightW := width / 4
	if editorVisible {
		rightW = width * 2 / 5
	}
	rightW = max(rightW, 20)
	if width-rightW-1 < minMainWidth {
		rightW = max(width-minMainWidth-1, 0)
	}
	mainW := max(width-rightW-1, 0)

	s := screen{editorVisible: editorVisible}
	s.main = paneRect{x: 0, y: headerRows, w: mainW, h: bodyH}

	ovH := bodyH - 1
	if editorVisible {
		ovH = max(bodyH/2-1, 1)
	}
	s.overview = paneRect{x: mainW + 1, y: headerRows + 1, w: rightW, h: ovH}
	if editorVisible {
		ey := s.overview.y + s.overview.h + 1
		s.editor = paneRect{x: mainW + 1, y: ey, w: rightW, h: max(headerRows+bodyH-ey, 0)}
	}
	return s
}

// =============================================================================
// Messages
// =============================================================================

type (
	loadedMsg   struct{ err error }
	reloadedMsg struct{ err error }
	savedMsg    struct {
		result app.SaveResult
		err    error
	}
	editedMsg struct {
		text string
		err  error
	}
	watchMsg struct {
		event source.Event
		ok    bool
	}
	cameraMsg struct{ cmd view.CameraCommand }
)

// noticeQueue collects controller notices until the model shows them.
type noticeQueue struct {
	mu    sync.Mutex
	items []app.Notice
}

// Notify implements app.Notifier.
func (q *noticeQueue) Notify(n app.Notice) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, n)
}

func (q *noticeQueue) drain() []app.Notice {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// =============================================================================
// ViewerModel - Interactive topology viewer
// =============================================================================

// viewerOptions configure a viewerModel.
type viewerOptions struct {
	events     <-chan source.Event // external config changes, may be nil
	editor     string              // external editor command line
	sourceName string              // shown in the header
}

// viewerModel is the bubbletea model of the interactive viewer.
type viewerModel struct {
	ctx     context.Context
	ctl     *app.Controller
	notices *noticeQueue
	opts    viewerOptions

	width, height int
	editorVisible bool
	editorScroll  int
	confirming    bool
	busy          bool
	status        string
	statusLevel   app.Level
}

func newViewerModel(ctx context.Context, ctl *app.Controller, notices *noticeQueue, opts viewerOptions) viewerModel {
	return viewerModel{
		ctx:           ctx,
		ctl:           ctl,
		notices:       notices,
		opts:          opts,
		editorVisible: ctl.EditorVisible(),
		busy:          true,
		status:        "Loading topology...",
		statusLevel:   app.LevelInfo,
	}
}

func (m viewerModel) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitEvent())
}

func (m viewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.syncViewports()

	case loadedMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(app.LevelError, "Load failed: "+msg.err.Error())
		} else {
			m.syncViewports()
			m.setStatus(app.LevelInfo, m.summary("Loaded"))
		}
		m.applyNotices()

	case savedMsg:
		m.busy = false
		if msg.result == app.Saved && msg.err == nil {
			m.syncViewports()
			m.setStatus(app.LevelInfo, m.summary("Saved and reloaded"))
		}
		m.applyNotices()

	case reloadedMsg:
		if msg.err == nil {
			m.syncViewports()
		}
		m.applyNotices()

	case editedMsg:
		if msg.err != nil {
			m.setStatus(app.LevelError, "Editor failed: "+msg.err.Error())
			break
		}
		m.ctl.SetBuffer(msg.text)
		if m.ctl.Dirty() {
			m.setStatus(app.LevelWarn, "Unsaved changes, press s to save")
		} else {
			m.setStatus(app.LevelInfo, "No changes")
		}

	case watchMsg:
		if !msg.ok {
			m.opts.events = nil
			return m, nil
		}
		if msg.event.Err != nil {
			m.setStatus(app.LevelWarn, "Watch: "+msg.event.Err.Error())
			return m, m.waitEvent()
		}
		return m, tea.Batch(m.handleExternal(), m.waitEvent())

	case cameraMsg:
		// Redraw only.

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m viewerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.confirming {
		m.confirming = false
		if key == "y" || key == "Y" {
			m.busy = true
			m.setStatus(app.LevelInfo, "Saving...")
			return m, m.save()
		}
		m.setStatus(app.LevelInfo, "Save cancelled")
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.busy = true
		m.setStatus(app.LevelInfo, "Reloading...")
		return m, m.load()
	case "s":
		if !m.busy {
			m.confirming = true
			m.setStatus(app.LevelWarn, app.SavePrompt+" [y/N]")
		}
		return m, nil
	case "e":
		visible, err := m.ctl.ToggleEditor()
		m.editorVisible = visible
		if err != nil {
			m.setStatus(app.LevelWarn, err.Error())
		}
		m.syncViewports()
		return m, nil
	case "E":
		return m, m.openEditor()
	case "pgup":
		m.scrollEditor(-m.editorPage())
		return m, nil
	case "pgdown":
		m.scrollEditor(m.editorPage())
		return m, nil
	}

	views, ok := m.ctl.Renderer().Views()
	if !ok {
		return m, nil
	}
	main := views.Main
	switch key {
	case "up", "k":
		main.Pan(0, -panCells*cellHeight)
	case "down", "j":
		main.Pan(0, panCells*cellHeight)
	case "left", "h":
		main.Pan(-panCells*cellWidth, 0)
	case "right", "l":
		main.Pan(panCells*cellWidth, 0)
	case "+", "=":
		main.Zoom(zoomStep)
	case "-":
		main.Zoom(1 / zoomStep)
	case "f":
		main.Fit()
	case "tab":
		m.cycleSelection(views, 1)
	case "shift+tab":
		m.cycleSelection(views, -1)
	}
	return m, nil
}

func (m *viewerModel) handleMouse(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress {
		return
	}
	s := computeScreen(m.width, m.height, m.editorVisible)

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		up := msg.Button == tea.MouseButtonWheelUp
		if s.editorVisible && s.editor.contains(msg.X, msg.Y) {
			if up {
				m.scrollEditor(-3)
			} else {
				m.scrollEditor(3)
			}
			return
		}
		if views, ok := m.ctl.Renderer().Views(); ok && s.main.contains(msg.X, msg.Y) {
			if up {
				views.Main.Zoom(zoomStep)
			} else {
				views.Main.Zoom(1 / zoomStep)
			}
		}

	case tea.MouseButtonLeft:
		views, ok := m.ctl.Renderer().Views()
		if !ok {
			return
		}
		switch {
		case s.overview.contains(msg.X, msg.Y):
			pointer := cellToDOM(msg.X-s.overview.x, msg.Y-s.overview.y)
			cmd, ok := m.ctl.Renderer().OverviewClick(view.ClickEvent{Pointer: pointer})
			if ok && cmd.NodeID != "" {
				views.Main.Select(cmd.NodeID)
				m.describe(cmd.NodeID)
			}
		case s.main.contains(msg.X, msg.Y):
			p := views.Main.DOMToCanvas(cellToDOM(msg.X-s.main.x, msg.Y-s.main.y))
			if id, ok := views.Main.NodeAt(p); ok {
				views.Main.Select(id)
				m.describe(id)
			} else {
				views.Main.Select()
			}
		}
	}
}

// cycleSelection selects and focuses the next (or previous) node in
// model order.
func (m *viewerModel) cycleSelection(views view.Views, step int) {
	ids := views.Main.NodeIDs()
	if len(ids) == 0 {
		return
	}
	next := 0
	if sel := views.Main.Selection(); len(sel) > 0 {
		for i, id := range ids {
			if id == sel[0] {
				next = (i + step + len(ids)) % len(ids)
				break
			}
		}
	}
	id := ids[next]
	views.Main.Select(id)
	views.Main.Focus(id, 0, geom.Point{}, view.ClickAnimation)
	m.describe(id)
}

func (m *viewerModel) describe(id string) {
	doc := m.ctl.Document()
	if doc == nil {
		return
	}
	n, ok := doc.Main.Node(id)
	if !ok {
		return
	}
	msg := n.ID
	if n.Tooltip != "" && n.Tooltip != n.Label {
		msg += "  " + strings.ReplaceAll(n.Tooltip, "\n", " ")
	}
	m.setStatus(app.LevelInfo, msg)
}

// syncViewports sizes both views to their panes and fits the overview,
// which cannot be panned or zoomed by the user.
func (m viewerModel) syncViewports() {
	views, ok := m.ctl.Renderer().Views()
	if !ok || m.width == 0 {
		return
	}
	s := computeScreen(m.width, m.height, m.editorVisible)
	views.Main.SetViewport(float64(s.main.w)*cellWidth, float64(s.main.h)*cellHeight)
	views.Overview.SetViewport(float64(s.overview.w)*cellWidth, float64(s.overview.h)*cellHeight)
	views.Overview.Fit()
}

func (m *viewerModel) setStatus(level app.Level, msg string) {
	m.statusLevel = level
	m.status = msg
}

// applyNotices shows the most recent controller notice.
func (m *viewerModel) applyNotices() {
	for _, n := range m.notices.drain() {
		m.setStatus(n.Level, n.String())
	}
}

func (m viewerModel) summary(prefix string) string {
	doc := m.ctl.Document()
	if doc == nil {
		return prefix
	}
	msg := fmt.Sprintf("%s %d nodes, %d edges", prefix, len(doc.Main.Nodes), len(doc.Main.Edges))
	if len(doc.Dropped) > 0 {
		msg += fmt.Sprintf(" (%d invalid elements ignored)", len(doc.Dropped))
	}
	return msg
}

func (m viewerModel) editorPage() int {
	return max(computeScreen(m.width, m.height, true).editor.h-1, 1)
}

// scrollEditor moves the editor by delta lines, keeping the last page in view.
func (m *viewerModel) scrollEditor(delta int) {
	lines := strings.Count(m.ctl.Buffer(), "\n") + 1
	last := max(lines-computeScreen(m.width, m.height, true).editor.h, 0)
	m.editorScroll = min(max(m.editorScroll+delta, 0), last)
}

// =============================================================================
// Commands
// =============================================================================

func (m viewerModel) load() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return loadedMsg{err: ctl.LoadAll(ctx)}
	}
}

func (m viewerModel) save() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		res, err := ctl.Save(ctx)
		return savedMsg{result: res, err: err}
	}
}

func (m viewerModel) handleExternal() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return reloadedMsg{err: ctl.HandleExternalChange(ctx)}
	}
}

func (m viewerModel) waitEvent() tea.Cmd {
	events := m.opts.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		return watchMsg{event: ev, ok: ok}
	}
}

// openEditor suspends the viewer and edits the buffer in the external
// editor through a temporary file.
func (m viewerModel) openEditor() tea.Cmd {
	f, err := os.CreateTemp("", "haproxy-*.cfg")
	if err != nil {
		return func() tea.Msg { return editedMsg{err: err} }
	}
	path := f.Name()
	_, werr := f.WriteString(m.ctl.Buffer())
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(path)
		return func() tea.Msg { return editedMsg{err: werr} }
	}

	args := strings.Fields(m.opts.editor)
	if len(args) == 0 {
		args = []string{"vi"}
	}
	cmd := exec.Command(args[0], append(args[1:], path)...)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		defer os.Remove(path)
		if err != nil {
			return editedMsg{err: err}
		}
		data, err := os.ReadFile(path)
		return editedMsg{text: string(data), err: err}
	})
}

// =============================================================================
// Rendering
// =============================================================================

func (m viewerModel) View() string {
	if m.width == 0 {
		return m.status
	}
	s := computeScreen(m.width, m.height, m.editorVisible)

	var mainPane, overviewPane string
	selected := ""
	if views, ok := m.ctl.Renderer().Views(); ok {
		if sel := views.Main.Selection(); len(sel) > 0 {
			selected = sel[0]
		}
		mainPane = drawMain(views.Main, s.main.w, s.main.h, selected)
		overviewPane = drawOverview(views.Overview, views.Main, s.overview.w, s.overview.h)
	} else {
		mainPane = newCanvas(s.main.w, s.main.h).String()
		overviewPane = newCanvas(s.overview.w, s.overview.h).String()
	}

	right := []string{paneTitleStyle.Render(fit("Overview", s.overview.w)), overviewPane}
	if s.editorVisible {
		title := "haproxy.cfg"
		if m.ctl.Dirty() {
			title += " (modified)"
		}
		right = append(right, paneTitleStyle.Render(fit(title, s.editor.w)), m.editorPane(s.editor))
	}
	sep := separatorStyle.Render(strings.TrimSuffix(strings.Repeat("│\n", s.main.h), "\n"))
	body := lipgloss.JoinHorizontal(lipgloss.Top, mainPane, sep, strings.Join(right, "\n"))

	return strings.Join([]string{m.header(), body, m.statusBar(), m.helpLine()}, "\n")
}

func (m viewerModel) header() string {
	h := StyleTitle.Render(appName)
	if m.opts.sourceName != "" {
		h += " " + StyleDim.Render(m.opts.sourceName)
	}
	if m.ctl.Dirty() {
		h += " " + StyleWarning.Render("●")
	}
	return h
}

// statusBar shows the latest notice with the icon for its level.
func (m viewerModel) statusBar() string {
	switch m.statusLevel {
	case app.LevelError:
		return statusLine(statusFail, "%s", StyleError.Render(m.status))
	case app.LevelWarn:
		return statusLine(statusWarn, "%s", m.status)
	default:
		return statusLine(statusInfo, "%s", m.status)
	}
}

func (m viewerModel) helpLine() string {
	return StyleDim.Render("arrows pan  +/- zoom  f fit  tab select  click overview to jump  e editor  E edit  s save  r reload  q quit")
}

func (m viewerModel) editorPane(r paneRect) string {
	lines := strings.Split(m.ctl.Buffer(), "\n")
	scroll := min(m.editorScroll, max(len(lines)-r.h, 0))

	const gutter = 5
	out := make([]string, 0, r.h)
	for i := 0; i < r.h; i++ {
		idx := scroll + i
		if idx >= len(lines) {
			out = append(out, fit("", r.w))
			continue
		}
		num := StyleDim.Render(fmt.Sprintf("%4d ", idx+1))
		text := strings.ReplaceAll(lines[idx], "\t", "    ")
		out = append(out, num+fit(text, max(r.w-gutter, 0)))
	}
	return strings.Join(out, "\n")
}

// fit truncates or pads s to exactly w runes.
func fit(s string, w int) string {
	r := []rune(s)
	if len(r) > w {
		return string(r[:w])
	}
	return s + strings.Repeat(" ", w-len(r))
}
