package main

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reloverlay/internal/overlay"
	"reloverlay/internal/scene"
)

var (
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	modeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("62"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
)

// refreshMsg is sent after a relation re-rendered on its own.
type refreshMsg struct{}

func waitForRefresh(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return refreshMsg{}
	}
}

func initialModel(sc *scene.Scene, o *overlay.Overlay, refresh <-chan struct{}, cfg *Config, logger *slog.Logger, sceneFile string) model {
	return model{
		mode:      ModeNormal,
		scene:     sc,
		overlay:   o,
		refresh:   refresh,
		logger:    logger,
		undoStack: []Action{},
		redoStack: []Action{},
		sceneFile: sceneFile,
		config:    cfg,
	}
}

func (m model) Init() tea.Cmd {
	return waitForRefresh(m.refresh)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorInBounds()
		return m, nil

	case refreshMsg:
		return m, waitForRefresh(m.refresh)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.help {
			switch msg.String() {
			case "?", "esc", "q":
				m.help = false
			}
			return m, nil
		}
		switch m.mode {
		case ModeFileInput:
			return m.handleFileInput(msg)
		case ModeConfirm:
			return m.handleConfirm(msg)
		case ModeMove, ModeResize:
			return m.handleEdit(msg)
		}
		return m.handleNormal(msg)
	}
	return m, nil
}

func (m *model) handleNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	m.errorMessage = ""
	m.successMessage = ""

	switch key {
	case "q":
		if m.dirty && m.config.Confirmations {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmQuit
			return m, nil
		}
		return m, tea.Quit
	case "?":
		m.help = true
	case "z":
		m.zPanMode = !m.zPanMode
	case "h", "j", "k", "l", "left", "right", "up", "down",
		"H", "J", "K", "L", "shift+left", "shift+right", "shift+up", "shift+down":
		return m.handleNavigation(key, m.getMoveSpeed(key))
	case "m", "r":
		id := m.regionUnderCursor()
		if id == "" {
			m.errorMessage = "no region under cursor"
			return m, nil
		}
		r, _ := m.scene.Region(id)
		m.selectedRegion = id
		m.originalBox = r.BoundingBox()
		m.mode = ModeMove
		if key == "r" {
			m.mode = ModeResize
		}
	case "d":
		id := m.regionUnderCursor()
		if id == "" {
			m.errorMessage = "no region under cursor"
			return m, nil
		}
		m.selectedRegion = id
		if m.config.Confirmations {
			m.mode = ModeConfirm
			m.confirmAction = ConfirmDeleteRegion
			return m, nil
		}
		m.deleteRegion(id)
		m.sync()
	case "tab":
		if id := m.scene.CycleHighlight(); id != "" {
			m.successMessage = "Relation: " + id
		}
		m.sync()
	case "esc":
		m.report(m.scene.Highlight(""))
		m.selectedRegion = ""
		m.sync()
	case "v":
		visible := !m.scene.Visible()
		m.scene.SetVisible(visible)
		m.overlay.SetVisible(visible)
	case "u":
		m.undo()
		m.sync()
	case "U", "ctrl+r":
		m.redo()
		m.sync()
	case "s":
		m.startFileInput(FileOpSave, m.sceneFile)
	case "e":
		m.startFileInput(FileOpSaveSVG, baseName(m.sceneFile)+".svg")
	case "p":
		m.startFileInput(FileOpSavePNG, baseName(m.sceneFile)+".png")
	case "T":
		m.startFileInput(FileOpSaveVisualTXT, baseName(m.sceneFile)+".txt")
	case "y":
		if err := copyOverlay(m.overlay); err != nil {
			m.errorMessage = err.Error()
		} else {
			m.successMessage = "Overlay SVG copied"
		}
	}
	return m, nil
}

// handleEdit drives move and resize mode.
func (m *model) handleEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "enter":
		r, ok := m.scene.Region(m.selectedRegion)
		if ok && r.BoundingBox() != m.originalBox {
			actionType := ActionMoveRegion
			if m.mode == ModeResize {
				actionType = ActionResizeRegion
			}
			m.recordAction(actionType,
				RegionBoxData{ID: m.selectedRegion, Box: r.BoundingBox()},
				RegionBoxData{ID: m.selectedRegion, Box: m.originalBox})
			m.logger.Debug("region changed", "region", m.selectedRegion, "box", r.BoundingBox())
		}
		m.mode = ModeNormal
		m.selectedRegion = ""
	case "esc":
		m.report(m.scene.SetBox(m.selectedRegion, m.originalBox))
		m.mode = ModeNormal
		m.selectedRegion = ""
	default:
		return m.handleNavigation(key, m.getMoveSpeed(key))
	}
	return m, nil
}

func (m *model) startFileInput(op FileOperation, name string) {
	m.mode = ModeFileInput
	m.fileOp = op
	m.filename = name
}

func (m *model) handleFileInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
		m.filename = ""
		m.errorMessage = ""
	case tea.KeyEnter:
		if strings.TrimSpace(m.filename) == "" {
			m.errorMessage = "filename required"
			return m, nil
		}
		path := m.config.GetSavePath(withExtension(m.filename, extensionFor(m.fileOp)))
		if fileExists(path) && path != m.sceneFile && m.config.Confirmations {
			m.pendingPath = path
			m.mode = ModeConfirm
			m.confirmAction = ConfirmOverwriteFile
			return m, nil
		}
		m.performFileOp(path)
	case tea.KeyBackspace:
		if runes := []rune(m.filename); len(runes) > 0 {
			m.filename = string(runes[:len(runes)-1])
		}
	case tea.KeySpace:
		m.filename += " "
	case tea.KeyRunes:
		m.filename += string(msg.Runes)
	}
	return m, nil
}

// performFileOp writes path. On failure the prompt stays open for a retry.
func (m *model) performFileOp(path string) {
	var err error
	switch m.fileOp {
	case FileOpSave:
		if err = m.scene.Save(path); err == nil {
			m.sceneFile = path
			m.dirty = false
		}
	case FileOpSaveSVG:
		err = exportSVG(m.overlay, path)
	case FileOpSavePNG:
		err = exportPNG(m.scene, m.overlay, path)
	case FileOpSaveVisualTXT:
		err = m.exportVisualTXT(path)
	}
	if err != nil {
		m.logger.Error("file operation failed", "path", path, "error", err)
		m.errorMessage = err.Error()
		m.mode = ModeFileInput
		return
	}
	m.logger.Info("file written", "path", path)
	m.successMessage = "Saved " + path
	m.errorMessage = ""
	m.filename = ""
	m.mode = ModeNormal
}

func (m *model) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		switch m.confirmAction {
		case ConfirmQuit:
			return m, tea.Quit
		case ConfirmOverwriteFile:
			m.performFileOp(m.pendingPath)
		case ConfirmDeleteRegion:
			m.deleteRegion(m.selectedRegion)
			m.selectedRegion = ""
			m.sync()
		}
	case "n", "N", "esc":
		m.mode = ModeNormal
		if m.confirmAction == ConfirmOverwriteFile {
			m.mode = ModeFileInput
		}
	}
	return m, nil
}

// sync pushes the scene's relations and highlight into the overlay.
func (m *model) sync() {
	m.overlay.Update(m.scene.Descriptors(), m.scene.Highlighted())
}

func (m *model) regionUnderCursor() string {
	return GetRegionAt(m.scene, m.cursorX, m.cursorY, m.panX, m.panY)
}

func (m model) View() string {
	if m.help {
		return m.helpView()
	}

	width := max(m.width, 1)
	height := max(m.height-1, 1)

	var views []overlay.View
	if m.overlay.Visible() {
		views = m.overlay.Snapshot()
	}
	selected := ""
	if m.mode == ModeMove || m.mode == ModeResize {
		selected = m.selectedRegion
	}
	canvas := NewCanvas(width, height, m.panX, m.panY).Render(m.scene, views, selected)

	if m.mode != ModeFileInput && m.cursorY < len(canvas) {
		line := []rune(canvas[m.cursorY])
		if m.cursorX < len(line) {
			line[m.cursorX] = '█'
			canvas[m.cursorY] = string(line)
		}
	}

	var result strings.Builder
	result.WriteString(strings.Join(canvas, "\n"))
	result.WriteString("\n")
	result.WriteString(statusStyle.Width(width).MaxHeight(1).Render(m.statusLine()))
	return result.String()
}

func (m model) statusLine() string {
	mode := m.modeString()
	if m.mode == ModeNormal && m.zPanMode {
		mode = "PAN"
	}
	status := modeStyle.Render(" "+mode+" ") + " "

	switch m.mode {
	case ModeMove, ModeResize:
		status += fmt.Sprintf("Region %s | hjkl/arrows, Enter=finish, Esc=cancel", m.selectedRegion)
	case ModeFileInput:
		status += fmt.Sprintf("%s filename: %s█ | Enter=confirm, Esc=cancel", fileOpString(m.fileOp), m.filename)
	case ModeConfirm:
		switch m.confirmAction {
		case ConfirmQuit:
			status += "Quit with unsaved changes? (y/n)"
		case ConfirmOverwriteFile:
			status += fmt.Sprintf("File %s already exists. Overwrite? (y/n)", m.pendingPath)
		case ConfirmDeleteRegion:
			status += fmt.Sprintf("Delete region %s and its relations? (y/n)", m.selectedRegion)
		}
	default:
		p := fromCell(m.cursorX, m.cursorY, m.panX, m.panY)
		status += fmt.Sprintf("Cursor: (%g,%g)", p.X, p.Y)
		if id := m.regionUnderCursor(); id != "" {
			status += " | Region: " + id
		}
		if id := m.scene.Highlighted(); id != "" {
			status += " | Relation: " + id
		}
		if !m.overlay.Visible() {
			status += " | relations hidden"
		}
		if m.dirty {
			status += " | modified"
		}
	}

	switch {
	case m.errorMessage != "":
		status += " | " + errorStyle.Render("ERROR: "+m.errorMessage)
	case m.successMessage != "":
		status += " | " + successStyle.Render(m.successMessage)
	case m.mode == ModeNormal:
		status += " | ? for help | q to quit"
	}
	return status
}

func (m model) modeString() string {
	switch m.mode {
	case ModeNormal:
		return "NORMAL"
	case ModeMove:
		return "MOVE"
	case ModeResize:
		return "RESIZE"
	case ModeFileInput:
		return "FILE"
	case ModeConfirm:
		return "CONFIRM"
	default:
		return "UNKNOWN"
	}
}

func fileOpString(op FileOperation) string {
	switch op {
	case FileOpSaveSVG:
		return "Export SVG"
	case FileOpSavePNG:
		return "Export PNG"
	case FileOpSaveVisualTXT:
		return "Export text"
	default:
		return "Save scene"
	}
}

func (m model) helpView() string {
	helpLines := []string{
		titleStyle.Render("reloverlay help"),
		"",
		"Navigation:",
		"  h/←/j/↓/k/↑/l/→  Move cursor",
		"  Shift+h/j/k/l    Move cursor 2x faster",
		"  z                Toggle pan mode",
		"",
		"Regions:",
		"  m                Move region under cursor",
		"  r                Resize region under cursor",
		"  d                Delete region under cursor and its relations",
		"  Enter/Esc        Finish or cancel a move or resize",
		"",
		"Relations:",
		"  Tab              Highlight the next relation",
		"  Esc              Clear the highlight",
		"  v                Show or hide all relations",
		"",
		"Files:",
		"  s                Save scene",
		"  e                Export relations as SVG",
		"  p                Export scene as PNG",
		"  T                Export the screen as text",
		"  y                Copy relation SVG to the clipboard",
		"",
		"General:",
		"  u                Undo",
		"  U/Ctrl+R         Redo",
		"  ?                Toggle this help",
		"  q/Ctrl+C         Quit",
	}

	if m.height > 1 && len(helpLines) > m.height-1 {
		helpLines = helpLines[:m.height-1]
	}
	return strings.Join(helpLines, "\n") + "\n" + statusStyle.Render("Esc or ? to close")
}
