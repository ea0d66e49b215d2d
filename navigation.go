package main

import tea "github.com/charmbracelet/bubbletea"

func (m *model) handleNavigation(key string, speed int) (tea.Model, tea.Cmd) {
	switch {
	case m.mode == ModeMove:
		return m, m.nudgeSelected(key, speed, false)
	case m.mode == ModeResize:
		return m, m.nudgeSelected(key, speed, true)
	case m.zPanMode:
		return m.handlePan(key, speed), nil
	}
	return m.handleCursorMove(key, speed), nil
}

func (m *model) handlePan(key string, speed int) tea.Model {
	switch key {
	case "h", "left", "H", "shift+left":
		m.panX -= speed
	case "l", "right", "L", "shift+right":
		m.panX += speed
	case "k", "up", "K", "shift+up":
		m.panY -= speed
	case "j", "down", "J", "shift+down":
		m.panY += speed
	}
	return m
}

func (m *model) handleCursorMove(key string, speed int) tea.Model {
	switch key {
	case "h", "left", "H", "shift+left":
		m.cursorX -= speed
	case "l", "right", "L", "shift+right":
		m.cursorX += speed
	case "k", "up", "K", "shift+up":
		m.cursorY -= speed
	case "j", "down", "J", "shift+down":
		m.cursorY += speed
	}
	m.ensureCursorInBounds()
	return m
}

// nudgeSelected moves or resizes the selected region by whole cells. The
// cursor follows a moved region.
func (m *model) nudgeSelected(key string, speed int, resize bool) tea.Cmd {
	if m.selectedRegion == "" {
		return nil
	}
	dx, dy := 0, 0
	switch key {
	case "h", "left", "H", "shift+left":
		dx = -speed
	case "l", "right", "L", "shift+right":
		dx = speed
	case "k", "up", "K", "shift+up":
		dy = -speed
	case "j", "down", "J", "shift+down":
		dy = speed
	}
	if dx == 0 && dy == 0 {
		return nil
	}

	w, h := float64(dx)*cellWidth, float64(dy)*cellHeight
	var err error
	if resize {
		err = m.scene.Resize(m.selectedRegion, w, h)
	} else {
		err = m.scene.Move(m.selectedRegion, w, h)
		m.cursorX += dx
		m.cursorY += dy
		m.ensureCursorInBounds()
	}
	if err != nil {
		m.errorMessage = err.Error()
		return nil
	}
	m.dirty = true
	return nil
}

func (m *model) getMoveSpeed(key string) int {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return 2
	default:
		return 1
	}
}

func (m *model) ensureCursorInBounds() {
	if m.cursorX < 0 {
		m.cursorX = 0
	}
	if m.cursorY < 0 {
		m.cursorY = 0
	}
	if m.width > 0 && m.cursorX >= m.width {
		m.cursorX = m.width - 1
	}
	// The last row is the status line.
	if m.height > 1 && m.cursorY >= m.height-1 {
		m.cursorY = m.height - 2
	}
}
