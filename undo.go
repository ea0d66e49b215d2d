package main

import (
	"reloverlay/internal/scene"
)

func (m *model) recordAction(actionType ActionType, data, inverse interface{}) {
	action := Action{
		Type:    actionType,
		Data:    data,
		Inverse: inverse,
	}
	m.undoStack = append(m.undoStack, action)
	m.redoStack = m.redoStack[:0]
}

func (m *model) undo() {
	if len(m.undoStack) == 0 {
		return
	}

	lastIndex := len(m.undoStack) - 1
	action := m.undoStack[lastIndex]
	m.undoStack = m.undoStack[:lastIndex]

	switch action.Type {
	case ActionMoveRegion, ActionResizeRegion:
		data := action.Inverse.(RegionBoxData)
		m.report(m.scene.SetBox(data.ID, data.Box))
	case ActionDeleteRegion:
		data := action.Data.(DeleteRegionData)
		m.report(restoreRegion(m.scene, data))
	}

	m.redoStack = append(m.redoStack, action)
	m.dirty = true
}

func (m *model) redo() {
	if len(m.redoStack) == 0 {
		return
	}

	lastIndex := len(m.redoStack) - 1
	action := m.redoStack[lastIndex]
	m.redoStack = m.redoStack[:lastIndex]

	switch action.Type {
	case ActionMoveRegion, ActionResizeRegion:
		data := action.Data.(RegionBoxData)
		m.report(m.scene.SetBox(data.ID, data.Box))
	case ActionDeleteRegion:
		data := action.Data.(DeleteRegionData)
		m.report(m.scene.Remove(data.Region.ID()))
	}

	m.undoStack = append(m.undoStack, action)
	m.dirty = true
}

// deleteRegion removes a region and records it, with its relations, for undo.
func (m *model) deleteRegion(id string) {
	r, ok := m.scene.Region(id)
	if !ok {
		return
	}
	var links []scene.Link
	for _, l := range m.scene.Links() {
		if l.StartNode().ID() == id || l.EndNode().ID() == id {
			links = append(links, l)
		}
	}
	if err := m.scene.Remove(id); err != nil {
		m.report(err)
		return
	}
	m.recordAction(ActionDeleteRegion, DeleteRegionData{Region: r, Links: links}, nil)
	if m.selectedRegion == id {
		m.selectedRegion = ""
	}
	m.dirty = true
}

func restoreRegion(sc *scene.Scene, data DeleteRegionData) error {
	if err := sc.Add(data.Region); err != nil {
		return err
	}
	for _, l := range data.Links {
		_, err := sc.Connect(l.ID(), l.StartNode().ID(), l.EndNode().ID(), l.Direction(), l.SelectedLabelValues()...)
		if err != nil {
			return err
		}
	}
	return nil
}

// report shows err in the status bar.
func (m *model) report(err error) {
	if err != nil {
		m.errorMessage = err.Error()
	}
}
