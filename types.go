package main

import (
	"log/slog"

	"reloverlay/internal/geom"
	"reloverlay/internal/overlay"
	"reloverlay/internal/scene"
)

type model struct {
	width          int
	height         int
	cursorX        int
	cursorY        int
	panX           int
	panY           int
	zPanMode       bool
	mode           Mode
	help           bool
	scene          *scene.Scene
	overlay        *overlay.Overlay
	refresh        <-chan struct{}
	logger         *slog.Logger
	undoStack      []Action
	redoStack      []Action
	selectedRegion string
	originalBox    geom.BoundingBox
	filename       string
	pendingPath    string
	sceneFile      string
	fileOp         FileOperation
	confirmAction  ConfirmAction
	errorMessage   string
	successMessage string
	config         *Config
	dirty          bool
}

type point struct {
	X, Y int
}

type Action struct {
	Type    ActionType
	Data    interface{}
	Inverse interface{}
}

// RegionBoxData restores a region to a box.
type RegionBoxData struct {
	ID  string
	Box geom.BoundingBox
}

// DeleteRegionData holds a removed region and the relations that went with
// it.
type DeleteRegionData struct {
	Region scene.Region
	Links  []scene.Link
}
