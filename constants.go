package main

type Mode int

const (
	ModeNormal Mode = iota
	ModeMove
	ModeResize
	ModeFileInput
	ModeConfirm
)

type FileOperation int

const (
	FileOpSave FileOperation = iota
	FileOpSaveSVG
	FileOpSavePNG
	FileOpSaveVisualTXT
)

type ConfirmAction int

const (
	ConfirmQuit ConfirmAction = iota
	ConfirmOverwriteFile
	ConfirmDeleteRegion
)

type ActionType int

const (
	ActionMoveRegion ActionType = iota
	ActionResizeRegion
	ActionDeleteRegion
)

const (
	// A terminal cell covers cellWidth x cellHeight scene units.
	cellWidth  = 8.0
	cellHeight = 16.0
)
