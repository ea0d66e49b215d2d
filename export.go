package main

import (
	"bufio"
	"fmt"
	"os"

	"reloverlay/internal/overlay"
	"reloverlay/internal/raster"
	"reloverlay/internal/scene"
)

// exportSVG writes the relation layer.
func exportSVG(o *overlay.Overlay, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := o.Render(file); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return file.Close()
}

// exportRegionsSVG writes the region layer that the relation layer sits on.
func exportRegionsSVG(sc *scene.Scene, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	sc.WriteSVG(w)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return file.Close()
}

// exportPNG draws regions and relations into one image.
func exportPNG(sc *scene.Scene, o *overlay.Overlay, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	opts := raster.Options{Regions: rasterRegions(sc)}
	if err := raster.WritePNG(file, o.Snapshot(), opts); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return file.Close()
}

// rasterRegions returns the scene's regions in the overlay's coordinates.
func rasterRegions(sc *scene.Scene) []raster.Region {
	origin := sc.Origin()
	var regions []raster.Region
	for _, r := range sc.Regions() {
		regions = append(regions, raster.Region{
			Box:   r.BoundingBox().Translate(-origin.X, -origin.Y),
			Label: r.Label(),
		})
	}
	return regions
}

// exportVisualTXT writes the character grid as it appears on screen, without
// cursor or selection.
func (m *model) exportVisualTXT(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	width := m.width
	if width < 1 {
		width = 80
	}
	height := m.height - 1
	if height < 1 {
		height = 24
	}

	var views []overlay.View
	if m.overlay.Visible() {
		views = m.overlay.Snapshot()
	}
	rendered := NewCanvas(width, height, m.panX, m.panY).Render(m.scene, views, "")

	w := bufio.NewWriter(file)
	for _, line := range rendered {
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}
