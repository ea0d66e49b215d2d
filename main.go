// Command reloverlay draws the relations between annotated regions of a scene
// as routed connectors, in a terminal, to a file or to a browser.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"reloverlay/internal/live"
	"reloverlay/internal/overlay"
	"reloverlay/internal/scene"
	"reloverlay/internal/textmetrics"
)

var CLI struct {
	Config    string `name:"config" help:"Config file (default ~/.reloverlayrc)" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn, error"`
	LogFormat string `name:"log-format" help:"Log format: text or json"`
	LogFile   string `name:"log-file" help:"Log file used by the terminal viewer" type:"path"`

	View   ViewCmd   `cmd:"" help:"Open a scene in the terminal viewer"`
	Render RenderCmd `cmd:"" help:"Render a scene's relations to SVG or PNG"`
	Serve  ServeCmd  `cmd:"" help:"Stream a scene's relations to browsers"`
}

// ViewCmd runs the terminal viewer.
type ViewCmd struct {
	Scene string `arg:"" help:"Scene file; created on save if missing" type:"path"`
}

func (c *ViewCmd) Run(cfg *Config) error {
	logger, closeLog, err := fileLogger(cfg)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	sc, err := loadOrCreate(c.Scene)
	if err != nil {
		return err
	}

	refresh := make(chan struct{}, 1)
	o := mountOverlay(sc, logger, func(string) {
		select {
		case refresh <- struct{}{}:
		default:
		}
	})
	defer o.Close()

	p := tea.NewProgram(
		initialModel(sc, o, refresh, cfg, logger, c.Scene),
		tea.WithAltScreen(),
	)
	_, err = p.Run()
	return err
}

// RenderCmd writes one file and exits.
type RenderCmd struct {
	Scene   string `arg:"" help:"Scene file" type:"existingfile"`
	Out     string `short:"o" required:"" help:"Output file, .svg or .png" type:"path"`
	Regions bool   `help:"Write the region layer instead of the relation layer (SVG only)"`
}

func (c *RenderCmd) Run(cfg *Config) error {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	sc, err := scene.Load(c.Scene)
	if err != nil {
		return err
	}
	o := mountOverlay(sc, logger, nil)
	defer o.Close()

	switch ext := strings.ToLower(filepath.Ext(c.Out)); {
	case ext == ".png":
		err = exportPNG(sc, o, c.Out)
	case ext == ".svg" && c.Regions:
		err = exportRegionsSVG(sc, c.Out)
	case ext == ".svg":
		err = exportSVG(o, c.Out)
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}
	if err != nil {
		return err
	}
	logger.Info("rendered scene", "scene", c.Scene, "out", c.Out, "relations", len(o.Snapshot()))
	return nil
}

// ServeCmd runs the live viewer until interrupted.
type ServeCmd struct {
	Scene string `arg:"" help:"Scene file" type:"existingfile"`
	Addr  string `help:"Listen address" default:":8080"`
	Save  bool   `help:"Write the scene back on shutdown"`
}

func (c *ServeCmd) Run(cfg *Config) error {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	sc, err := scene.Load(c.Scene)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := live.NewServer(sc, logger, overlay.WithMeasurer(measurer(logger)))
	if err := srv.ListenAndServe(ctx, c.Addr); err != nil {
		return err
	}
	if c.Save {
		if err := sc.Save(c.Scene); err != nil {
			return err
		}
		logger.Info("scene saved", "scene", c.Scene)
	}
	return nil
}

// mountOverlay returns a mounted overlay showing every relation of sc.
func mountOverlay(sc *scene.Scene, logger *slog.Logger, onRender func(string)) *overlay.Overlay {
	opts := []overlay.Option{
		overlay.WithLogger(logger),
		overlay.WithMeasurer(measurer(logger)),
	}
	if onRender != nil {
		opts = append(opts, overlay.WithRenderHook(onRender))
	}
	o := overlay.New(sc, opts...)
	o.SetVisible(sc.Visible())
	o.Mount()
	o.Update(sc.Descriptors(), sc.Highlighted())
	return o
}

// measurer measures labels with Go Regular, or estimates them if the font
// cannot be loaded.
func measurer(logger *slog.Logger) overlay.Measurer {
	m, err := textmetrics.New(textmetrics.Size)
	if err != nil {
		logger.Warn("label font unavailable, estimating label sizes", "error", err)
		return overlay.DefaultMeasurer
	}
	return m
}

func loadOrCreate(path string) (*scene.Scene, error) {
	sc, err := scene.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return scene.New(), nil
	}
	return sc, err
}

// resolveConfig reads the config file and applies flag overrides.
func resolveConfig() *Config {
	cfg := loadConfig()
	if CLI.Config != "" {
		homeDir, _ := os.UserHomeDir()
		cfg = loadConfigFile(CLI.Config, homeDir)
	}
	if CLI.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(CLI.LogLevel)
	}
	if CLI.LogFormat != "" {
		cfg.LogFormat = strings.ToLower(CLI.LogFormat)
	}
	if CLI.LogFile != "" {
		cfg.LogFile = CLI.LogFile
	}
	return cfg
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("reloverlay"),
		kong.Description("Routed relation overlays for annotated scenes"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(resolveConfig())
	ctx.FatalIfErrorf(err)
}
