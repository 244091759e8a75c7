package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/stillpoint/stillpoint-app/internal/config"
	"github.com/stillpoint/stillpoint-app/internal/feedback"
	"github.com/stillpoint/stillpoint-app/internal/session"
	"github.com/stillpoint/stillpoint-app/internal/store"
	"github.com/stillpoint/stillpoint-app/internal/ui"
)

// chanWriter forwards log lines to the UI log pane. Drops lines when the
// channel is full so logging can never stall the app.
type chanWriter struct {
	ch chan<- string
}

func (w *chanWriter) Write(p []byte) (int, error) {
	line := string(p)
	select {
	case w.ch <- line:
	default:
	}
	return len(p), nil
}

func main() {
	fs := pflag.NewFlagSet("stillpoint", pflag.ExitOnError)
	config.RegisterFlags(fs)
	must("parse flags", fs.Parse(os.Args[1:]))

	cfg, err := config.Load(fs, store.DefaultDir())
	must("load config", err)

	must("create data dir", os.MkdirAll(cfg.DataDir, 0755))

	// Log to a rotated file and tee every line into the UI log pane. Never
	// stdout: the terminal belongs to the curses UI.
	uiLogChan := make(chan string, 100)
	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}
	logger := log.New(io.MultiWriter(rotator, &chanWriter{ch: uiLogChan}), "", log.LstdFlags)
	logger.Printf("stillpoint starting (data dir %s)", cfg.DataDir)

	catalog := session.NewCatalog(logger)
	if cfg.CatalogFile != "" {
		if err := catalog.LoadFile(cfg.CatalogFile); err != nil {
			logger.Printf("Catalog file skipped: %v", err)
		}
	}

	st := store.New(cfg.DataDir, logger)

	engine := session.NewController(logger, session.Options{
		MinimumEligible: cfg.MinSession(),
	})

	dispatcher := session.NewDispatcher(engine, session.Sinks{
		Audio:     feedback.NewPlayer(cfg.PlayerCommand, logger),
		Haptics:   feedback.NewTerminalHaptics(os.Stdout, logger),
		Announcer: feedback.NewLogAnnouncer(logger),
		History:   st,
	}, logger)

	scheduler := session.NewTickScheduler(engine, cfg.TickInterval(), logger)

	app := tview.NewApplication()
	model := ui.NewModel(engine, logger, uiLogChan)
	controller := ui.NewController(model, engine, catalog, st, logger)
	view := ui.NewCursesView(logger, app, model, controller)

	runErr := view.Run()

	// Teardown order matters: stop producing ticks first, then the effect
	// pipeline, then the UI plumbing.
	scheduler.Stop()
	if err := engine.Stop(); err != nil {
		logger.Printf("Final stop: %v", err)
	}
	dispatcher.Shutdown()
	view.Shutdown()
	model.Shutdown()
	logger.Println("stillpoint stopped")

	must("run UI", runErr)
}

func must(action string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to %s: %v\n", action, err)
		os.Exit(1)
	}
}
