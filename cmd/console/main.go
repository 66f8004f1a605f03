package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/textland/internal/app"
	"github.com/jwebster45206/textland/internal/config"
	"github.com/jwebster45206/textland/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// The UI owns stdout, so logs only go to LOG_FILE when it is set.
	log := slog.New(slog.NewTextHandler(logger.Output(cfg, io.Discard), &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open save store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	e, err := app.EngineFactory(cfg, store, log)()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not load game content: %v\nCheck DATA_DIR (currently %s).\n", err, cfg.DataDir)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(e, store, log),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
