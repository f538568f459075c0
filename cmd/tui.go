package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/learnx/internal/gate"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/desertthunder/learnx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive course browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = "./tmp/learnx-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	progress, err := r.Progress()
	if err != nil {
		return err
	}

	// The model bootstraps the session so the pending state is visible.
	sessions, err := r.SessionStore()
	if err != nil {
		return err
	}
	r.startAutoRefresh(ctx)

	g := gate.New(sessions)
	defer g.Close()

	model := ui.NewModel(ctx, ui.Deps{
		Catalog:   r.Catalog(),
		Progress:  progress,
		Sessions:  sessions,
		Gate:      g,
		Validator: r.validator,
	})
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
