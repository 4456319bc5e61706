package main

import (
	"context"
	"fmt"

	"github.com/avetrov/chorus/internal/shared"
	"github.com/avetrov/chorus/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive terminal catalog browser.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	gateway, err := r.requireGateway(config)
	if err != nil {
		return err
	}

	db, catalog, engine, err := r.openCatalog(config)
	if err != nil {
		return err
	}
	defer db.Close()

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/chorus-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, gateway, engine, catalog)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
