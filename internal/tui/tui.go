package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1F47E/go-photobooth/internal/logger"
)

// Run owns the terminal until the user quits or ctx ends. Logs go to logPath
// meanwhile. The session is closed on return.
func Run(ctx context.Context, b *Booth, logPath string) error {
	restore, err := logger.ToFile(logPath)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer restore()
	defer b.session.Close()

	if _, err := tea.NewProgram(b, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("booth: %w", err)
	}
	return nil
}
