package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Paintersrp/vfeed/internal/state"
)

// Run starts the feed browser and blocks until it exits. anchor, when set,
// is the identity of the item to open on.
func Run(st *state.State, anchor string) error {
	cfg := st.Config

	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "vfeed")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := st.Metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Printf("metrics: %v", err)
			}
		}()
	}

	m := New(Options{
		Config:   cfg,
		Pager:    st.Pager,
		Watcher:  st.Watcher,
		Observer: st.Metrics,
		Anchor:   anchor,
	})

	opts := []tea.ProgramOption{tea.WithInput(os.Stdin), tea.WithAltScreen()}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		if strings.Contains(err.Error(), "resource temporarily unavailable") {
			return nil
		}
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
