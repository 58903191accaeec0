package state

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Paintersrp/vfeed/internal/config"
	"github.com/Paintersrp/vfeed/internal/metrics"
	"github.com/Paintersrp/vfeed/internal/source"
)

const (
	retryBackoff = 250 * time.Millisecond
	watchSettle  = 150 * time.Millisecond
)

// State holds everything a command needs once configuration is resolved.
type State struct {
	Config  *config.Config
	Home    string
	Pager   source.Pager
	Vault   *source.VaultSource
	Watcher *source.Watcher
	Metrics *metrics.Observer
}

// NewState loads the configuration and builds the item source it selects.
func NewState(file string, opts ...config.LoadOption) (*State, error) {
	home, err := GetHomeDir()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(home, file, opts...)
	if err != nil {
		return nil, err
	}
	return FromConfig(cfg, home)
}

// FromConfig builds the runtime state for an already loaded configuration.
func FromConfig(cfg *config.Config, home string) (*State, error) {
	if err := cfg.RequireSource(); err != nil {
		return nil, err
	}

	s := &State{Config: cfg, Home: home, Metrics: metrics.NewObserver()}

	var base source.Pager
	switch cfg.Source.Kind {
	case config.SourceVault:
		vault, err := source.NewVaultSource(cfg.Source.VaultDir)
		if err != nil {
			return nil, err
		}
		s.Vault = vault
		base = vault

		if cfg.Source.Watch {
			watcher, err := source.NewWatcher(vault.Dir(), watchSettle)
			if err != nil {
				return nil, fmt.Errorf("failed to create vault watcher: %w", err)
			}
			s.Watcher = watcher
		}
	default:
		base = source.NewSyntheticSource(
			cfg.Source.SyntheticCount,
			source.WithLatency(cfg.Source.Latency),
			source.WithFailEvery(cfg.Source.FailEvery),
		)
	}

	s.Pager = source.NewRetrying(base, cfg.Source.Retries, retryBackoff)
	return s, nil
}

func GetHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory. err: %s", err)
	}

	return home, nil
}

// Close releases the vault watcher, if any.
func (s *State) Close() error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.Watcher != nil {
		if err := s.Watcher.Close(); err != nil {
			errs = append(errs, err)
		}
		s.Watcher = nil
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
