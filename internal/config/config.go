package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Paintersrp/vfeed/internal/constants"
	"github.com/Paintersrp/vfeed/internal/vlist"
)

const (
	SourceVault     = "vault"
	SourceSynthetic = "synthetic"
)

// Engine holds the list engine tunables. Heights are in terminal rows.
type Engine struct {
	DefaultHeight     int           `mapstructure:"default_height"`
	ExpandedHeight    int           `mapstructure:"expanded_height"`
	LoadingHeight     int           `mapstructure:"loading_height"`
	MinHeight         int           `mapstructure:"min_height"`
	JitterThreshold   int           `mapstructure:"jitter_threshold"`
	OverscanBaseline  int           `mapstructure:"overscan_baseline"`
	OverscanMin       int           `mapstructure:"overscan_min"`
	OverscanMax       int           `mapstructure:"overscan_max"`
	ScrollFlushFrames int           `mapstructure:"scroll_flush_frames"`
	QuietInterval     time.Duration `mapstructure:"quiet_interval"`
	VelocityScale     float64       `mapstructure:"velocity_scale"`
	MaxVelocity       float64       `mapstructure:"max_velocity"`
	IdleVelocity      float64       `mapstructure:"idle_velocity"`
	DecayFactor       float64       `mapstructure:"decay_factor"`
	EaseFactor        float64       `mapstructure:"ease_factor"`
	SmoothingMin      float64       `mapstructure:"smoothing_min"`
	SmoothingMax      float64       `mapstructure:"smoothing_max"`
	PrefetchThreshold int           `mapstructure:"prefetch_threshold"`
	PrefetchDebounce  time.Duration `mapstructure:"prefetch_debounce"`
}

type Source struct {
	Kind           string        `mapstructure:"kind"`
	VaultDir       string        `mapstructure:"vault_dir"`
	PageSize       int           `mapstructure:"page_size"`
	SyntheticCount int           `mapstructure:"synthetic_count"`
	Latency        time.Duration `mapstructure:"latency"`
	FailEvery      int           `mapstructure:"fail_every"`
	Retries        int           `mapstructure:"retries"`
	Watch          bool          `mapstructure:"watch"`
}

type UI struct {
	GlamourStyle    string        `mapstructure:"glamour_style"`
	FrameInterval   time.Duration `mapstructure:"frame_interval"`
	DetailCacheSize int           `mapstructure:"detail_cache_size"`
	Mouse           bool          `mapstructure:"mouse"`
}

type Config struct {
	Engine      Engine `mapstructure:"engine"`
	Source      Source `mapstructure:"source"`
	UI          UI     `mapstructure:"ui"`
	LogFile     string `mapstructure:"log_file"`
	MetricsAddr string `mapstructure:"metrics_addr"`

	path string
}

// Default returns the configuration used when no file overrides a key.
func Default() *Config {
	return &Config{
		Engine: Engine{
			DefaultHeight:     3,
			ExpandedHeight:    14,
			LoadingHeight:     4,
			MinHeight:         1,
			JitterThreshold:   0,
			OverscanBaseline:  8,
			OverscanMin:       5,
			OverscanMax:       20,
			ScrollFlushFrames: 2,
			QuietInterval:     200 * time.Millisecond,
			VelocityScale:     16,
			MaxVelocity:       8,
			IdleVelocity:      0.05,
			DecayFactor:       0.85,
			EaseFactor:        0.25,
			SmoothingMin:      0.1,
			SmoothingMax:      0.6,
			PrefetchThreshold: 5,
			PrefetchDebounce:  50 * time.Millisecond,
		},
		Source: Source{
			Kind:           SourceSynthetic,
			PageSize:       50,
			SyntheticCount: 1000,
			Retries:        2,
		},
		UI: UI{
			GlamourStyle:    "auto",
			FrameInterval:   16 * time.Millisecond,
			DetailCacheSize: 64,
			Mouse:           true,
		},
	}
}

// LoadOption adjusts the viper instance before the file is read.
type LoadOption func(v *viper.Viper) error

// WithFlag lets a command-line flag override key when it was set.
func WithFlag(key string, flag *pflag.Flag) LoadOption {
	return func(v *viper.Viper) error {
		if flag == nil {
			return nil
		}
		return v.BindPFlag(key, flag)
	}
}

func GetConfigPath(homeDir string) string {
	return filepath.Join(
		homeDir,
		constants.ConfigDir,
		constants.ConfigFile+"."+constants.ConfigFileType,
	)
}

// Load reads file, or the default path under home when file is empty. A
// missing default file is not an error: the defaults and the environment
// still apply.
func Load(home, file string, opts ...LoadOption) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default().document(), "")

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(filepath.Join(home, constants.ConfigDir))
		v.SetConfigName(constants.ConfigFile)
		v.SetConfigType(constants.ConfigFileType)
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.path = v.ConfigFileUsed()
	if cfg.path == "" {
		cfg.path = GetConfigPath(home)
	}
	cfg.Source.VaultDir = expandHome(cfg.Source.VaultDir, home)
	cfg.LogFile = expandHome(cfg.LogFile, home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the configuration was read from, or would be
// written to.
func (cfg *Config) Path() string {
	return cfg.path
}

// Validate rejects tunables the engine cannot honour.
func (cfg *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	e := cfg.Engine
	check(e.DefaultHeight > 0, "engine.default_height must be positive, got %d", e.DefaultHeight)
	check(e.ExpandedHeight > 0, "engine.expanded_height must be positive, got %d", e.ExpandedHeight)
	check(e.LoadingHeight > 0, "engine.loading_height must be positive, got %d", e.LoadingHeight)
	check(e.MinHeight > 0, "engine.min_height must be positive, got %d", e.MinHeight)
	check(e.JitterThreshold >= 0, "engine.jitter_threshold cannot be negative")
	check(e.OverscanMin > 0, "engine.overscan_min must be positive, got %d", e.OverscanMin)
	check(e.OverscanMin <= e.OverscanMax,
		"engine.overscan_min (%d) exceeds engine.overscan_max (%d)", e.OverscanMin, e.OverscanMax)
	check(e.OverscanBaseline >= e.OverscanMin && e.OverscanBaseline <= e.OverscanMax,
		"engine.overscan_baseline (%d) must lie in [%d, %d]", e.OverscanBaseline, e.OverscanMin, e.OverscanMax)
	check(e.ScrollFlushFrames >= 1, "engine.scroll_flush_frames must be at least 1")
	check(e.QuietInterval > 0, "engine.quiet_interval must be positive")
	check(e.VelocityScale > 0, "engine.velocity_scale must be positive")
	check(e.MaxVelocity > 0, "engine.max_velocity must be positive")
	check(e.IdleVelocity > 0, "engine.idle_velocity must be positive")
	check(e.DecayFactor > 0 && e.DecayFactor < 1, "engine.decay_factor must lie in (0, 1), got %v", e.DecayFactor)
	check(e.EaseFactor > 0 && e.EaseFactor <= 1, "engine.ease_factor must lie in (0, 1], got %v", e.EaseFactor)
	check(e.SmoothingMin > 0 && e.SmoothingMin <= e.SmoothingMax && e.SmoothingMax <= 1,
		"engine smoothing bounds must satisfy 0 < smoothing_min <= smoothing_max <= 1")
	check(e.PrefetchThreshold >= 0, "engine.prefetch_threshold cannot be negative")
	check(e.PrefetchDebounce >= 0, "engine.prefetch_debounce cannot be negative")

	s := cfg.Source
	check(s.Kind == SourceVault || s.Kind == SourceSynthetic,
		"source.kind must be %q or %q, got %q", SourceVault, SourceSynthetic, s.Kind)
	check(s.PageSize > 0, "source.page_size must be positive")
	check(s.SyntheticCount >= 0, "source.synthetic_count cannot be negative")
	check(s.Latency >= 0, "source.latency cannot be negative")
	check(s.FailEvery >= 0, "source.fail_every cannot be negative")
	check(s.Retries >= 0, "source.retries cannot be negative")

	check(cfg.UI.FrameInterval > 0, "ui.frame_interval must be positive")
	check(cfg.UI.DetailCacheSize > 0, "ui.detail_cache_size must be positive")

	return errors.Join(errs...)
}

// RequireSource reports settings that are valid in isolation but leave the
// selected source unusable.
func (cfg *Config) RequireSource() error {
	if cfg.Source.Kind != SourceVault {
		return nil
	}
	dir := strings.TrimSpace(cfg.Source.VaultDir)
	if dir == "" {
		return &InitError{msg: `required config variable "source.vault_dir" is not set`}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return &InitError{msg: fmt.Sprintf("vault directory %q does not exist", dir)}
	}
	return nil
}

// Options converts the engine section into list options.
func (cfg *Config) Options() vlist.Options {
	e := cfg.Engine
	return vlist.Options{
		DefaultHeight:     e.DefaultHeight,
		ExpandedHeight:    e.ExpandedHeight,
		LoadingHeight:     e.LoadingHeight,
		MinHeight:         e.MinHeight,
		JitterThreshold:   e.JitterThreshold,
		OverscanBaseline:  e.OverscanBaseline,
		OverscanMin:       e.OverscanMin,
		OverscanMax:       e.OverscanMax,
		FrameInterval:     cfg.UI.FrameInterval,
		ScrollFlushFrames: e.ScrollFlushFrames,
		QuietInterval:     e.QuietInterval,
		VelocityScale:     e.VelocityScale,
		MaxVelocity:       e.MaxVelocity,
		IdleVelocity:      e.IdleVelocity,
		DecayFactor:       e.DecayFactor,
		EaseFactor:        e.EaseFactor,
		SmoothingMin:      e.SmoothingMin,
		SmoothingMax:      e.SmoothingMax,
		PrefetchThreshold: e.PrefetchThreshold,
		PrefetchDebounce:  e.PrefetchDebounce,
	}
}

// Marshal renders the configuration as the YAML document Load accepts.
func (cfg *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(cfg.document())
}

// WriteDefaults writes the default configuration to path. An existing file
// is only replaced when force is set.
func WriteDefaults(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %q already exists", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config file existence: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := Default().Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// document is the nested key layout shared by the defaults, the written
// file and `config show`. Durations are written in their string form.
func (cfg *Config) document() map[string]any {
	e, s, u := cfg.Engine, cfg.Source, cfg.UI
	return map[string]any{
		"engine": map[string]any{
			"default_height":      e.DefaultHeight,
			"expanded_height":     e.ExpandedHeight,
			"loading_height":      e.LoadingHeight,
			"min_height":          e.MinHeight,
			"jitter_threshold":    e.JitterThreshold,
			"overscan_baseline":   e.OverscanBaseline,
			"overscan_min":        e.OverscanMin,
			"overscan_max":        e.OverscanMax,
			"scroll_flush_frames": e.ScrollFlushFrames,
			"quiet_interval":      e.QuietInterval.String(),
			"velocity_scale":      e.VelocityScale,
			"max_velocity":        e.MaxVelocity,
			"idle_velocity":       e.IdleVelocity,
			"decay_factor":        e.DecayFactor,
			"ease_factor":         e.EaseFactor,
			"smoothing_min":       e.SmoothingMin,
			"smoothing_max":       e.SmoothingMax,
			"prefetch_threshold":  e.PrefetchThreshold,
			"prefetch_debounce":   e.PrefetchDebounce.String(),
		},
		"source": map[string]any{
			"kind":            s.Kind,
			"vault_dir":       s.VaultDir,
			"page_size":       s.PageSize,
			"synthetic_count": s.SyntheticCount,
			"latency":         s.Latency.String(),
			"fail_every":      s.FailEvery,
			"retries":         s.Retries,
			"watch":           s.Watch,
		},
		"ui": map[string]any{
			"glamour_style":     u.GlamourStyle,
			"frame_interval":    u.FrameInterval.String(),
			"detail_cache_size": u.DetailCacheSize,
			"mouse":             u.Mouse,
		},
		"log_file":     cfg.LogFile,
		"metrics_addr": cfg.MetricsAddr,
	}
}

// setDefaults registers every leaf of doc so AutomaticEnv can see it.
func setDefaults(v *viper.Viper, doc map[string]any, prefix string) {
	for key, value := range doc {
		if nested, ok := value.(map[string]any); ok {
			setDefaults(v, nested, prefix+key+".")
			continue
		}
		v.SetDefault(prefix+key, value)
	}
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
