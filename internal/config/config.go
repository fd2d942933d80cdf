package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Experiment ExperimentConfig `mapstructure:"experiment"`
	Stimuli    StimuliConfig    `mapstructure:"stimuli"`
	Gate       GateConfig       `mapstructure:"gate"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ExperimentConfig holds the session parameters fixed at startup.
type ExperimentConfig struct {
	TrialDurationMS  int     `mapstructure:"trial_duration_ms"`
	Rounds           int     `mapstructure:"rounds"`
	TrialsPerRound   int     `mapstructure:"trials_per_round"`
	ImageTrials      int     `mapstructure:"image_trials"`
	FillerTrials     int     `mapstructure:"filler_trials"`
	SampleIntervalMS float64 `mapstructure:"sample_interval_ms"`

	// Spotlight overlay settings forwarded to the client widget.
	ApertureRadiusPct float64 `mapstructure:"aperture_radius_pct"`
	OverlayOpacity    float64 `mapstructure:"overlay_opacity"`
	OverlayColor      string  `mapstructure:"overlay_color"`
	EdgeSoftnessPct   float64 `mapstructure:"edge_softness_pct"`

	HeatmapRadiusPX    float64 `mapstructure:"heatmap_radius_px"`
	SessionIdleMinutes int     `mapstructure:"session_idle_minutes"`
}

// StimuliConfig points at the stimulus catalog and image assets.
type StimuliConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
	AssetsDir   string `mapstructure:"assets_dir"`
}

// GateConfig holds bcrypt hashes of the per-round access codes, keyed by the
// round number they unlock. Rounds without a hash are ungated.
type GateConfig struct {
	RoundCodes map[int]string `mapstructure:"round_codes"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Experiment defaults: 3 rounds of 20 trials (12 image / 8 filler),
	// 15 s viewing window per trial.
	v.SetDefault("experiment.trial_duration_ms", 15000)
	v.SetDefault("experiment.rounds", 3)
	v.SetDefault("experiment.trials_per_round", 20)
	v.SetDefault("experiment.image_trials", 12)
	v.SetDefault("experiment.filler_trials", 8)
	v.SetDefault("experiment.sample_interval_ms", 16.67)
	v.SetDefault("experiment.aperture_radius_pct", 20.0)
	v.SetDefault("experiment.overlay_opacity", 1.0)
	v.SetDefault("experiment.overlay_color", "#000000")
	v.SetDefault("experiment.edge_softness_pct", 10.0)
	v.SetDefault("experiment.heatmap_radius_px", 40.0)
	v.SetDefault("experiment.session_idle_minutes", 30)

	// Stimuli defaults
	v.SetDefault("stimuli.catalog_path", "config/stimuli.yaml")
	v.SetDefault("stimuli.assets_dir", "assets")
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("FVS") // e.g., FVS_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the initial configuration from the file.
	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal the config into our global Conf variable
	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}
