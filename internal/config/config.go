package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"qics/domain/scaling"
	"qics/internal/errors"
)

// Deviation window names accepted by QICS_DEVIATION_WINDOW.
const (
	WindowOuterHalf = "outer-half"
	WindowFull      = "full"
)

// Config represents the complete application configuration
type Config struct {
	Physics    PhysicsConfig
	Phase      PhaseConfig
	Deviation  DeviationConfig
	Bootstrap  BootstrapConfig
	Scaling    ScalingConfig
	Data       DataConfig
	Batch      BatchConfig
	Simulation SimulationConfig
	Database   DatabaseConfig
	Server     ServerConfig
}

// PhysicsConfig holds the constants of the acceleration model
type PhysicsConfig struct {
	A0             float64 // characteristic acceleration in m/s^2
	MLDisk         float64 // disk mass-to-light weight
	MLGas          float64 // gas mass-to-light weight
	MLBulge        float64 // bulge mass-to-light weight
	RadiusFloorKpc float64 // radii below this are clamped before division
	GBarFloor      float64 // baryonic acceleration floor in m/s^2
}

// PhaseConfig holds phase classification settings
type PhaseConfig struct {
	Epsilon   float64 // added inside the log to guard zero gradients
	MinPoints int     // curves with fewer usable samples are excluded
	Threshold float64 // metric boundary between ordered and chaotic
}

// DeviationConfig holds deviation spectrum settings
type DeviationConfig struct {
	Window      string  // which radii enter the mean: outer-half or full
	StandardPct float64 // |deviation| below this is STANDARD
	SignalPct   float64 // |deviation| at or above this is SIGNAL
}

// BootstrapConfig holds resampling settings
type BootstrapConfig struct {
	Resamples  int
	Confidence float64
	Seed       int64
	Workers    int
}

// ScalingConfig holds scaling study settings
type ScalingConfig struct {
	MaxRemove       int // outlier sensitivity removes up to this many points
	ReferencePoints []scaling.ReferencePoint
}

// DataConfig holds data loading settings
type DataConfig struct {
	Dir       string
	Pattern   string
	ExcelFile string
}

// BatchConfig holds batch runner settings
type BatchConfig struct {
	Concurrency int
}

// SimulationConfig holds synthetic curve generation settings.
// Simulation never runs unless explicitly enabled.
type SimulationConfig struct {
	Enabled       bool
	Seed          int64
	NoiseSigmaKms float64
	VErrKms       float64
}

// DatabaseConfig holds database connection settings. URL may be empty:
// only commands that persist results require it.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Physics:    loadPhysicsConfig(),
		Phase:      loadPhaseConfig(),
		Deviation:  loadDeviationConfig(),
		Bootstrap:  loadBootstrapConfig(),
		Data:       loadDataConfig(),
		Batch:      loadBatchConfig(),
		Simulation: loadSimulationConfig(),
		Database:   loadDatabaseConfig(),
		Server:     loadServerConfig(),
	}

	scalingConfig, err := loadScalingConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load scaling configuration")
	}
	config.Scaling = *scalingConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadPhysicsConfig() PhysicsConfig {
	return PhysicsConfig{
		A0:             getEnvFloatOrDefault("QICS_A0", 1.23e-10),
		MLDisk:         getEnvFloatOrDefault("QICS_ML_DISK", 0.5),
		MLGas:          getEnvFloatOrDefault("QICS_ML_GAS", 1.0),
		MLBulge:        getEnvFloatOrDefault("QICS_ML_BULGE", 0.7),
		RadiusFloorKpc: getEnvFloatOrDefault("QICS_RADIUS_FLOOR_KPC", 0.01),
		GBarFloor:      getEnvFloatOrDefault("QICS_GBAR_FLOOR", 1e-15),
	}
}

func loadPhaseConfig() PhaseConfig {
	return PhaseConfig{
		Epsilon:   getEnvFloatOrDefault("QICS_PHASE_EPSILON", 1e-10),
		MinPoints: getEnvIntOrDefault("QICS_PHASE_MIN_POINTS", 5),
		Threshold: getEnvFloatOrDefault("QICS_PHASE_THRESHOLD", 0.5),
	}
}

func loadDeviationConfig() DeviationConfig {
	return DeviationConfig{
		Window:      getEnvOrDefault("QICS_DEVIATION_WINDOW", WindowOuterHalf),
		StandardPct: getEnvFloatOrDefault("QICS_ZONE_STANDARD_PCT", 10),
		SignalPct:   getEnvFloatOrDefault("QICS_ZONE_SIGNAL_PCT", 25),
	}
}

func loadBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Resamples:  getEnvIntOrDefault("QICS_BOOTSTRAP_RESAMPLES", 10000),
		Confidence: getEnvFloatOrDefault("QICS_BOOTSTRAP_CONFIDENCE", 0.95),
		Seed:       getEnvInt64OrDefault("QICS_BOOTSTRAP_SEED", 42),
		Workers:    getEnvIntOrDefault("QICS_BOOTSTRAP_WORKERS", 4),
	}
}

func loadScalingConfig() (*ScalingConfig, error) {
	cfg := &ScalingConfig{
		MaxRemove:       getEnvIntOrDefault("QICS_MAX_REMOVE", 5),
		ReferencePoints: scaling.DefaultReferencePoints(),
	}

	if raw := os.Getenv("QICS_REFERENCE_POINTS"); raw != "" {
		var points []scaling.ReferencePoint
		if err := json.Unmarshal([]byte(raw), &points); err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("QICS_REFERENCE_POINTS is not valid JSON: %v", err))
		}
		cfg.ReferencePoints = points
	}

	return cfg, nil
}

func loadDataConfig() DataConfig {
	return DataConfig{
		Dir:       getEnvOrDefault("QICS_DATA_DIR", "./data"),
		Pattern:   getEnvOrDefault("QICS_DATA_PATTERN", "*_rotmod.dat"),
		ExcelFile: getEnvOrDefault("QICS_EXCEL_FILE", ""),
	}
}

func loadBatchConfig() BatchConfig {
	return BatchConfig{
		Concurrency: getEnvIntOrDefault("QICS_BATCH_CONCURRENCY", 4),
	}
}

func loadSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Enabled:       getEnvBoolOrDefault("QICS_SIMULATION_ENABLED", false),
		Seed:          getEnvInt64OrDefault("QICS_SIM_SEED", 42),
		NoiseSigmaKms: getEnvFloatOrDefault("QICS_SIM_NOISE_SIGMA", 2.0),
		VErrKms:       getEnvFloatOrDefault("QICS_SIM_VERR", 5.0),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL: getEnvOrDefault("DATABASE_URL", ""),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func validateConfig(config *Config) error {
	if config.Physics.A0 <= 0 {
		return errors.ConfigInvalid("QICS_A0 must be positive")
	}
	if config.Physics.MLDisk < 0 || config.Physics.MLGas < 0 || config.Physics.MLBulge < 0 {
		return errors.ConfigInvalid("mass-to-light weights cannot be negative")
	}
	if config.Physics.RadiusFloorKpc <= 0 {
		return errors.ConfigInvalid("QICS_RADIUS_FLOOR_KPC must be positive")
	}
	if config.Physics.GBarFloor <= 0 {
		return errors.ConfigInvalid("QICS_GBAR_FLOOR must be positive")
	}
	if config.Phase.Epsilon <= 0 {
		return errors.ConfigInvalid("QICS_PHASE_EPSILON must be positive")
	}
	if config.Phase.MinPoints < 2 {
		return errors.ConfigInvalid("QICS_PHASE_MIN_POINTS must be at least 2")
	}
	if config.Phase.Threshold <= 0 {
		return errors.ConfigInvalid("QICS_PHASE_THRESHOLD must be positive")
	}
	if config.Deviation.Window != WindowOuterHalf && config.Deviation.Window != WindowFull {
		return errors.ConfigInvalid(fmt.Sprintf("QICS_DEVIATION_WINDOW must be %q or %q", WindowOuterHalf, WindowFull))
	}
	if config.Deviation.StandardPct <= 0 || config.Deviation.SignalPct <= config.Deviation.StandardPct {
		return errors.ConfigInvalid("zone thresholds must satisfy 0 < standard < signal")
	}
	if config.Bootstrap.Resamples < 1 {
		return errors.ConfigInvalid("QICS_BOOTSTRAP_RESAMPLES must be at least 1")
	}
	if config.Bootstrap.Confidence <= 0 || config.Bootstrap.Confidence >= 1 {
		return errors.ConfigInvalid("QICS_BOOTSTRAP_CONFIDENCE must be in (0, 1)")
	}
	if config.Bootstrap.Workers < 1 {
		return errors.ConfigInvalid("QICS_BOOTSTRAP_WORKERS must be at least 1")
	}
	if config.Scaling.MaxRemove < 0 {
		return errors.ConfigInvalid("QICS_MAX_REMOVE cannot be negative")
	}
	for _, p := range config.Scaling.ReferencePoints {
		if p.Label == "" {
			return errors.ConfigInvalid("reference point label cannot be empty")
		}
		if p.RadiusKpc <= 0 || p.VelocityKms <= 0 {
			return errors.ConfigInvalid(fmt.Sprintf("reference point %q must have positive radius and velocity", p.Label))
		}
	}
	if config.Batch.Concurrency < 1 {
		return errors.ConfigInvalid("QICS_BATCH_CONCURRENCY must be at least 1")
	}
	if config.Simulation.NoiseSigmaKms < 0 {
		return errors.ConfigInvalid("QICS_SIM_NOISE_SIGMA cannot be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// Params flattens the numeric settings into a string map for config
// fingerprinting.
func (c *Config) Params() map[string]string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return map[string]string{
		"a0":               f(c.Physics.A0),
		"ml_disk":          f(c.Physics.MLDisk),
		"ml_gas":           f(c.Physics.MLGas),
		"ml_bulge":         f(c.Physics.MLBulge),
		"radius_floor":     f(c.Physics.RadiusFloorKpc),
		"gbar_floor":       f(c.Physics.GBarFloor),
		"phase_epsilon":    f(c.Phase.Epsilon),
		"phase_min_points": strconv.Itoa(c.Phase.MinPoints),
		"phase_threshold":  f(c.Phase.Threshold),
		"deviation_window": c.Deviation.Window,
		"zone_standard":    f(c.Deviation.StandardPct),
		"zone_signal":      f(c.Deviation.SignalPct),
		"resamples":        strconv.Itoa(c.Bootstrap.Resamples),
		"confidence":       f(c.Bootstrap.Confidence),
		"seed":             strconv.FormatInt(c.Bootstrap.Seed, 10),
		"max_remove":       strconv.Itoa(c.Scaling.MaxRemove),
	}
}
