package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"t12insight/internal/quality"
)

// AppConfig is the application configuration, read from config.toml
// beside the executable and never mutated after startup.
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Quality  quality.Config `toml:"quality"`
}

// ServerConfig holds the HTTP boundary settings.
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig locates the run store.
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// PipelineConfig tunes detection and the accounting-identity check.
type PipelineConfig struct {
	// DetectionThreshold is the minimum confidence a processor must
	// reach to claim an upload.
	DetectionThreshold float64 `toml:"detection_threshold"`
	// YTDTolerance is the allowed absolute gap between the summed
	// monthly records and the reported YTD figure.
	YTDTolerance float64 `toml:"ytd_tolerance"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20412,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Pipeline: PipelineConfig{
			DetectionThreshold: 0.5,
			YTDTolerance:       1.0,
		},
		Quality: quality.DefaultConfig(),
	}
}

// GetExeDir returns the directory of the running executable.
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig reads config.toml from the executable's directory,
// falling back to defaults when the file is absent. Environment
// variables override individual fields for local runs.
func LoadConfig() (*AppConfig, error) {
	config := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(config)
			return config, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	applyEnv(config)
	return config, nil
}

func applyEnv(config *AppConfig) {
	if v := os.Getenv("T12INSIGHT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("T12INSIGHT_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv("T12INSIGHT_DETECTION_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil && t > 0 && t <= 1 {
			config.Pipeline.DetectionThreshold = t
		}
	}
}

// SaveConfig writes the configuration back to config.toml.
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(exeDir, "config.toml"), data, 0644)
}

// EnsureDataDir creates the data directory. Relative paths are rooted
// next to the executable, absolute paths are used as-is.
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}
