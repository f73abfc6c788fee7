package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Defaults shared by config parsing and the CLI flag definitions
const (
	DefaultConfigFile     = ".chi32.kdl"
	DefaultDataDir        = "validation/canonical_data"
	DefaultMetaFileName   = "chi32_canonical_meta.csv"
	DefaultMaxMismatches  = 5
	DefaultStreamBuffer   = 64 * 1024
	DefaultBattery        = "small"
	DefaultWalkerSteps    = 4_000_000
	DefaultWalkerScale    = 3
	DefaultWalkerOutDir   = "walks"
	DefaultGeneratedDir   = "generated_canonical_data"
	maxReasonableWorkers  = 256
	minStreamBufferValues = 1
)

type Config struct {
	Version   int
	Canonical Canonical
	Stream    Stream
	Battery   Battery
	Walker    Walker
}

type Canonical struct {
	DataDir       string // Directory holding the metadata table and reference data
	MetaFile      string // Metadata table file name inside DataDir
	MaxMismatches int    // Mismatches reported in full per case; the rest are counted
	OutDir        string // Output directory for generated vectors
}

type Stream struct {
	BufferSize int // Bytes buffered before each write; rounded down to whole values
}

type Battery struct {
	Default string // Battery used when none is named
	Workers int    // Tests run concurrently; 0 = NumCPU
}

type Walker struct {
	Steps      uint64
	ScaleShift int
	OutDir     string
	Generators []string // Empty means every registered generator
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Version: 1,
		Canonical: Canonical{
			DataDir:       DefaultDataDir,
			MetaFile:      DefaultMetaFileName,
			MaxMismatches: DefaultMaxMismatches,
			OutDir:        DefaultGeneratedDir,
		},
		Stream: Stream{
			BufferSize: DefaultStreamBuffer,
		},
		Battery: Battery{
			Default: DefaultBattery,
			Workers: runtime.NumCPU(),
		},
		Walker: Walker{
			Steps:      DefaultWalkerSteps,
			ScaleShift: DefaultWalkerScale,
			OutDir:     DefaultWalkerOutDir,
		},
	}
}

// Load reads the KDL config at path. A missing file yields defaults.
// Relative directories in the file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		return cfg, NewValidator().ValidateAndSetDefaults(cfg)
	}

	cfg, err := LoadKDL(path)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	cfg.Canonical.DataDir = resolve(base, cfg.Canonical.DataDir)
	cfg.Canonical.OutDir = resolve(base, cfg.Canonical.OutDir)
	cfg.Walker.OutDir = resolve(base, cfg.Walker.OutDir)

	if err := NewValidator().ValidateAndSetDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MetaPath returns the path of the metadata table for the configured data dir.
func (c *Config) MetaPath() string {
	return filepath.Join(c.Canonical.DataDir, c.Canonical.MetaFile)
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}
