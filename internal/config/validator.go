package config

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"

	chierrors "github.com/standardbeagle/chi32/internal/errors"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
// Returns an error if validation fails
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateCanonicalConfig(&cfg.Canonical); err != nil {
		return chierrors.NewConfigError("canonical", cfg.Canonical.DataDir, err)
	}

	if err := v.validateStreamConfig(&cfg.Stream); err != nil {
		return chierrors.NewConfigError("stream.buffer_size", strconv.Itoa(cfg.Stream.BufferSize), err)
	}

	if err := v.validateBatteryConfig(&cfg.Battery); err != nil {
		return chierrors.NewConfigError("battery.workers", strconv.Itoa(cfg.Battery.Workers), err)
	}

	if err := v.validateWalkerConfig(&cfg.Walker); err != nil {
		return chierrors.NewConfigError("walker", "", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

// validateCanonicalConfig validates canonical vector configuration
func (v *Validator) validateCanonicalConfig(c *Canonical) error {
	if c.DataDir == "" {
		return errors.New("data_dir cannot be empty")
	}
	if c.MetaFile == "" {
		return errors.New("meta_file cannot be empty")
	}
	if c.MaxMismatches < 0 {
		return fmt.Errorf("max_mismatches must not be negative, got %d", c.MaxMismatches)
	}
	return nil
}

// validateStreamConfig validates stream configuration
func (v *Validator) validateStreamConfig(s *Stream) error {
	if s.BufferSize < 4*minStreamBufferValues {
		return fmt.Errorf("buffer_size must hold at least one 4-byte value, got %d", s.BufferSize)
	}
	return nil
}

// validateBatteryConfig validates battery configuration
func (v *Validator) validateBatteryConfig(b *Battery) error {
	if b.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", b.Workers)
	}
	if b.Workers > maxReasonableWorkers {
		return fmt.Errorf("workers should not exceed %d, got %d", maxReasonableWorkers, b.Workers)
	}
	return nil
}

// validateWalkerConfig validates random-walk configuration
func (v *Validator) validateWalkerConfig(w *Walker) error {
	if w.ScaleShift < 0 || w.ScaleShift > 30 {
		return fmt.Errorf("scale_shift must be between 0 and 30, got %d", w.ScaleShift)
	}
	return nil
}

// setSmartDefaults fills in values left at zero
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Battery.Workers == 0 {
		cfg.Battery.Workers = runtime.NumCPU()
	}
	if cfg.Battery.Default == "" {
		cfg.Battery.Default = DefaultBattery
	}
	if cfg.Walker.Steps == 0 {
		cfg.Walker.Steps = DefaultWalkerSteps
	}
	if cfg.Walker.OutDir == "" {
		cfg.Walker.OutDir = DefaultWalkerOutDir
	}
	if cfg.Canonical.OutDir == "" {
		cfg.Canonical.OutDir = DefaultGeneratedDir
	}
	// Round the stream buffer down to whole values.
	cfg.Stream.BufferSize -= cfg.Stream.BufferSize % 4
}
