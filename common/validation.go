package common

import (
	"fmt"

	"github.com/rs/zerolog"
)

func (c *Config) Validate() error {
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return NewErrInvalidConfig(fmt.Sprintf("logLevel '%s' is not a valid level", c.LogLevel))
		}
	}
	switch c.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return NewErrInvalidConfig(fmt.Sprintf("color must be one of auto, always or never, got '%s'", c.Color))
	}
	if _, err := CompileMethodFilter(c.Only); err != nil {
		return NewErrInvalidConfig(fmt.Sprintf("only '%s' is not a valid method filter: %v", c.Only, err))
	}
	if len(c.Cases) > 0 && len(c.Samples) == 0 {
		return NewErrInvalidConfig("cases are defined but no samples files are configured")
	}
	names := make(map[string]bool, len(c.Cases))
	for i, cs := range c.Cases {
		if cs == nil {
			return NewErrInvalidConfig(fmt.Sprintf("cases[%d] is empty", i))
		}
		if err := cs.Validate(); err != nil {
			return NewErrInvalidConfig(fmt.Sprintf("cases[%d]: %s", i, err.Error()))
		}
		if names[cs.Name] {
			return NewErrInvalidConfig(fmt.Sprintf("cases[%d]: duplicate case name '%s'", i, cs.Name))
		}
		names[cs.Name] = true
	}
	return nil
}

func (c *CaseConfig) Validate() error {
	if c.Method == "" {
		return fmt.Errorf("method is required")
	}
	for k := range c.Expect {
		if k == "" {
			return fmt.Errorf("expect keys must not be empty")
		}
	}
	return nil
}
