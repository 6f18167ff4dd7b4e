package cli

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Output formats accepted by --output
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds CLI configuration. Flags override the TSCTL_* environment.
type Config struct {
	ServerURL string
	Output    string
	Verbose   bool
	Timeout   time.Duration
}

// DefaultConfig reads the environment, falling back to a local server
func DefaultConfig() *Config {
	c := &Config{
		ServerURL: "http://localhost:8080",
		Output:    FormatText,
		Timeout:   30 * time.Second,
	}
	if v := os.Getenv("TSCTL_SERVER"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("TSCTL_OUTPUT"); v != "" {
		c.Output = v
	}
	if d, err := time.ParseDuration(os.Getenv("TSCTL_TIMEOUT")); err == nil && d > 0 {
		c.Timeout = d
	}
	return c
}

// Validate checks the final flag values before any command runs
func (c *Config) Validate() error {
	c.ServerURL = strings.TrimRight(strings.TrimSpace(c.ServerURL), "/")
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("server URL must start with http:// or https://, got %q", c.ServerURL)
	}
	switch c.Output {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", c.Output)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
