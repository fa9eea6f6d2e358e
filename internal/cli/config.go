package cli

import (
	"cmp"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI settings. Flags override the XRKIOSK_* environment.
type Config struct {
	ServerURL string
	Token     string
	TokenFile string
	Output    string
	Verbose   bool
}

// DefaultConfig reads the environment
func DefaultConfig() *Config {
	return &Config{
		ServerURL: cmp.Or(os.Getenv("XRKIOSK_SERVER"), "http://localhost:8080"),
		Token:     os.Getenv("XRKIOSK_TOKEN"),
		TokenFile: cmp.Or(os.Getenv("XRKIOSK_TOKEN_FILE"), defaultTokenFile()),
		Output:    "text",
	}
}

// LoadToken reads the staff token saved by `login` unless one was given
// explicitly. A missing file leaves the token empty.
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}
	data, err := os.ReadFile(c.TokenFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken stores the staff token for later commands
func (c *Config) SaveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0700); err != nil {
		return err
	}
	if err := os.WriteFile(c.TokenFile, []byte(token), 0600); err != nil {
		return err
	}
	c.Token = token
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".xrkiosk", "token")
}
