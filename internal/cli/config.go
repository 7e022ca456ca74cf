package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// errNoUser is returned by commands that need a registered user
var errNoUser = errors.New("no user: run 'comate register' first or pass --user")

// Config holds CLI configuration
type Config struct {
	ServerURL string
	UserID    string
	UserFile  string
	AdminKey  string
	Output    string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("COMATE_SERVER", "http://localhost:8080"),
		UserID:    os.Getenv("COMATE_USER"),
		UserFile:  getEnvOrDefault("COMATE_USER_FILE", defaultUserFile()),
		AdminKey:  os.Getenv("COMATE_ADMIN_KEY"),
		Output:    "text",
	}
}

// LoadUserID loads the user id from file if not already set
func (c *Config) LoadUserID() error {
	if c.UserID != "" {
		return nil
	}

	data, err := os.ReadFile(c.UserFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Not registered yet
		}
		return err
	}

	c.UserID = strings.TrimSpace(string(data))
	return nil
}

// RequireUserID returns the current user id or errNoUser
func (c *Config) RequireUserID() (string, error) {
	if c.UserID == "" {
		return "", errNoUser
	}
	return c.UserID, nil
}

// SaveUserID saves the user id to the user file
func (c *Config) SaveUserID(id string) error {
	c.UserID = id

	dir := filepath.Dir(c.UserFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.UserFile, []byte(id), 0600)
}

// ClearUserID forgets the user id after leaving
func (c *Config) ClearUserID() error {
	c.UserID = ""
	if err := os.Remove(c.UserFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func defaultUserFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".comate/user"
	}
	return filepath.Join(home, ".comate", "user")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
