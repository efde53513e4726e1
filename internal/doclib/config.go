package doclib

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/doclib/distil/internal/distutil"
)

// ConfigName is the configuration file searched for in the working directory,
// its parents, and finally the user's home directory.
const ConfigName = ".distil.yml"

// ErrNoConfig is returned by LoadConfig when no config file can be found.
var ErrNoConfig = errors.New("no " + ConfigName + " config file found")

// Config is the per-user configuration. Only Base is required.
type Config struct {
	// Base is the absolute path of the doclib; a leading ~ is expanded.
	Base string `yaml:"doclib_base"`

	// Git locates the git executable, default "git".
	Git string `yaml:"git_executable"`

	// Htpasswd is the path of an Apache htpasswd file holding web users.
	Htpasswd string `yaml:"htpasswd_path"`

	// CookieSecret signs web session cookies. When empty a random secret is
	// generated per process, invalidating all prior login sessions.
	CookieSecret string `yaml:"cookie_secret"`

	// Listen is the web server address, default ":8888".
	Listen string `yaml:"listen_addr"`
}

// LoadConfig finds, reads, and normalizes the nearest config file, returning
// it along with the path it was read from.
func LoadConfig() (Config, string, error) {
	_, path, err := distutil.FindWDFile(ConfigName)
	if err != nil {
		return Config{}, "", err
	}
	if path == "" {
		if _, path, err = distutil.FindHomeFile(ConfigName); err != nil {
			return Config{}, "", err
		}
	}
	if path == "" {
		return Config{}, "", ErrNoConfig
	}
	config, err := ReadConfig(path)
	return config, path, err
}

// ReadConfig reads and normalizes the config file at path.
func ReadConfig(path string) (Config, error) {
	var config Config
	b, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}
	if err := yaml.Unmarshal(b, &config); err != nil {
		return config, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := config.normalize(); err != nil {
		return config, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func (config *Config) normalize() error {
	if config.Base == "" {
		return errors.New("doclib_base not set")
	}
	base, err := distutil.ExpandUser(config.Base)
	if err != nil {
		return err
	}
	config.Base = base

	if config.Htpasswd != "" {
		if config.Htpasswd, err = distutil.ExpandUser(config.Htpasswd); err != nil {
			return err
		}
	}
	if config.Git == "" {
		config.Git = "git"
	}
	if config.Listen == "" {
		config.Listen = ":8888"
	}
	if config.CookieSecret == "" {
		config.CookieSecret = generateCookieSecret()
	}
	return nil
}

// generateCookieSecret produces 256 bits of randomness, base64 encoded.
func generateCookieSecret() string {
	a, b := uuid.New(), uuid.New()
	return base64.StdEncoding.EncodeToString(append(a[:], b[:]...))
}

// Tree returns the doclib tree rooted at the configured base.
func (config Config) Tree() Tree { return Tree{Base: config.Base} }
