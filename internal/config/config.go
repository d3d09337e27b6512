package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	defaultHost              = "localhost"
	defaultPort              = "5000"
	defaultRefreshDebounceMS = 500
)

// Settings holds every option supplied at process start.
type Settings struct {
	Host        string
	Port        string
	URL         string
	Title       string
	Link        string
	Description string
	Language    string
	Author      string
	Debug       bool
	OrderByName bool
	NewestFirst bool
}

type settingsYAML struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	URL         string `yaml:"url"`
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	Author      string `yaml:"author"`
	Debug       *bool  `yaml:"debug"`
	OrderByName *bool  `yaml:"order_by_name"`
	NewestFirst *bool  `yaml:"newest_first"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Settings {
	return Settings{
		Host: defaultHost,
		Port: defaultPort,
	}
}

// Load returns the settings after applying defaults, the YAML file (when a
// path is given or PODCATS_CONFIG is set) and environment overrides, in that
// order.
func Load(configPath string) (Settings, error) {
	settings := Defaults()

	configPath = strings.TrimSpace(configPath)
	if configPath == "" {
		configPath = strings.TrimSpace(os.Getenv("PODCATS_CONFIG"))
	}
	if configPath != "" {
		if err := applyFile(&settings, configPath); err != nil {
			return Settings{}, err
		}
	}

	applyEnv(&settings)
	return settings, nil
}

func applyFile(settings *Settings, path string) error {
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return fmt.Errorf("read config %s: %w", resolved, err)
	}

	var file settingsYAML
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", resolved, err)
	}

	setString(&settings.Host, file.Host)
	setString(&settings.Port, file.Port)
	setString(&settings.URL, file.URL)
	setString(&settings.Title, file.Title)
	setString(&settings.Link, file.Link)
	setString(&settings.Description, file.Description)
	setString(&settings.Language, file.Language)
	setString(&settings.Author, file.Author)
	if file.Debug != nil {
		settings.Debug = *file.Debug
	}
	if file.OrderByName != nil {
		settings.OrderByName = *file.OrderByName
	}
	if file.NewestFirst != nil {
		settings.NewestFirst = *file.NewestFirst
	}
	return nil
}

func applyEnv(settings *Settings) {
	setString(&settings.Host, os.Getenv("PODCATS_HOST"))
	setString(&settings.Port, os.Getenv("PODCATS_PORT"))
	setString(&settings.URL, os.Getenv("PODCATS_URL"))
	setString(&settings.Title, os.Getenv("PODCATS_TITLE"))
	setString(&settings.Link, os.Getenv("PODCATS_LINK"))
	setString(&settings.Description, os.Getenv("PODCATS_DESCRIPTION"))
	setString(&settings.Language, os.Getenv("PODCATS_LANGUAGE"))
	setString(&settings.Author, os.Getenv("PODCATS_AUTHOR"))
	setBool(&settings.Debug, os.Getenv("PODCATS_DEBUG"))
	setBool(&settings.OrderByName, os.Getenv("PODCATS_ORDER_BY_NAME"))
	setBool(&settings.NewestFirst, os.Getenv("PODCATS_NEWEST_FIRST"))
}

func setString(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

func setBool(dst *bool, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if parsed, err := strconv.ParseBool(value); err == nil {
		*dst = parsed
	}
}

// Validate checks the port and normalises the language tag.
func (s *Settings) Validate() error {
	if err := ValidatePort(s.Port); err != nil {
		return err
	}
	if s.Language != "" {
		tag, err := ValidateLanguage(s.Language)
		if err != nil {
			return err
		}
		s.Language = tag
	}
	return nil
}

// ListenAddr returns the TCP address the HTTP server binds to.
func (s Settings) ListenAddr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// RootURL returns the public base URL for every episode and cover link. An
// explicit URL wins over the listen address.
func (s Settings) RootURL() string {
	if s.URL != "" {
		return s.URL
	}
	return "http://" + s.ListenAddr()
}

// ValidatePort ensures port is a number in the TCP range.
func ValidatePort(port string) error {
	value, err := strconv.Atoi(strings.TrimSpace(port))
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", port, err)
	}
	if value < 1 || value > 65535 {
		return fmt.Errorf("invalid port %q: out of range", port)
	}
	return nil
}

// ValidateLanguage parses a BCP 47 tag and returns its canonical form.
func ValidateLanguage(value string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", value, err)
	}
	return tag.String(), nil
}

// ResolveDirectory expands and validates the directory to scan.
func ResolveDirectory(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = cwd
	}

	abs, err := expandPath(dir)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", errors.New(abs + " is not a directory")
	}
	return abs, nil
}

// RefreshDebounce returns how long the watcher waits after file-system
// events before regenerating output.
func RefreshDebounce() time.Duration {
	value := strings.TrimSpace(os.Getenv("PODCATS_REFRESH_DEBOUNCE_MS"))
	if value == "" {
		return time.Duration(defaultRefreshDebounceMS) * time.Millisecond
	}

	ms, err := strconv.Atoi(value)
	if err != nil || ms < 0 {
		return time.Duration(defaultRefreshDebounceMS) * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	return filepath.Abs(path)
}
