package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "TAKE5"

type Config struct {
	ServerURL     string
	Name          string
	Listen        string
	Room          string
	Create        bool
	DatabaseURL   string
	LogLevel      string
	LogFormat     string
	JournalBuffer int
}

// LoadDotEnv reads .env files into the process environment. Missing files are
// not an error.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// NewViper returns a viper instance with defaults and TAKE5_* env binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_url", "http://localhost:8080")
	v.SetDefault("listen", "127.0.0.1:7070")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("journal_buffer", 64)
	return v
}

func FromViper(v *viper.Viper) (Config, error) {
	c := Config{
		ServerURL:     strings.TrimRight(v.GetString("server_url"), "/"),
		Name:          strings.TrimSpace(v.GetString("name")),
		Listen:        v.GetString("listen"),
		Room:          strings.TrimSpace(v.GetString("room")),
		Create:        v.GetBool("create"),
		DatabaseURL:   v.GetString("database_url"),
		LogLevel:      v.GetString("log_level"),
		LogFormat:     v.GetString("log_format"),
		JournalBuffer: v.GetInt("journal_buffer"),
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server url %q: scheme must be http or https", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server url %q: missing host", c.ServerURL)
	}
	if c.Create && c.Room == "" {
		return errors.New("create requires a room id")
	}
	if c.JournalBuffer < 0 {
		return fmt.Errorf("journal buffer must not be negative, got %d", c.JournalBuffer)
	}
	return nil
}

// WebsocketURL maps the server base URL onto a ws/wss endpoint path.
func (c Config) WebsocketURL(path string) string {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	default:
		u.Scheme = "wss"
	}
	u.Path = path
	return u.String()
}
