package common

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the harness configuration shared by the mock backend,
// the e2e suite and the test runner.
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"` // mock backend listener
	Frontend    FrontendConfig `toml:"frontend"`
	Browser     BrowserConfig  `toml:"browser"`
	Timeouts    TimeoutConfig  `toml:"timeouts"`
	TestUser    TestUserConfig `toml:"test_user"`
	Features    FeaturesConfig `toml:"features"`
	Storage     StorageConfig  `toml:"storage"`
	Mock        MockConfig     `toml:"mock"`
	Auth        AuthConfig     `toml:"auth"`
	Reports     ReportsConfig  `toml:"reports"`
	Logging     LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"` // 0 picks a free port
	Host string `toml:"host"`
}

// FrontendConfig holds the application-under-test URLs
type FrontendConfig struct {
	URL     string `toml:"url"`      // FRONTEND_URL - page objects navigate relative to it
	BaseURL string `toml:"base_url"` // BASE_URL - smoke test landing page
	APIURL  string `toml:"api_url"`  // API_URL - where the frontend expects the backend
}

type BrowserConfig struct {
	Name      string `toml:"name"` // chrome | chromium
	Headless  bool   `toml:"headless"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	ExecPath  string `toml:"exec_path"` // optional Chrome binary override
	NoSandbox bool   `toml:"no_sandbox"`
	UserAgent string `toml:"user_agent"`
}

// TimeoutConfig mirrors the implicit/explicit/page-load waits, in seconds
type TimeoutConfig struct {
	Implicit int `toml:"implicit"`
	Explicit int `toml:"explicit"`
	PageLoad int `toml:"page_load"`
}

type TestUserConfig struct {
	Email    string `toml:"email"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
}

type FeaturesConfig struct {
	ScreenshotOnFailure bool `toml:"screenshot_on_failure"`
	VideoRecording      bool `toml:"video_recording"`
	SlowMo              int  `toml:"slow_mo"` // milliseconds between page actions
	Debug               bool `toml:"debug"`
	Verbose             bool `toml:"verbose"`
}

type StorageConfig struct {
	Type   string       `toml:"type"` // memory | badger
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	InMemory       bool   `toml:"in_memory"`
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// MockConfig controls fixture data of the mock backend
type MockConfig struct {
	SeedFile      string `toml:"seed_file"`      // .toml, .yaml or .json; empty uses built-in fixtures
	ResetSchedule string `toml:"reset_schedule"` // cron expression, standalone binary only
	EventHistory  int    `toml:"event_history"`  // events retained for Recent()
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	TokenTTL  string `toml:"token_ttl"`
}

type ReportsConfig struct {
	Dir string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with the defaults of the original suite
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "test",
		Server: ServerConfig{
			Port: 8000,
			Host: "localhost",
		},
		Frontend: FrontendConfig{
			URL:     "http://localhost:3000",
			BaseURL: "http://localhost:3000",
			APIURL:  "http://localhost:8000",
		},
		Browser: BrowserConfig{
			Name:      "chrome",
			Headless:  false,
			Width:     1920,
			Height:    1080,
			NoSandbox: true,
		},
		Timeouts: TimeoutConfig{
			Implicit: 10,
			Explicit: 20,
			PageLoad: 30,
		},
		TestUser: TestUserConfig{
			Email:    "admin@teste.com",
			Password: "admin1",
			Name:     "admin Teste",
		},
		Features: FeaturesConfig{
			ScreenshotOnFailure: true,
		},
		Storage: StorageConfig{
			Type: "memory",
			Badger: BadgerConfig{
				InMemory: true,
				Path:     "./data/mock",
			},
		},
		Mock: MockConfig{
			EventHistory: 500,
		},
		Auth: AuthConfig{
			JWTSecret: "imunetrack-mock-secret",
			TokenTTL:  "24h",
		},
		Reports: ReportsConfig{
			Dir: "./reports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> .env files -> env.
// CLI overrides are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	loadDotEnv()
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadDotEnv loads .env.test then .env from the working directory.
// godotenv never overrides variables already present in the environment.
func loadDotEnv() {
	for _, name := range []string{".env.test", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

// applyEnvOverrides applies environment variable overrides to config.
// Variable names follow the original suite's .env.test keys.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("IMUNETRACK_ENV"); env != "" {
		config.Environment = env
	}

	// URLs
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		config.Frontend.URL = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		config.Frontend.BaseURL = v
	}
	if v := os.Getenv("API_URL"); v != "" {
		config.Frontend.APIURL = v
		if port := portFromURL(v); port > 0 {
			config.Server.Port = port
		}
	}

	// Mock backend
	if v := os.Getenv("MOCK_API_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.Server.Port = p
		}
	}
	if v := os.Getenv("IMUNETRACK_SERVER_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("IMUNETRACK_STORAGE_TYPE"); v != "" {
		config.Storage.Type = v
	}
	if v := os.Getenv("IMUNETRACK_SEED_FILE"); v != "" {
		config.Mock.SeedFile = v
	}

	// Browser
	if v := os.Getenv("BROWSER"); v != "" {
		config.Browser.Name = strings.ToLower(v)
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		config.Browser.Headless = parseBool(v)
	}
	if v := os.Getenv("WINDOW_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Browser.Width = n
		}
	}
	if v := os.Getenv("WINDOW_HEIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Browser.Height = n
		}
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		config.Browser.ExecPath = v
	}

	// Timeouts
	if v := os.Getenv("IMPLICIT_WAIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Timeouts.Implicit = n
		}
	}
	if v := os.Getenv("EXPLICIT_WAIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Timeouts.Explicit = n
		}
	}
	if v := os.Getenv("PAGE_LOAD_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Timeouts.PageLoad = n
		}
	}

	// Test user
	if v := os.Getenv("TEST_USER_EMAIL"); v != "" {
		config.TestUser.Email = v
	}
	if v := os.Getenv("TEST_USER_PASSWORD"); v != "" {
		config.TestUser.Password = v
	}
	if v := os.Getenv("TEST_USER_NAME"); v != "" {
		config.TestUser.Name = v
	}

	// Features
	if v := os.Getenv("SCREENSHOT_ON_FAILURE"); v != "" {
		config.Features.ScreenshotOnFailure = parseBool(v)
	}
	if v := os.Getenv("VIDEO_RECORDING"); v != "" {
		config.Features.VideoRecording = parseBool(v)
	}
	if v := os.Getenv("SLOW_MO"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Features.SlowMo = n
		}
	}
	if v := os.Getenv("DEBUG"); v != "" {
		config.Features.Debug = parseBool(v)
		if config.Features.Debug {
			config.Logging.Level = "debug"
		}
	}
	if v := os.Getenv("VERBOSE"); v != "" {
		config.Features.Verbose = parseBool(v)
	}

	// Reports and logging
	if v := os.Getenv("TEST_RESULTS_DIR"); v != "" {
		config.Reports.Dir = v
	}
	if v := os.Getenv("IMUNETRACK_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("IMUNETRACK_LOG_OUTPUT"); v != "" {
		outputs := []string{}
		for _, o := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate rejects configurations the harness cannot run with
func (c *Config) Validate() error {
	switch c.Browser.Name {
	case "chrome", "chromium":
	default:
		return fmt.Errorf("browser '%s' is not supported", c.Browser.Name)
	}

	switch c.Storage.Type {
	case "memory", "badger":
	default:
		return fmt.Errorf("storage type '%s' is not supported", c.Storage.Type)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	if c.Mock.ResetSchedule != "" {
		if err := ValidateResetSchedule(c.Mock.ResetSchedule); err != nil {
			return err
		}
	}

	if _, err := time.ParseDuration(c.Auth.TokenTTL); err != nil {
		return fmt.Errorf("invalid auth token_ttl %q: %w", c.Auth.TokenTTL, err)
	}

	return nil
}

// ValidateResetSchedule validates a 5-field cron expression or descriptor (@hourly, @every 10m)
func ValidateResetSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid reset schedule: %w", err)
	}
	return nil
}

// ExplicitWait returns the default explicit wait as a duration
func (c *Config) ExplicitWait() time.Duration {
	return time.Duration(c.Timeouts.Explicit) * time.Second
}

// PageLoadTimeout returns the page load timeout as a duration
func (c *Config) PageLoadTimeout() time.Duration {
	return time.Duration(c.Timeouts.PageLoad) * time.Second
}

// SlowMo returns the pause between page actions
func (c *Config) SlowMo() time.Duration {
	return time.Duration(c.Features.SlowMo) * time.Millisecond
}

// TokenTTL returns the login token lifetime, already validated on load
func (c *Config) TokenTTL() time.Duration {
	d, _ := time.ParseDuration(c.Auth.TokenTTL)
	return d
}

// ImplicitWait returns how long element lookups wait for a first match
func (c *Config) ImplicitWait() time.Duration {
	return time.Duration(c.Timeouts.Implicit) * time.Second
}

// E2EDir holds per-test artifacts of direct "go test" runs
func (c *Config) E2EDir() string {
	return filepath.Join(c.Reports.Dir, "e2e")
}

// RunsDir holds one directory per test runner invocation
func (c *Config) RunsDir() string {
	return filepath.Join(c.Reports.Dir, "runs")
}

// SetupDirectories creates the reports directory and its e2e, runs and logs children
func (c *Config) SetupDirectories() error {
	for _, dir := range []string{c.Reports.Dir, c.E2EDir(), c.RunsDir(), filepath.Dir(LogFilePath(c))} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func parseBool(v string) bool {
	return strings.ToLower(strings.TrimSpace(v)) == "true"
}

// portFromURL extracts the explicit port of an http URL, 0 if absent
func portFromURL(raw string) int {
	u, err := url.Parse(raw)
	if err != nil {
		return 0
	}
	_, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		return 0
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return p
}
