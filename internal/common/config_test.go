package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"IMUNETRACK_ENV", "FRONTEND_URL", "BASE_URL", "API_URL", "MOCK_API_PORT",
	"IMUNETRACK_SERVER_HOST", "IMUNETRACK_STORAGE_TYPE", "IMUNETRACK_SEED_FILE",
	"BROWSER", "HEADLESS", "WINDOW_WIDTH", "WINDOW_HEIGHT", "CHROME_PATH",
	"IMPLICIT_WAIT", "EXPLICIT_WAIT", "PAGE_LOAD_TIMEOUT",
	"TEST_USER_EMAIL", "TEST_USER_PASSWORD", "TEST_USER_NAME",
	"SCREENSHOT_ON_FAILURE", "VIDEO_RECORDING", "SLOW_MO", "DEBUG", "VERBOSE",
	"TEST_RESULTS_DIR", "IMUNETRACK_LOG_LEVEL", "IMUNETRACK_LOG_OUTPUT",
}

// clearEnv blanks every variable the loader reads; empty values are ignored
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFiles_Defaults(t *testing.T) {
	clearEnv(t)

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", config.Frontend.URL)
	assert.Equal(t, "http://localhost:8000", config.Frontend.APIURL)
	assert.Equal(t, "chrome", config.Browser.Name)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, 10*time.Second, config.ImplicitWait())
	assert.Equal(t, 20*time.Second, config.ExplicitWait())
	assert.Equal(t, 30*time.Second, config.PageLoadTimeout())
	assert.Equal(t, "admin@teste.com", config.TestUser.Email)
	assert.Equal(t, "admin1", config.TestUser.Password)
	assert.True(t, config.Features.ScreenshotOnFailure)
	assert.Equal(t, 24*time.Hour, config.TokenTTL())
	assert.Equal(t, "memory", config.Storage.Type)
}

func TestLoadFromFiles_LaterFilesWin(t *testing.T) {
	clearEnv(t)

	base := writeFile(t, "base.toml", `
[frontend]
url = "http://app.local:3000"

[browser]
headless = true
width = 1280

[features]
slow_mo = 250
`)
	local := writeFile(t, "local.toml", `
[browser]
width = 800

[mock]
reset_schedule = "@every 10m"
`)

	config, err := LoadFromFiles(base, "", local)
	require.NoError(t, err)

	assert.Equal(t, "http://app.local:3000", config.Frontend.URL)
	assert.True(t, config.Browser.Headless)
	assert.Equal(t, 800, config.Browser.Width)
	assert.Equal(t, 1080, config.Browser.Height)
	assert.Equal(t, 250*time.Millisecond, config.SlowMo())
	assert.Equal(t, "@every 10m", config.Mock.ResetSchedule)
}

func TestLoadFromFiles_FileErrors(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadFromFiles(writeFile(t, "broken.toml", "[browser\nname="))
	assert.Error(t, err)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRONTEND_URL", "http://front:4000")
	t.Setenv("API_URL", "http://127.0.0.1:8123")
	t.Setenv("BROWSER", "Chromium")
	t.Setenv("HEADLESS", "TRUE")
	t.Setenv("WINDOW_WIDTH", "1024")
	t.Setenv("EXPLICIT_WAIT", "5")
	t.Setenv("IMPLICIT_WAIT", "not-a-number")
	t.Setenv("TEST_USER_EMAIL", "qa@example.com")
	t.Setenv("SCREENSHOT_ON_FAILURE", "false")
	t.Setenv("VERBOSE", "true")
	t.Setenv("TEST_RESULTS_DIR", "/tmp/results")
	t.Setenv("IMUNETRACK_LOG_OUTPUT", "stdout, file ,")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "http://front:4000", config.Frontend.URL)
	assert.Equal(t, "http://127.0.0.1:8123", config.Frontend.APIURL)
	assert.Equal(t, 8123, config.Server.Port, "mock listens where the frontend expects the API")
	assert.Equal(t, "chromium", config.Browser.Name)
	assert.True(t, config.Browser.Headless)
	assert.Equal(t, 1024, config.Browser.Width)
	assert.Equal(t, 5*time.Second, config.ExplicitWait())
	assert.Equal(t, 10*time.Second, config.ImplicitWait(), "unparsable values keep the default")
	assert.Equal(t, "qa@example.com", config.TestUser.Email)
	assert.False(t, config.Features.ScreenshotOnFailure)
	assert.True(t, config.Features.Verbose)
	assert.Equal(t, "/tmp/results", config.Reports.Dir)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
}

func TestLoadFromFiles_MockPortBeatsAPIURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_URL", "http://localhost:8123")
	t.Setenv("MOCK_API_PORT", "9001")

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, 9001, config.Server.Port)
}

func TestLoadFromFiles_DebugForcesDebugLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEBUG", "true")

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.True(t, config.Features.Debug)
	assert.Equal(t, "debug", LogLevel(config))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"firefox", func(c *Config) { c.Browser.Name = "firefox" }, "browser"},
		{"sqlite", func(c *Config) { c.Storage.Type = "sqlite" }, "storage type"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"cron", func(c *Config) { c.Mock.ResetSchedule = "every day" }, "reset schedule"},
		{"descriptor", func(c *Config) { c.Mock.ResetSchedule = "@hourly" }, ""},
		{"ttl", func(c *Config) { c.Auth.TokenTTL = "a day" }, "token_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 8000, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)

	ApplyFlagOverrides(config, 9100, "0.0.0.0")
	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestPortFromURL(t *testing.T) {
	assert.Equal(t, 8000, portFromURL("http://localhost:8000"))
	assert.Equal(t, 0, portFromURL("https://api.example.com"))
	assert.Equal(t, 0, portFromURL("::not a url"))
}

func TestSetupDirectories(t *testing.T) {
	config := NewDefaultConfig()
	config.Reports.Dir = filepath.Join(t.TempDir(), "reports")

	require.NoError(t, config.SetupDirectories())
	for _, dir := range []string{config.E2EDir(), config.RunsDir(), filepath.Dir(LogFilePath(config))} {
		assert.DirExists(t, dir)
	}
}

func TestLogLevel(t *testing.T) {
	config := NewDefaultConfig()
	assert.Equal(t, "info", LogLevel(config))

	config.Logging.Level = "WARN"
	assert.Equal(t, "warn", LogLevel(config))

	config.Logging.Level = ""
	assert.Equal(t, "info", LogLevel(config))

	config.Features.Debug = true
	assert.Equal(t, "debug", LogLevel(config))
}

func TestInitLogger_FileOutput(t *testing.T) {
	config := NewDefaultConfig()
	config.Reports.Dir = t.TempDir()
	config.Logging.Output = []string{"file"}

	logger := InitLogger(config)
	require.NotNil(t, logger)
	assert.NotNil(t, GetLogger())
	assert.DirExists(t, filepath.Dir(LogFilePath(config)))
	assert.Equal(t, filepath.Join(config.Reports.Dir, "logs", "imunetrack.log"), LogFilePath(config))
}

func TestCurrentBuild(t *testing.T) {
	info := CurrentBuild()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.String(), Version)
}
