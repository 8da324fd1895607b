package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the mock backend banner and logs the effective settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("ImuneTrack Mock API", Version)

	logger.Info().
		Str("environment", config.Environment).
		Str("storage", config.Storage.Type).
		Str("seed_file", config.Mock.SeedFile).
		Str("reset_schedule", config.Mock.ResetSchedule).
		Str("test_user", config.TestUser.Email).
		Msg("Mock configuration")
}
