package internal

import (
	"log"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/haatos/shipyard/internal/util"
)

var Config *Configuration

type SecondsDuration int64

type MinutesDuration int64

// Configuration holds the tunables an operator may edit without rebuilding.
// TTLs and timeouts are plain numbers in config.yaml.
type Configuration struct {
	SessionExpiresHours   int64           `yaml:"session_expires_hours"`
	RunCacheTTLSeconds    SecondsDuration `yaml:"run_cache_ttl_seconds"`
	OrphanTimeoutMinutes  MinutesDuration `yaml:"orphan_timeout_minutes"`
	RunFetchLimit         int64           `yaml:"run_fetch_limit"`
	QueuedPollSeconds     int64           `yaml:"queued_poll_seconds"`
	InProgressPollSeconds int64           `yaml:"in_progress_poll_seconds"`
}

func InitializeConfiguration(path string) {
	Config = &Configuration{
		SessionExpiresHours:   30 * 24,
		RunCacheTTLSeconds:    30,
		OrphanTimeoutMinutes:  5,
		RunFetchLimit:         20,
		QueuedPollSeconds:     15,
		InProgressPollSeconds: 10,
	}

	configFileExists, _ := util.PathExists(path)
	if !configFileExists {
		b, err := yaml.Marshal(Config)
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(path, b, 0644); err != nil {
			log.Fatal(err)
		}
	} else {
		configBytes, err := os.ReadFile(path)
		if err != nil {
			log.Fatal(err)
		}
		if err := yaml.Unmarshal(configBytes, &Config); err != nil {
			log.Fatal(err)
		}
	}
}
