package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pagestage/pagestage"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

// MaxReasonablePagesPerBuffer bounds configured buffer capacities.
// Beyond this a single buffer would exceed 4 GiB on 4 KiB pages, which
// is almost certainly a typo; the default is used instead, with a
// warning.
const MaxReasonablePagesPerBuffer = 1 << 20

// Files returns the candidate config file paths, in lookup order.
func Files(name string) []string {
	return []string{
		fmt.Sprintf("/etc/%s/%s.conf", name, name),
		filepath.Join(os.Getenv("HOME"), fmt.Sprintf(".%s.conf", name)),
	}
}

// LoadConfig reads the first usable config file from configFiles and
// returns validated settings. A missing or empty file is not an error:
// the tool runs fine on defaults.
func LoadConfig(configFiles []string) Settings {
	var validConfigFile string

	for _, configFile := range configFiles {
		fileInfo, statErr := os.Stat(configFile)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				continue
			}
			log.Warn().Err(statErr).Msgf("Error accessing config file %s.", configFile)
			continue
		}
		if fileInfo.Size() == 0 {
			log.Debug().Msgf("Config file %s is empty, skipping...", configFile)
			continue
		}

		log.Debug().Msgf("Using config file %s.", configFile)
		validConfigFile = configFile
		break
	}

	var config Config
	if validConfigFile != "" {
		iniData, err := ini.Load(validConfigFile)
		if err != nil {
			log.Warn().Err(err).Msgf("failed to load config file %s, using defaults.", validConfigFile)
		} else if err := iniData.MapTo(&config); err != nil {
			log.Warn().Err(err).Msgf("failed to parse config file %s, using defaults.", validConfigFile)
			config = Config{}
		}
	}

	return validateConfig(config)
}

func validateConfig(config Config) Settings {
	settings := Settings{
		PagesPerBuffer: pagestage.DefaultPagesPerBuffer,
		Debug:          config.Logging.Debug,
	}

	switch pages := config.Collector.PagesPerBuffer; {
	case pages == 0:
		// unset, keep the default
	case pages < 0:
		log.Warn().Msgf("pages_per_buffer %d is not positive, using default %d.",
			pages, pagestage.DefaultPagesPerBuffer)
	case pages > MaxReasonablePagesPerBuffer:
		log.Warn().Msgf("pages_per_buffer %d exceeds the maximum %d, using default %d.",
			pages, MaxReasonablePagesPerBuffer, pagestage.DefaultPagesPerBuffer)
	default:
		settings.PagesPerBuffer = pages
	}

	return settings
}
