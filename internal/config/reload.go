// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package config

import (
	"github.com/tomtom215/geopresence/internal/logging"
)

// WatchLogLevel reloads the configuration each time the file at path
// changes and applies its logging level to the running process. Everything
// else in the file needs a restart to take effect.
func WatchLogLevel(path string) error {
	return WatchConfigFile(path, ReloadLogLevel)
}

// ReloadLogLevel loads the configuration again and applies the logging
// level. An invalid configuration is logged and the current level kept.
// LOG_LEVEL still overrides the file, as it does at startup.
func ReloadLogLevel() {
	cfg, err := LoadWithKoanf()
	if err != nil {
		logging.Warn().Err(err).Msg("Ignoring configuration change")
		return
	}

	previous := logging.SetLevelString(cfg.Logging.Level)
	if current := logging.GetLevel(); current != previous {
		logging.Info().
			Str("from", previous.String()).
			Str("to", current.String()).
			Msg("Log level changed")
	}
}
