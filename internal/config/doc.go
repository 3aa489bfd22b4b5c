// Package config loads and validates the application configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. config.yaml (or the file named by LABPULSE_CONFIG)
//	3. Default values (lowest priority)
//
// A .env file in the working directory is loaded into the environment first.
//
// # Environment Variables
//
// All environment variables follow the pattern LABPULSE_<SECTION>_<FIELD>:
//
//	LABPULSE_SERVER_PORT=8080
//	LABPULSE_ANALYSIS_INPUT_DIR=/srv/exports
//	LABPULSE_ANALYSIS_CACHE_TTL=10m
//	LABPULSE_LOGGING_LEVEL=debug
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths, err := cfg.ResolvePaths("")
//
// For tests, config.Default() returns a valid configuration that needs no
// environment.
package config
