// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv (optional .env files) and github.com/caarlos0/env/v11
// (struct tag parsing). Every configuration type, optionally qualified by a prefix, is
// parsed once per process and served from an in-memory cache afterwards.
//
// # Usage
//
//	var cfg auth.Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
//	var store credstore.Config
//	config.MustLoad(&store, config.WithPrefix("DEVICE_"))
//
// # Error Handling
//
// Load returns errors wrapping ErrParsingConfig; a failed parse is not cached, so a later
// call re-reads the environment. Use ResetCache in tests that change the environment.
package config
