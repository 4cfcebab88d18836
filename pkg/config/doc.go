// Package config provides generic, cached environment-based configuration
// loading for the toolkit.
//
// Configuration is entirely environment-driven: structs declare `env` tags
// and Load parses them via caarlos0/env, optionally seeded from a local .env
// file through godotenv. Each configuration type is parsed exactly once per
// process and cached, so independent components can load the same config
// type without coordination.
//
// # Usage
//
//	type MongoConfig struct {
//		URL string `env:"MONGODB_URL,required"`
//	}
//
//	var cfg MongoConfig
//	config.MustLoad(&cfg)
package config
