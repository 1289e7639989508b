// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each config struct declares its variables via caarlos0/env struct tags:
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Parsed values are cached per type, so independent components asking for the
// same config struct always observe identical values.
package config
