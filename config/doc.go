// Package config loads host settings from the environment and machine
// registration tables from YAML.
//
// Host settings are read with github.com/caarlos0/env/v11 after optional
// .env files are loaded with github.com/joho/godotenv. Machine tables name
// the states of one machine by catalog key:
//
//	cfg, err := config.LoadFile("knight.yaml")
//	opts, err := config.Options(cfg, catalog)
//	m := fsmx.New(opts...)
//	m.AttachOwner(knight)
//	m.Initialize(cfg.InitialKey())
package config
