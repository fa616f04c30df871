package config

import (
	"fmt"

	pkgconfig "dgtech/pkg/config"
)

type Config struct {
	Debug   bool                    `yaml:"debug"`
	DB      pkgconfig.DBConfig      `yaml:"db"`
	MQ      pkgconfig.MQConfig      `yaml:"mq"`
	Redis   pkgconfig.RedisConfig   `yaml:"redis"`
	JWT     pkgconfig.JWTConfig     `yaml:"jwt"`
	Server  pkgconfig.ServerConfig  `yaml:"server"`
	Storage pkgconfig.StorageConfig `yaml:"storage"`
}

// Load reads config/base.yaml overlaid with config/<CONFIG_ENV>.yaml, then
// applies the environment overrides. CONFIG_DIR changes the directory.
func Load() (*Config, error) {
	var cfg Config
	dir := pkgconfig.GetEnv("CONFIG_DIR", "config")
	if err := pkgconfig.Decode(pkgconfig.GetConfigEnv(), dir, &cfg); err != nil {
		return nil, err
	}

	// environment overrides win over the yaml files
	pkgconfig.OverrideDBFromEnv(&cfg.DB)
	pkgconfig.OverrideMQFromEnv(&cfg.MQ)
	pkgconfig.OverrideRedisFromEnv(&cfg.Redis)
	pkgconfig.OverrideJWTFromEnv(&cfg.JWT)
	pkgconfig.OverrideServerFromEnv(&cfg.Server)
	pkgconfig.OverrideStorageFromEnv(&cfg.Storage)

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is required")
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	return &cfg, nil
}
