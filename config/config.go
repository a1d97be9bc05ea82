// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config resolves runtime settings through a fixed precedence
// chain: explicit flag, then process environment, then a dotfile, then a
// built-in default. A ".env" file (if present) is folded into the process
// environment before that chain runs, composing godotenv under viper
// rather than replacing it.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// DotfileName is the TOML config file's base name, searched for in the
// user's home directory when no --config flag is given.
const DotfileName = ".ctdata"

// Config carries every setting a sync run needs: where to scrape from,
// which provider keys to use, and how the store and runner are tuned.
type Config struct {
	DBPath           string `mapstructure:"db_path" toml:"db_path"`
	ScrapeBaseURL    string `mapstructure:"scrape_base_url" toml:"scrape_base_url"`
	TiingoAPIKey     string `mapstructure:"tiingo_api_key" toml:"tiingo_api_key"`
	FECAPIKey        string `mapstructure:"fec_api_key" toml:"fec_api_key"`
	FECBudgetPerHour int    `mapstructure:"fec_budget_per_hour" toml:"fec_budget_per_hour"`
	PoolSize         int    `mapstructure:"pool_size" toml:"pool_size"`
	BreakerThreshold int    `mapstructure:"breaker_threshold" toml:"breaker_threshold"`
	EnrichDetail     bool   `mapstructure:"enrich_detail" toml:"enrich_detail"`
}

func defaults() Config {
	return Config{
		DBPath:           "ctdata.db",
		ScrapeBaseURL:    "https://www.capitoltrades.com",
		FECBudgetPerHour: 900,
		PoolSize:         4,
		BreakerThreshold: 10,
	}
}

// Load resolves Config from, in increasing priority: built-in defaults,
// the TOML dotfile (cfgFile if set, else $HOME/.ctdata.toml), the process
// environment (after folding in a ".env" file if one exists in the
// working directory), and finally any flags the caller has already bound
// into v via BindPFlag.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env file")
	}

	cfg := defaults()
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("scrape_base_url", cfg.ScrapeBaseURL)
	v.SetDefault("fec_budget_per_hour", cfg.FECBudgetPerHour)
	v.SetDefault("pool_size", cfg.PoolSize)
	v.SetDefault("breaker_threshold", cfg.BreakerThreshold)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigType("toml")
		v.SetConfigName(DotfileName)
	}

	v.AutomaticEnv()
	if err := v.ReadInConfig(); err == nil {
		log.Info().Str("configFile", v.ConfigFileUsed()).Msg("using config file")
	} else if cfgFile != "" {
		return Config{}, fmt.Errorf("read config file %s: %w", cfgFile, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Save marshals cfg as TOML and writes it to $HOME/.ctdata.toml, the
// persisted counterpart an interactive setup command produces.
func Save(cfg Config) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	path := filepath.Join(home, DotfileName+".toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write config file %s: %w", path, err)
	}
	return path, nil
}
