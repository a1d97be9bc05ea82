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
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoDotfileOrEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "ctdata.db", cfg.DBPath)
	require.Equal(t, 900, cfg.FECBudgetPerHour)
	require.Equal(t, 4, cfg.PoolSize)
}

func TestLoadDotfileOverridesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dotfile := filepath.Join(home, DotfileName+".toml")
	require.NoError(t, os.WriteFile(dotfile, []byte(`
db_path = "from-dotfile.db"
pool_size = 8
`), 0o600))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "from-dotfile.db", cfg.DBPath)
	require.Equal(t, 8, cfg.PoolSize)
	require.Equal(t, 900, cfg.FECBudgetPerHour, "values absent from the dotfile keep their default")
}

func TestLoadEnvironmentOverridesDotfile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dotfile := filepath.Join(home, DotfileName+".toml")
	require.NoError(t, os.WriteFile(dotfile, []byte(`pool_size = 8`), 0o600))
	t.Setenv("POOL_SIZE", "16")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, 16, cfg.PoolSize, "process environment outranks the dotfile")
}

func TestLoadExplicitConfigFileTakesPrecedenceOverHomeDotfile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, DotfileName+".toml"), []byte(`pool_size = 8`), 0o600))

	explicit := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(explicit, []byte(`pool_size = 32`), 0o600))

	cfg, err := Load(viper.New(), explicit)
	require.NoError(t, err)
	require.Equal(t, 32, cfg.PoolSize)
}

func TestLoadMissingExplicitConfigFileErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.Error(t, err)
}

func TestSaveWritesDotfileReadableByLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := defaults()
	cfg.TiingoAPIKey = "secret"
	path, err := Save(cfg)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, DotfileName+".toml"), path)

	reloaded, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "secret", reloaded.TiingoAPIKey)
}
