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
package cmd

import (
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/capitoltrades/ctdata/config"
	"github.com/capitoltrades/ctdata/store"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather provider credentials and create the database file",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := appConfig
		budgetStr := strconv.Itoa(cfg.FECBudgetPerHour)

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Where should the sqlite database file live?").
					Value(&cfg.DBPath),

				huh.NewInput().
					Title("Tiingo API key (leave blank to rely on Yahoo only)").
					Value(&cfg.TiingoAPIKey),

				huh.NewInput().
					Title("OpenFEC API key").
					Value(&cfg.FECAPIKey),

				huh.NewInput().
					Title("OpenFEC request budget per hour").
					Value(&budgetStr).
					Validate(func(s string) error {
						_, err := strconv.Atoi(s)
						return err
					}),
			),
		)

		if err := form.Run(); err != nil {
			log.Fatal().Err(err).Msg("error gathering configuration")
		}

		budget, err := strconv.Atoi(budgetStr)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid FEC request budget")
		}
		cfg.FECBudgetPerHour = budget

		log.Info().Str("path", cfg.DBPath).Msg("creating database tables")
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("error opening/migrating database")
		}
		defer st.Close()
		log.Info().Msg("database tables created")

		path, err := config.Save(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("error saving configuration to file")
		}
		log.Info().Str("configFile", path).Msg("saved configuration")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
