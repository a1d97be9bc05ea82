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
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/capitoltrades/ctdata/config"
)

var cfgFile string

// appConfig is populated by initConfig before any subcommand's Run
// executes; subcommands read it directly instead of calling viper.Get*
// themselves.
var appConfig config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ctdata",
	Short: "ctdata builds and maintains a database of congressional stock-trade disclosures",
	Long: `ctdata is a command line utility for scraping congressional stock-trade
disclosures, enriching them with historical and current market prices,
reconstructing FIFO cost-basis lots, and computing conflict-of-interest and
anomaly analytics.

A sync run composes several stages:

	* scrape the public disclosure listing and resume from the last seen
	  publication date
	* resolve each politician's FEC candidate and committee memberships
	* backfill historical, current, and benchmark-ETF prices for every
	  disclosed trade
	* replay each politician's trade history through a FIFO ledger to close
	  out positions and measure realized performance
	* score committee-jurisdiction conflicts and volume/price anomalies

ctdata stores everything in a single SQLite file so a sync run can be
paused and resumed without losing progress.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ctdata.toml)")
	rootCmd.PersistentFlags().String("db", "", "path to the sqlite database file")
	if err := viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for db failed")
	}
}

// initConfig reads in config file and ENV variables if set, resolving
// appConfig through config.Load's flag > env > dotfile > default chain.
func initConfig() {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load configuration")
	}
	appConfig = cfg
}
