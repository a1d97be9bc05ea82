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
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/capitoltrades/ctdata/store"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display a summary of the local disclosure database",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		st, err := store.Open(appConfig.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open database")
		}
		defer st.Close()

		summary, err := st.Summarize(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not summarize database")
		}

		cutoff := summary.LastTradePubDate
		if cutoff == "" {
			cutoff = "never synced"
		}

		doc := fmt.Sprintf(`# ctdata

Database: %s

- Trades: %d
- Politicians: %d
- Issuers: %d
- Closed positions: %d
- Last trade publication date seen: %s
`, appConfig.DBPath, summary.Trades, summary.Politicians, summary.Issuers, summary.ClosedPositions, cutoff)

		r, _ := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)

		out, err := r.Render(doc)
		if err != nil {
			log.Fatal().Err(err).Msg("could not render summary document")
		}

		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
