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
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the price sources ctdata will use for the configured credentials",
	Run: func(cmd *cobra.Command, args []string) {
		r, _ := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)

		builder := strings.Builder{}
		builder.WriteString("# Price Sources\n\n")
		builder.WriteString("## yahoo\n")
		builder.WriteString("Free, unauthenticated historical and current closing prices. Always available.\n")

		builder.WriteString("\n## tiingo\n")
		if appConfig.TiingoAPIKey != "" {
			builder.WriteString("Configured — consulted as a fallback whenever yahoo has no price for a ticker.\n")
		} else {
			builder.WriteString("Not configured — run `ctdata init` to add a Tiingo API key. Falls back to yahoo.\n")
		}

		builder.WriteString("\n## fec\n")
		if appConfig.FECAPIKey != "" {
			builder.WriteString(fmt.Sprintf("Configured — OpenFEC request budget is %d/hour.\n", appConfig.FECBudgetPerHour))
		} else {
			builder.WriteString("Not configured — committee resolution falls back to cached data only.\n")
		}

		out, err := r.Render(builder.String())
		if err != nil {
			log.Fatal().Err(err).Msg("could not render sources document")
		}

		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
