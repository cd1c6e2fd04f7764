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
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// infoCmd prints a summary of the configured store: schema version and
// row counts.
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display a summary of the configured data store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()

		version, dirty, err := a.store.SchemaVersion(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not read schema version")
		}

		stockCount, err := a.store.CountStocks(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not count stocks")
		}

		priceCount, err := a.store.CountPrices(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not count stock prices")
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("# %s\n\n", a.cfg.DBPath))
		sb.WriteString(fmt.Sprintf("- schema version: %d (dirty=%v)\n", version, dirty))
		sb.WriteString(fmt.Sprintf("- stocks tracked: %d\n", stockCount))
		sb.WriteString(fmt.Sprintf("- price rows stored: %d\n", priceCount))

		return renderMarkdown(sb.String())
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
