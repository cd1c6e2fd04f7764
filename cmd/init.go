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
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pvledger/pvledger/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var initDBPath string

// initSettings is the subset of config.Config worth persisting to the
// generated TOML file; unlike the full Config it carries only what a
// fresh install needs a human to confirm.
type initSettings struct {
	DBPath string `toml:"db_path"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the SQLite-compatible store and write a config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info().Str("db_path", initDBPath).Msg("running schema migrations")
		if err := storage.Migrate(initDBPath); err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}
		log.Info().Msg("database tables created")

		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		settings := initSettings{DBPath: initDBPath}
		configData, err := toml.Marshal(settings)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		configFN := filepath.Join(home, ".pvledger.toml")
		log.Info().Str("ConfigFile", configFN).Msg("saving database path to config file")
		if err := os.WriteFile(configFN, configData, 0644); err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("pvledger has been initialized")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initDBPath, "db-path", "pvledger.db", "path to create the SQLite-compatible store at")
}
