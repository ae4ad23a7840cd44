// Copyright 2021-2023
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
	"os/signal"
	"runtime/pprof"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/penny-vault/pv-factor/advisor"
	"github.com/penny-vault/pv-factor/data"
	"github.com/penny-vault/pv-factor/factor"
	"github.com/penny-vault/pv-factor/handler"
	"github.com/penny-vault/pv-factor/router"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cpuProfile bool

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	viper.BindEnv("server.provider", "PV_PROVIDER")
	serveCmd.Flags().String("provider", data.ProviderTiingo, "Price provider: tiingo, csv or parquet")
	viper.BindPFlag("server.provider", serveCmd.Flags().Lookup("provider"))

	serveCmd.Flags().String("prices", "", "Price file used by the csv and parquet providers")
	viper.BindPFlag("server.prices", serveCmd.Flags().Lookup("prices"))

	viper.SetDefault("server.allow_origins", "*")

	serveCmd.Flags().BoolVar(&cpuProfile, "cpu-profile", false, "Run pprof and save in profile.out")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pvfactor API server",
	Long:  `Run an HTTP server that analyzes portfolios and scores risk questionnaires`,
	Run: func(cmd *cobra.Command, args []string) {
		if cpuProfile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create profile output")
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				log.Fatal().Err(err).Msg("could not start cpu profile")
			}
			defer pprof.StopCPUProfile()
		}

		provider, err := data.NewProvider(viper.GetString("server.provider"), viper.GetString("server.prices"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not create price provider")
		}

		cfg := factor.ConfigFromViper()
		if err := cfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("invalid factor configuration")
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c
			log.Info().Str("Signal", sig.String()).Msg("shutting down")
			if err := app.Shutdown(); err != nil {
				log.Error().Err(err).Msg("shutdown failed")
			}
		}()

		app.Use(cors.New(cors.Config{
			AllowOrigins: viper.GetString("server.allow_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD",
		}))

		router.SetupRoutes(app, handler.New(advisor.New(provider, cfg)))

		port := viper.GetString("server.port")
		log.Info().Str("Port", port).Msg("listening")
		if err := app.Listen(":" + port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	},
}
