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
	"context"
	"fmt"
	"os"

	"github.com/penny-vault/pv-factor/common"
	"github.com/penny-vault/pv-factor/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var shutdownTracing func(context.Context) error

func init() {
	// Price data
	viper.BindEnv("tiingo.token", "TIINGO_TOKEN")
	rootCmd.PersistentFlags().String("tiingo-token", "", "Tiingo API token")
	viper.BindPFlag("tiingo.token", rootCmd.PersistentFlags().Lookup("tiingo-token"))

	// Logging configuration
	viper.BindEnv("log.level", "PV_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "PV_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "PV_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.BindEnv("log.pretty", "PV_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", true, "Format log messages for humans instead of JSON")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Cache
	viper.BindEnv("cache.disabled", "PV_CACHE_DISABLED")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Do not cache downloaded prices")
	viper.BindPFlag("cache.disabled", rootCmd.PersistentFlags().Lookup("no-cache"))

	viper.BindEnv("cache.redis", "PV_CACHE_REDIS")
	viper.BindEnv("cache.redis_url", "REDIS_URL")
	viper.SetDefault("cache.local_size", 64)
	viper.SetDefault("cache.ttl", 6*60*60)

	// Tracing
	viper.BindEnv("otlp.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

var rootCmd = &cobra.Command{
	Use:     "pvfactor",
	Version: common.CurrentVersion.String(),
	Short:   "Decompose a portfolio into eigen-portfolio factors",
	Long: `pvfactor extracts statistical risk factors (eigen-portfolios) from the daily returns of
a set of tickers, measures how much of a portfolio is exposed to each factor and
compares that exposure to the targets of the investor's risk profile.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		common.SetupLogging()

		if err := common.SetupCache(); err != nil {
			log.Warn().Err(err).Msg("could not setup cache; continuing without redis")
		}

		shutdown, err := opentelemetry.Setup()
		if err != nil {
			return fmt.Errorf("could not setup tracing: %w", err)
		}
		shutdownTracing = shutdown
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if shutdownTracing == nil {
			return
		}
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("could not flush traces")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
