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
	"strings"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-factor/advisor"
	"github.com/penny-vault/pv-factor/data"
	"github.com/penny-vault/pv-factor/factor"
	"github.com/penny-vault/pv-factor/report"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	formatText   = "text"
	formatJSON   = "json"
	formatReport = "report"
)

var (
	analyzeTickers   string
	analyzeWeights   string
	analyzeProfile   string
	analyzeStart     string
	analyzeEnd       string
	analyzeFactors   int
	analyzeProvider  string
	analyzePrices    string
	analyzePortfolio string
	analyzeFormat    string
	analyzeChartDir  string
	analyzeStyle     string
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeTickers, "tickers", "t", "", "Comma separated list of tickers (at least 2)")
	analyzeCmd.Flags().StringVarP(&analyzeWeights, "weights", "w", "", "Comma separated portfolio weights in ticker order; equal weights if omitted")
	analyzeCmd.Flags().StringVarP(&analyzeProfile, "profile", "r", "", "Risk profile: Conservative, ModeratelyConservative, Balanced, GrowthSeeking or Aggressive")
	analyzeCmd.Flags().StringVar(&analyzeStart, "start", "", "First date of price history (YYYY-MM-DD); defaults to 5 years before end")
	analyzeCmd.Flags().StringVar(&analyzeEnd, "end", "", "Last date of price history (YYYY-MM-DD); defaults to today")
	analyzeCmd.Flags().IntVarP(&analyzeFactors, "factors", "n", 0, "Number of factors to extract")
	analyzeCmd.Flags().StringVar(&analyzeProvider, "provider", data.ProviderTiingo, "Price provider: tiingo, csv or parquet")
	analyzeCmd.Flags().StringVar(&analyzePrices, "prices", "", "Price file used by the csv and parquet providers")
	analyzeCmd.Flags().StringVarP(&analyzePortfolio, "portfolio", "p", "", "TOML portfolio file; command line flags override its values")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", formatText, "Output format: text, json or report")
	analyzeCmd.Flags().StringVar(&analyzeChartDir, "chart-dir", "", "Write explained variance and cumulative return charts to this directory")
	analyzeCmd.Flags().StringVar(&analyzeStyle, "style", "notty", "Glamour style used for the report format (dark, light, notty)")

	analyzeCmd.Flags().Float64("gap-threshold", factor.DefaultConfig().GapThreshold, "Gap between exposure and target that marks a factor over or under exposed")
	viper.BindPFlag("factor.gap_threshold", analyzeCmd.Flags().Lookup("gap-threshold"))

	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the factor exposure of a portfolio",
	Long: `Download adjusted close prices for the portfolio's tickers, extract eigen-portfolio
factors and compare the portfolio's exposure to the targets of its risk profile.`,
	Example: `  pvfactor analyze --tickers AAPL,MSFT,XOM,JNJ --weights 0.4,0.3,0.2,0.1 --profile balanced
  pvfactor analyze --portfolio portfolio.toml --format report
  pvfactor analyze --provider csv --prices prices.csv --tickers SPY,TLT,GLD --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(analyzeFormat)
		switch format {
		case formatText, formatJSON, formatReport:
		default:
			return fmt.Errorf("unknown format %q: must be one of text, json or report", analyzeFormat)
		}

		input, err := analyzeInput(cmd)
		if err != nil {
			return err
		}

		cfg := factor.ConfigFromViper()
		if err := cfg.Validate(); err != nil {
			return err
		}

		result, err := runAnalysis(context.Background(), input, cfg)
		if err != nil {
			return err
		}

		if len(result.Missing) > 0 {
			log.Warn().Strs("Missing", result.Missing).Msg("some tickers were excluded from the analysis")
		}

		if analyzeChartDir != "" {
			if _, err := report.WriteCharts(result.Decomposition, analyzeChartDir); err != nil {
				return err
			}
		}

		return printResult(result, format)
	},
}

// analyzeInput starts from the portfolio file, if any, and applies the
// flags the user set
func analyzeInput(cmd *cobra.Command) (advisor.Input, error) {
	input := advisor.Input{}
	if analyzePortfolio != "" {
		var err error
		input, err = advisor.LoadInput(analyzePortfolio)
		if err != nil {
			return input, err
		}
		log.Debug().Str("Path", analyzePortfolio).Strs("Symbols", input.Symbols).Msg("loaded portfolio file")
	}

	flags := cmd.Flags()
	if flags.Changed("tickers") {
		input.Symbols = advisor.ParseSymbols(analyzeTickers)
	}
	if flags.Changed("weights") {
		weights, err := advisor.ParseWeights(analyzeWeights)
		if err != nil {
			return input, err
		}
		input.Weights = weights
	}
	if flags.Changed("profile") {
		input.Profile = analyzeProfile
	}
	if flags.Changed("start") {
		input.Start = analyzeStart
	}
	if flags.Changed("end") {
		input.End = analyzeEnd
	}
	if flags.Changed("factors") {
		// zero means "use the configured default" in requests, so an
		// explicit zero on the command line is rejected instead
		if analyzeFactors < 1 {
			return input, fmt.Errorf("%w: --factors must be at least 1, got %d", advisor.ErrInvalidInput, analyzeFactors)
		}
		input.Factors = analyzeFactors
	}

	return input, nil
}

// runAnalysis validates the request before the price provider is built so
// bad input is reported ahead of provider configuration problems.
func runAnalysis(ctx context.Context, input advisor.Input, cfg factor.Config) (*advisor.Result, error) {
	req, err := input.Request()
	if err != nil {
		return nil, err
	}
	if err := req.Validate(cfg); err != nil {
		return nil, err
	}

	provider, err := data.NewProvider(analyzeProvider, analyzePrices)
	if err != nil {
		return nil, err
	}

	return advisor.New(provider, cfg).Run(ctx, req)
}

func printResult(result *advisor.Result, format string) error {
	switch format {
	case formatJSON:
		buf, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(buf))
	case formatReport:
		out, err := report.Render(report.Narrative(result.Analysis), analyzeStyle, report.DefaultWidth)
		if err != nil {
			return err
		}
		fmt.Print(out)
	default:
		fmt.Printf("Analysis %s (%s to %s)\n\n", result.ID, result.Request.Begin.Format("2006-01-02"), result.Request.End.Format("2006-01-02"))
		fmt.Println(report.FactorTable(result.Decomposition))
		fmt.Println(report.ExposureTable(result.Analysis))
		fmt.Println(report.TerminalChart(result.Decomposition, 80))
		fmt.Println(result.Analysis.Summary())
		if len(result.Missing) > 0 {
			fmt.Printf("Excluded tickers: %s\n", strings.Join(result.Missing, ", "))
		}
	}
	return nil
}
