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

package factor

import (
	"fmt"

	"github.com/spf13/viper"
)

const (
	// MinAssets is the smallest universe the decomposition accepts
	MinAssets = 2

	// ValidFraction is the share of observations a return column (or row)
	// must have for it to be kept
	ValidFraction = 0.95
)

// Config holds the tunable constants of the factor engine
type Config struct {
	// Factors is the requested number of eigen-portfolios; the number
	// retained is min(Factors, number of assets)
	Factors int

	// WinsorizeLower and WinsorizeUpper are the quantiles each asset's
	// returns are clipped to before standardization
	WinsorizeLower float64
	WinsorizeUpper float64

	// GapThreshold is the absolute difference between normalized exposure
	// and target above which a factor is over or under exposed
	GapThreshold float64

	// MomentumWindow is the number of trailing observations compounded
	// to compute factor momentum
	MomentumWindow int

	// MaxCandidates caps the trim and add candidate lists
	MaxCandidates int

	// DegenerateTolerance is the fraction of a component's L1 norm below
	// which the sum of its weights is considered zero
	DegenerateTolerance float64
}

// DefaultConfig returns the standard engine configuration
func DefaultConfig() Config {
	return Config{
		Factors:             4,
		WinsorizeLower:      0.025,
		WinsorizeUpper:      0.975,
		GapThreshold:        0.10,
		MomentumWindow:      120,
		MaxCandidates:       5,
		DegenerateTolerance: 1e-6,
	}
}

// ConfigFromViper starts with DefaultConfig and overrides any value set under
// the `factor` key
func ConfigFromViper() Config {
	cfg := DefaultConfig()
	if viper.IsSet("factor.count") {
		cfg.Factors = viper.GetInt("factor.count")
	}
	if viper.IsSet("factor.winsorize_lower") {
		cfg.WinsorizeLower = viper.GetFloat64("factor.winsorize_lower")
	}
	if viper.IsSet("factor.winsorize_upper") {
		cfg.WinsorizeUpper = viper.GetFloat64("factor.winsorize_upper")
	}
	if viper.IsSet("factor.gap_threshold") {
		cfg.GapThreshold = viper.GetFloat64("factor.gap_threshold")
	}
	if viper.IsSet("factor.momentum_window") {
		cfg.MomentumWindow = viper.GetInt("factor.momentum_window")
	}
	if viper.IsSet("factor.max_candidates") {
		cfg.MaxCandidates = viper.GetInt("factor.max_candidates")
	}
	if viper.IsSet("factor.degenerate_tolerance") {
		cfg.DegenerateTolerance = viper.GetFloat64("factor.degenerate_tolerance")
	}
	return cfg
}

// Validate checks that every value is within range
func (cfg Config) Validate() error {
	switch {
	case cfg.Factors < 1:
		return fmt.Errorf("%w: factor count must be at least 1, got %d", ErrInvalidConfig, cfg.Factors)
	case cfg.WinsorizeLower < 0 || cfg.WinsorizeUpper > 1 || cfg.WinsorizeLower > cfg.WinsorizeUpper:
		return fmt.Errorf("%w: winsorize limits must satisfy 0 <= lower <= upper <= 1, got [%g, %g]", ErrInvalidConfig, cfg.WinsorizeLower, cfg.WinsorizeUpper)
	case cfg.GapThreshold < 0:
		return fmt.Errorf("%w: gap threshold must be non-negative, got %g", ErrInvalidConfig, cfg.GapThreshold)
	case cfg.MomentumWindow < 1:
		return fmt.Errorf("%w: momentum window must be at least 1, got %d", ErrInvalidConfig, cfg.MomentumWindow)
	case cfg.MaxCandidates < 0:
		return fmt.Errorf("%w: max candidates must be non-negative, got %d", ErrInvalidConfig, cfg.MaxCandidates)
	case cfg.DegenerateTolerance < 0:
		return fmt.Errorf("%w: degenerate tolerance must be non-negative, got %g", ErrInvalidConfig, cfg.DegenerateTolerance)
	}
	return nil
}
