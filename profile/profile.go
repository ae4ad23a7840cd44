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

// Package profile holds the fixed risk-tolerance tables: the five investor
// categories, their descriptions, the target factor exposure of each
// category, and the questionnaire scoring table used to assign a category.
package profile

import (
	"errors"
	"fmt"
	"strings"
)

// Category is an investor's risk-tolerance tier
type Category string

const (
	Conservative           Category = "Conservative"
	ModeratelyConservative Category = "ModeratelyConservative"
	Balanced               Category = "Balanced"
	GrowthSeeking          Category = "GrowthSeeking"
	Aggressive             Category = "Aggressive"
)

// Default is used whenever a category is not recognized
const Default = Balanced

var (
	ErrUnknownCategory = errors.New("unknown risk category")
)

// Categories lists all categories from least to most risk tolerant
var Categories = []Category{
	Conservative,
	ModeratelyConservative,
	Balanced,
	GrowthSeeking,
	Aggressive,
}

var descriptions = map[Category]string{
	Conservative: "Expects returns in line with deposits and savings accounts and does not want any loss " +
		"of principal. Suited to products with no risk of principal loss.",
	ModeratelyConservative: "Wants to minimize the risk of losing principal and targets stable income such as " +
		"interest and dividends. Can accept short-term losses for return and may put a portion into more " +
		"volatile products. Bond products are a good fit.",
	Balanced: "Understands that investing carries risk and accepts a certain level of loss in exchange for " +
		"returns above deposits. Medium-risk, medium-return funds such as savings plans or equity-linked " +
		"products are a good fit.",
	GrowthSeeking: "Pursues returns above principal preservation and is willing to invest a large part of " +
		"the capital in risky assets such as stocks, equity funds and derivatives.",
	Aggressive: "Targets returns well above the market average and actively accepts the risk of large " +
		"losses. Willing to put most of the capital in high-risk assets; funds with more than 70% equity " +
		"are a good fit.",
}

var levels = map[Category]int{
	Conservative:           1,
	ModeratelyConservative: 2,
	Balanced:               3,
	GrowthSeeking:          4,
	Aggressive:             5,
}

// base target exposure over Factor 1..4
var targets = map[Category][4]float64{
	Conservative:           {0.40, 0.10, 0.40, 0.10},
	ModeratelyConservative: {0.40, 0.20, 0.30, 0.10},
	Balanced:               {0.35, 0.30, 0.25, 0.10},
	GrowthSeeking:          {0.30, 0.40, 0.20, 0.10},
	Aggressive:             {0.25, 0.50, 0.15, 0.10},
}

// extraFactorTarget is the raw target assigned to factors beyond the fourth
// before the vector is rescaled
const extraFactorTarget = 0.05

// Parse converts a user supplied label into a Category. Matching ignores case,
// spaces, dashes and underscores.
func Parse(label string) (Category, error) {
	normalized := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(label)))
	for _, cat := range Categories {
		if strings.ToLower(string(cat)) == normalized {
			return cat, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, label)
}

// Valid returns true if c is one of the known categories
func (c Category) Valid() bool {
	_, ok := levels[c]
	return ok
}

// Resolve returns c if it is known and Default otherwise
func (c Category) Resolve() Category {
	if c.Valid() {
		return c
	}
	return Default
}

// Description returns the plain language description of the category
func (c Category) Description() string {
	return descriptions[c.Resolve()]
}

// Level is the 1-based risk level of the category, 1 is least tolerant
func (c Category) Level() int {
	return levels[c.Resolve()]
}

// Brief summarizes the attitude of the category in one sentence
func (c Category) Brief() string {
	switch level := c.Level(); {
	case level <= 2:
		return "Overall close to a stable profile that does not want significant loss of principal."
	case level == 3:
		return "Overall a profile that weighs return and risk evenly."
	default:
		return "Overall an aggressive profile willing to accept volatility in pursuit of return."
	}
}

// Targets returns the target normalized exposure for nFactors factors. The base
// vector is truncated when nFactors < 4 and padded when nFactors > 4, then
// rescaled to sum to 1. Unknown categories use Default.
func (c Category) Targets(nFactors int) []float64 {
	if nFactors <= 0 {
		return []float64{}
	}

	base := targets[c.Resolve()]
	res := make([]float64, nFactors)
	sum := 0.0
	for idx := range res {
		if idx < len(base) {
			res[idx] = base[idx]
		} else {
			res[idx] = extraFactorTarget
		}
		sum += res[idx]
	}

	for idx := range res {
		res[idx] /= sum
	}

	return res
}
