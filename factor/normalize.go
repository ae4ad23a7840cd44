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
	"math"
	"sort"

	"github.com/penny-vault/pv-factor/dataframe"
	"gonum.org/v1/gonum/stat"
)

// zeroScale is the magnitude below which a standard deviation is treated as
// zero by Standardize
const zeroScale = 10 * 2.220446049250313e-16

// Normalize winsorizes each asset at the configured quantiles, z-scores each
// asset using the sample standard deviation and then standardizes the whole
// matrix a second time using the population standard deviation. Both
// standardization passes are applied; the second one only rescales by the
// ratio of sample to population variance. A new dataframe is returned.
func Normalize(returns *dataframe.DataFrame, cfg Config) (*dataframe.DataFrame, error) {
	normalized := Winsorize(returns, cfg.WinsorizeLower, cfg.WinsorizeUpper)
	if err := ZScore(normalized); err != nil {
		return nil, err
	}
	Standardize(normalized)
	return normalized, nil
}

// Winsorize clips each column to its [lower, upper] quantiles. Quantiles are
// computed over the non-NaN values with linear interpolation between order
// statistics; NaN values are kept as is. A new dataframe is returned.
func Winsorize(df *dataframe.DataFrame, lower, upper float64) *dataframe.DataFrame {
	res := df.Copy()
	for _, col := range res.Vals {
		valid := validValues(col)
		if len(valid) == 0 {
			continue
		}
		sort.Float64s(valid)
		lo := quantile(valid, lower)
		hi := quantile(valid, upper)

		for rowIdx, v := range col {
			switch {
			case math.IsNaN(v):
			case v < lo:
				col[rowIdx] = lo
			case v > hi:
				col[rowIdx] = hi
			}
		}
	}
	return res
}

// ZScore subtracts the mean and divides by the sample standard deviation of
// each column in-place. A column with zero or undefined standard deviation
// results in ErrConstantSeries.
func ZScore(df *dataframe.DataFrame) error {
	for colIdx, col := range df.Vals {
		mean, std := stat.MeanStdDev(validValues(col), nil)
		if math.IsNaN(std) || std == 0 {
			return fmt.Errorf("%w: %w: %s", ErrInsufficientData, ErrConstantSeries, df.ColNames[colIdx])
		}

		for rowIdx, v := range col {
			col[rowIdx] = (v - mean) / std
		}
	}
	return nil
}

// Standardize centers each column to zero mean and scales it to unit
// population variance in-place. Columns with zero variance are centered but
// not scaled.
func Standardize(df *dataframe.DataFrame) {
	for _, col := range df.Vals {
		valid := validValues(col)
		if len(valid) == 0 {
			continue
		}

		mean, std := stat.PopMeanStdDev(valid, nil)
		if std < zeroScale {
			std = 1
		}

		for rowIdx, v := range col {
			col[rowIdx] = (v - mean) / std
		}
	}
}

// quantile computes the q-th quantile of sorted, interpolating linearly
// between the two nearest order statistics at position q*(n-1)
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}

	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func validValues(col []float64) []float64 {
	valid := make([]float64, 0, len(col))
	for _, v := range col {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	return valid
}
