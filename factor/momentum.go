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
	"math"

	"github.com/penny-vault/pv-factor/dataframe"
)

// Momentum compounds the trailing window observations of every column of df
// and returns prod(1+r) - 1 per column. If df has fewer rows than window the
// entire history is used. Missing values are skipped; a column with no valid
// observations in the window has NaN momentum.
func Momentum(df *dataframe.DataFrame, window int) []float64 {
	res := make([]float64, df.ColCount())
	trailing := df
	if df.Len() > window {
		trailing = df.Tail(window)
	}

	for colIdx, col := range trailing.Vals {
		growth := 1.0
		valid := 0
		for _, r := range col {
			if math.IsNaN(r) {
				continue
			}
			growth *= 1 + r
			valid++
		}
		if valid == 0 {
			res[colIdx] = math.NaN()
			continue
		}
		res[colIdx] = growth - 1
	}

	return res
}
