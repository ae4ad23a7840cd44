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

	"github.com/penny-vault/pv-factor/dataframe"
	"github.com/rs/zerolog/log"
)

// PrepareReturns converts a table of adjusted closing prices into daily
// returns. Symbols without any price are dropped, then return columns with
// fewer than 95% valid observations are dropped, then rows with fewer than
// 95% valid values (measured against the column count before the column
// filter) are dropped. The input is not modified.
func PrepareReturns(prices *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	prices = prices.Copy().DropAllNaCols()
	if prices.ColCount() < MinAssets {
		log.Warn().Int("NumAssets", prices.ColCount()).Msg("fewer than 2 assets have price data")
		return nil, fmt.Errorf("%w: %d assets with price data, need at least %d", ErrInsufficientData, prices.ColCount(), MinAssets)
	}

	returns := prices.PctChange().DropAllNaRows()

	colThresh := int(float64(returns.Len()) * ValidFraction)
	rowThresh := int(float64(returns.ColCount()) * ValidFraction)

	returns.DropSparseCols(colThresh)
	returns.DropSparseRows(rowThresh)

	log.Debug().Int("ColThreshold", colThresh).Int("RowThreshold", rowThresh).
		Int("NumAssets", returns.ColCount()).Int("NumRows", returns.Len()).Msg("prepared returns")

	if returns.ColCount() < MinAssets {
		return nil, fmt.Errorf("%w: %d assets with valid returns, need at least %d", ErrInsufficientData, returns.ColCount(), MinAssets)
	}

	if returns.Len() == 0 {
		return nil, fmt.Errorf("%w: no observations left after cleaning returns", ErrInsufficientData)
	}

	return returns, nil
}
