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

package dataframe

import (
	"math"
	"time"

	"github.com/goccy/go-json"
)

type jsonDataFrame struct {
	Dates    []time.Time  `json:"dates"`
	ColNames []string     `json:"colNames"`
	Vals     [][]*float64 `json:"vals"`
}

// MarshalJSON encodes the dataframe; NaN values are encoded as null
func (df *DataFrame) MarshalJSON() ([]byte, error) {
	out := jsonDataFrame{
		Dates:    df.Dates,
		ColNames: df.ColNames,
		Vals:     make([][]*float64, len(df.Vals)),
	}

	if out.Dates == nil {
		out.Dates = []time.Time{}
	}
	if out.ColNames == nil {
		out.ColNames = []string{}
	}

	for colIdx, col := range df.Vals {
		out.Vals[colIdx] = make([]*float64, len(col))
		for rowIdx := range col {
			if !math.IsNaN(col[rowIdx]) && !math.IsInf(col[rowIdx], 0) {
				out.Vals[colIdx][rowIdx] = &col[rowIdx]
			}
		}
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes a dataframe encoded with MarshalJSON; null values
// become NaN
func (df *DataFrame) UnmarshalJSON(data []byte) error {
	var in jsonDataFrame
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	df.Dates = in.Dates
	df.ColNames = in.ColNames
	df.Vals = make([][]float64, len(in.Vals))
	for colIdx, col := range in.Vals {
		df.Vals[colIdx] = make([]float64, len(col))
		for rowIdx, v := range col {
			if v == nil {
				df.Vals[colIdx][rowIdx] = math.NaN()
			} else {
				df.Vals[colIdx][rowIdx] = *v
			}
		}
	}

	return nil
}
