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
	"sort"
	"time"
)

type Map map[string]*DataFrame

// DataFrame joins each dataframe in the map into a single dataframe. The date
// index is the sorted union of all dates (an outer join); values that are not
// present in a source dataframe are filled with NaN. Columns are ordered by
// map key so the result is deterministic.
func (dfMap Map) DataFrame() *DataFrame {
	keys := make([]string, 0, len(dfMap))
	for k := range dfMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dfs := make([]*DataFrame, 0, len(keys))
	for _, k := range keys {
		dfs = append(dfs, dfMap[k])
	}

	return Merge(dfs...)
}

// Merge performs an outer join on the date index of all dataframes. Columns
// appear in argument order.
func Merge(dfs ...*DataFrame) *DataFrame {
	dateSet := make(map[int64]time.Time)
	for _, df := range dfs {
		for _, dt := range df.Dates {
			dateSet[dt.UnixNano()] = dt
		}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for _, dt := range dateSet {
		dates = append(dates, dt)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	rowIdx := make(map[int64]int, len(dates))
	for idx, dt := range dates {
		rowIdx[dt.UnixNano()] = idx
	}

	res := &DataFrame{
		Dates:    dates,
		ColNames: []string{},
		Vals:     [][]float64{},
	}

	for _, df := range dfs {
		for colIdx, colName := range df.ColNames {
			col := make([]float64, len(dates))
			for ii := range col {
				col[ii] = math.NaN()
			}
			for ii, dt := range df.Dates {
				col[rowIdx[dt.UnixNano()]] = df.Vals[colIdx][ii]
			}
			res.ColNames = append(res.ColNames, colName)
			res.Vals = append(res.Vals, col)
		}
	}

	return res
}
