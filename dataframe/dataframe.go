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
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/mat"
)

// New creates an empty dataframe with the given columns
func New(colNames ...string) *DataFrame {
	df := &DataFrame{
		Dates:    []time.Time{},
		ColNames: make([]string, len(colNames)),
		Vals:     make([][]float64, len(colNames)),
	}
	copy(df.ColNames, colNames)
	for idx := range df.Vals {
		df.Vals[idx] = []float64{}
	}
	return df
}

// ColIndex returns the index of the specified column; returns -1 if column doesn't exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}

	return -1
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame) ColCount() int {
	return len(df.ColNames)
}

// Column returns the values of the named column or nil if it does not exist
func (df *DataFrame) Column(colName string) []float64 {
	idx := df.ColIndex(colName)
	if idx == -1 {
		return nil
	}
	return df.Vals[idx]
}

// Copy creates a deep copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		ColNames: make([]string, len(df.ColNames)),
		Dates:    make([]time.Time, len(df.Dates)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.ColNames, df.ColNames)
	copy(df2.Dates, df.Dates)

	for idx := range df2.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// CountValid returns the number of non-NaN values in each column
func (df *DataFrame) CountValid() []int {
	counts := make([]int, len(df.Vals))
	for colIdx, col := range df.Vals {
		for _, v := range col {
			if !math.IsNaN(v) {
				counts[colIdx]++
			}
		}
	}
	return counts
}

// CumulativeReturn compounds each column of periodic returns: (1+r).cumprod() - 1.
// NaN returns are treated as flat periods. Returns a new dataframe.
func (df *DataFrame) CumulativeReturn() *DataFrame {
	df2 := df.Copy()
	for _, col := range df2.Vals {
		growth := 1.0
		for rowIdx, v := range col {
			if !math.IsNaN(v) {
				growth *= 1 + v
			}
			col[rowIdx] = growth - 1
		}
	}
	return df2
}

// DropAllNaCols removes columns that contain no valid observations. Operates in-place.
func (df *DataFrame) DropAllNaCols() *DataFrame {
	return df.DropSparseCols(1)
}

// DropAllNaRows removes rows where every column is NaN. Operates in-place.
func (df *DataFrame) DropAllNaRows() *DataFrame {
	return df.DropSparseRows(1)
}

// DropSparseCols removes all columns that have fewer than minValid non-NaN
// values. Operates in-place.
func (df *DataFrame) DropSparseCols(minValid int) *DataFrame {
	counts := df.CountValid()
	colNames := make([]string, 0, len(df.ColNames))
	vals := make([][]float64, 0, len(df.Vals))
	for colIdx, cnt := range counts {
		if cnt >= minValid {
			colNames = append(colNames, df.ColNames[colIdx])
			vals = append(vals, df.Vals[colIdx])
		}
	}

	df.ColNames = colNames
	df.Vals = vals
	return df
}

// DropSparseRows removes all rows that have fewer than minValid non-NaN
// values. Operates in-place.
func (df *DataFrame) DropSparseRows(minValid int) *DataFrame {
	newDates := make([]time.Time, 0, len(df.Dates))
	newVals := make([][]float64, len(df.Vals))

	for rowIdx, dt := range df.Dates {
		cnt := 0
		for _, col := range df.Vals {
			if !math.IsNaN(col[rowIdx]) {
				cnt++
			}
		}

		if cnt >= minValid {
			newDates = append(newDates, dt)
			for colIdx, col := range df.Vals {
				newVals[colIdx] = append(newVals[colIdx], col[rowIdx])
			}
		}
	}

	df.Dates = newDates
	df.Vals = newVals
	return df
}

// End returns the last time in the DataFrame
func (df *DataFrame) End() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[len(df.Dates)-1]
}

// HasNaN reports whether any value in the dataframe is NaN
func (df *DataFrame) HasNaN() bool {
	for _, col := range df.Vals {
		for _, v := range col {
			if math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}

// Insert a new column to the end of the dataframe. The column must have the
// same length as the date index.
func (df *DataFrame) Insert(name string, col []float64) error {
	if len(col) != len(df.Dates) {
		return fmt.Errorf("%w: column %s has %d rows, expected %d", ErrDateIndexNotAligned, name, len(col), len(df.Dates))
	}
	df.ColNames = append(df.ColNames, name)
	df.Vals = append(df.Vals, col)
	return nil
}

// InsertMap adds a new row to the dataframe. Date must be after the last date in the dataframe.
// Columns missing from vals are filled with NaN and additional keys in vals are ignored.
func (df *DataFrame) InsertMap(date time.Time, vals map[string]float64) error {
	if len(df.Dates) != 0 && !df.End().Before(date) {
		return fmt.Errorf("%w: %s is not after %s", ErrDateOrder, date.Format("2006-01-02"), df.End().Format("2006-01-02"))
	}

	df.Dates = append(df.Dates, date)
	for colIdx, colName := range df.ColNames {
		if val, ok := vals[colName]; ok {
			df.Vals[colIdx] = append(df.Vals[colIdx], val)
		} else {
			df.Vals[colIdx] = append(df.Vals[colIdx], math.NaN())
		}
	}

	return nil
}

// InsertRow adds a new row to the dataframe. Date must be after the last date
// in the dataframe and vals must equal the number of columns.
func (df *DataFrame) InsertRow(date time.Time, vals ...float64) error {
	if len(df.Dates) != 0 && !df.End().Before(date) {
		return fmt.Errorf("%w: %s is not after %s", ErrDateOrder, date.Format("2006-01-02"), df.End().Format("2006-01-02"))
	}

	if len(vals) != len(df.ColNames) {
		return fmt.Errorf("%w: got %d expected %d", ErrColumnCount, len(vals), len(df.ColNames))
	}

	df.Dates = append(df.Dates, date)
	for colIdx := range df.ColNames {
		df.Vals[colIdx] = append(df.Vals[colIdx], vals[colIdx])
	}

	return nil
}

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// Mat converts the dataframe into a gonum matrix with one row per date and one
// column per dataframe column
func (df *DataFrame) Mat() *mat.Dense {
	if df.Len() == 0 || df.ColCount() == 0 {
		return &mat.Dense{}
	}

	m := mat.NewDense(df.Len(), df.ColCount(), nil)
	for colIdx, col := range df.Vals {
		m.SetCol(colIdx, col)
	}
	return m
}

// PctChange computes the period-over-period percentage change of each column.
// Missing prices are forward filled before differencing so a gap does not
// produce two missing returns. The first row is always NaN.
func (df *DataFrame) PctChange() *DataFrame {
	res := &DataFrame{
		Dates:    make([]time.Time, len(df.Dates)),
		ColNames: make([]string, len(df.ColNames)),
		Vals:     make([][]float64, len(df.Vals)),
	}
	copy(res.Dates, df.Dates)
	copy(res.ColNames, df.ColNames)

	for colIdx, col := range df.Vals {
		out := make([]float64, len(col))
		last := math.NaN()
		for rowIdx, v := range col {
			out[rowIdx] = math.NaN()
			if math.IsNaN(v) {
				if rowIdx > 0 && !math.IsNaN(last) {
					// forward filled price: no change
					out[rowIdx] = 0
				}
				continue
			}
			if !math.IsNaN(last) {
				out[rowIdx] = v/last - 1
			}
			last = v
		}
		res.Vals[colIdx] = out
	}

	return res
}

// RowMean computes the mean of each row ignoring NaN values and returns a
// single column dataframe named `name`. Rows with no valid values are NaN.
func (df *DataFrame) RowMean(name string) *DataFrame {
	means := make([]float64, df.Len())
	for rowIdx := range df.Dates {
		sum := 0.0
		cnt := 0
		for _, col := range df.Vals {
			if v := col[rowIdx]; !math.IsNaN(v) {
				sum += v
				cnt++
			}
		}
		if cnt == 0 {
			means[rowIdx] = math.NaN()
		} else {
			means[rowIdx] = sum / float64(cnt)
		}
	}

	return &DataFrame{
		Dates:    df.Dates,
		ColNames: []string{name},
		Vals:     [][]float64{means},
	}
}

// Start returns the first date of the dataframe
func (df *DataFrame) Start() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[0]
}

// Table prints an ASCII formatted table
func (df *DataFrame) Table() string {
	if len(df.Dates) == 0 {
		return "<NO DATA>" // nothing to do as there is no data available in the dataframe
	}

	// construct table header
	tableCols := append([]string{"DATE"}, df.ColNames...)

	// initialize table
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = "Num Rows"
	if len(footer) > 1 {
		footer[1] = fmt.Sprintf("%d", df.Len())
	}
	table.SetFooter(footer)
	table.SetBorder(false) // Set Border to false

	for rowIdx, date := range df.Dates {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, date.Format("2006-01-02"))
		for _, col := range df.Vals {
			row = append(row, fmt.Sprintf("%.4f", col[rowIdx]))
		}
		table.Append(row)
	}

	table.Render()
	return s.String()
}

// Tail returns a new dataframe containing the last n rows. If the dataframe
// has n rows or fewer the entire dataframe is returned.
func (df *DataFrame) Tail(n int) *DataFrame {
	if n >= df.Len() {
		return df
	}
	if n < 0 {
		n = 0
	}

	start := df.Len() - n
	df2 := &DataFrame{
		Dates:    df.Dates[start:],
		ColNames: df.ColNames,
		Vals:     make([][]float64, len(df.Vals)),
	}

	for colIdx, col := range df.Vals {
		df2.Vals[colIdx] = col[start:]
	}

	return df2
}

// Trim the dataframe to the specified date range (inclusive)
func (df *DataFrame) Trim(begin, end time.Time) *DataFrame {
	df2 := &DataFrame{
		ColNames: df.ColNames,
		Dates:    []time.Time{},
		Vals:     make([][]float64, len(df.Vals)),
	}

	for colIdx := range df2.Vals {
		df2.Vals[colIdx] = []float64{}
	}

	// special case: requested range is invalid or dataframe is empty
	if end.Before(begin) || df.Len() == 0 {
		return df2
	}

	// Use binary search to find the index corresponding to the start and end times
	beginIdx := sort.Search(len(df.Dates), func(i int) bool {
		return !df.Dates[i].Before(begin)
	})

	endIdx := sort.Search(len(df.Dates), func(i int) bool {
		return df.Dates[i].After(end)
	})

	if beginIdx >= endIdx {
		return df2
	}

	df2.Dates = df.Dates[beginIdx:endIdx]
	for colIdx, col := range df.Vals {
		df2.Vals[colIdx] = col[beginIdx:endIdx]
	}

	return df2
}
