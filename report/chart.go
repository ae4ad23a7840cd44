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

package report

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/penny-vault/pv-factor/common"
	"github.com/penny-vault/pv-factor/factor"
	"github.com/rs/zerolog/log"
	charts "github.com/vicanso/go-charts/v2"
)

const (
	ExplainedVarianceFile = "explained_variance.png"
	CumulativeReturnFile  = "cumulative_returns.png"

	// chartFactors is the number of factors drawn next to the market
	chartFactors = 3
)

var ErrNoChartData = errors.New("nothing to chart")

// Series is chart-ready data: one row of values per series name, aligned
// with Labels
type Series struct {
	Labels []string    `json:"labels"`
	Names  []string    `json:"names"`
	Values [][]float64 `json:"values"`
}

// ExplainedVarianceSeries returns the explained variance ratio per factor
func ExplainedVarianceSeries(decomp *factor.Decomposition) *Series {
	return &Series{
		Labels: decomp.FactorNames(),
		Names:  []string{"Explained Variance"},
		Values: [][]float64{decomp.ExplainedVariance()},
	}
}

// CumulativeReturnSeries returns the compounded market return and the
// compounded returns of the first three factors
func CumulativeReturnSeries(decomp *factor.Decomposition) *Series {
	cumulative := decomp.CumulativeReturns()
	n := 1 + chartFactors
	if n > cumulative.ColCount() {
		n = cumulative.ColCount()
	}

	series := &Series{
		Labels: make([]string, cumulative.Len()),
		Names:  cumulative.ColNames[:n],
		Values: make([][]float64, n),
	}
	for idx, dt := range cumulative.Dates {
		series.Labels[idx] = dt.Format(common.DateFormat)
	}
	for idx := 0; idx < n; idx++ {
		series.Values[idx] = cumulative.Vals[idx]
	}
	return series
}

// ExplainedVarianceChart draws a bar chart of the explained variance ratio
// of each factor as a PNG
func ExplainedVarianceChart(decomp *factor.Decomposition) ([]byte, error) {
	series := ExplainedVarianceSeries(decomp)
	if len(series.Labels) == 0 {
		return nil, ErrNoChartData
	}

	p, err := charts.BarRender(
		series.Values,
		charts.TitleTextOptionFunc("Explained Variance by Factor"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data: series.Labels,
		}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: series.Names,
			Top:  charts.PositionBottom,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return p.Bytes()
}

// CumulativeReturnChart draws the cumulative return of the market and the
// leading factors as a PNG line chart
func CumulativeReturnChart(decomp *factor.Decomposition) ([]byte, error) {
	series := CumulativeReturnSeries(decomp)
	if len(series.Labels) == 0 {
		return nil, ErrNoChartData
	}

	values := make([][]float64, len(series.Values))
	for idx, vals := range series.Values {
		values[idx] = make([]float64, len(vals))
		for rowIdx, v := range vals {
			if math.IsNaN(v) {
				v = 0
			}
			values[idx][rowIdx] = v * 100
		}
	}

	splitNum := len(series.Labels) / 60
	if splitNum < 3 {
		splitNum = 3
	}

	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc("Cumulative Return: Market vs. Factors", "%"),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        series.Labels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: series.Names,
			Top:  charts.PositionBottom,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return p.Bytes()
}

// WriteCharts renders both charts into dir and returns the written paths
func WriteCharts(decomp *factor.Decomposition, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	renders := []struct {
		name string
		fn   func(*factor.Decomposition) ([]byte, error)
	}{
		{ExplainedVarianceFile, ExplainedVarianceChart},
		{CumulativeReturnFile, CumulativeReturnChart},
	}

	paths := make([]string, 0, len(renders))
	for _, r := range renders {
		buf, err := r.fn(decomp)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, r.name)
		if err := os.WriteFile(path, buf, 0o644); err != nil {
			return paths, err
		}
		log.Info().Str("Path", path).Int("Bytes", len(buf)).Msg("wrote chart")
		paths = append(paths, path)
	}

	return paths, nil
}
