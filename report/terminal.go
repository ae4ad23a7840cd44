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
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/penny-vault/pv-factor/factor"
)

// terminalChartHeight is the number of rows of the ascii plot
const terminalChartHeight = 12

// TerminalChart plots the cumulative return (in percent) of the market and
// the leading factors as an ascii line chart. Series are listed in plot
// order below the chart since the plot itself carries no legend.
func TerminalChart(decomp *factor.Decomposition, width int) string {
	series := CumulativeReturnSeries(decomp)
	if len(series.Labels) < 2 {
		return ""
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

	opts := []asciigraph.Option{
		asciigraph.Height(terminalChartHeight),
		asciigraph.Caption(fmt.Sprintf("Cumulative return %% (%s to %s)", series.Labels[0], series.Labels[len(series.Labels)-1])),
	}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}

	var sb strings.Builder
	sb.WriteString(asciigraph.PlotMany(values, opts...))
	sb.WriteString("\n\n")
	for idx, name := range series.Names {
		last := values[idx][len(values[idx])-1]
		fmt.Fprintf(&sb, "  %d. %-10s %+.2f%%\n", idx+1, name, last)
	}
	return sb.String()
}
