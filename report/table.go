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

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pv-factor/factor"
)

// ExposureTable prints the exposure of each factor compared to its target
func ExposureTable(analysis *factor.Analysis) string {
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader([]string{"Factor", "Exposure", "Normalized", "Target", "Gap", "Classification", "Momentum"})
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, fe := range analysis.Factors {
		name := fe.Factor
		if fe.Degenerate {
			name += " *"
		}
		table.Append([]string{
			name,
			fmt.Sprintf("%.4f", fe.Exposure),
			fmt.Sprintf("%.1f%%", fe.Normalized*100),
			fmt.Sprintf("%.1f%%", fe.Target*100),
			fmt.Sprintf("%+.1f%%", fe.Gap*100),
			string(fe.Classification),
			percent(fe.Momentum),
		})
	}

	table.Render()
	return s.String()
}

// FactorTable prints the eigen-portfolio weights, one row per asset, with
// the explained variance of each factor in the footer
func FactorTable(decomp *factor.Decomposition) string {
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(append([]string{"Asset"}, decomp.FactorNames()...))
	table.SetBorder(false)

	for assetIdx, asset := range decomp.Assets {
		row := []string{asset}
		for _, ep := range decomp.Factors {
			row = append(row, fmt.Sprintf("%.4f", ep.Weights[assetIdx]))
		}
		table.Append(row)
	}

	footer := []string{"Explained Var"}
	for _, ep := range decomp.Factors {
		footer = append(footer, fmt.Sprintf("%.1f%%", ep.ExplainedVariance*100))
	}
	table.SetFooter(footer)

	table.Render()
	return s.String()
}

func percent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", v*100)
}
