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

	"github.com/penny-vault/pv-factor/factor"
)

// balancedDominantGap is the largest gap of the dominant factor for which a
// portfolio without over or under exposed factors is described as balanced
const balancedDominantGap = 0.05

// listLimit is the number of symbols named before a list is abbreviated
const listLimit = 5

const disclaimer = "This report uses historical data and principal component analysis to describe the " +
	"structure of the portfolio. It is not a recommendation to buy or sell any security. Use it as a " +
	"reference when considering a rebalance: it shows where the portfolio is concentrated and what " +
	"could complement it."

// FactorRole is a short label for the kind of risk a factor usually captures
func FactorRole(number int) string {
	switch number {
	case 1:
		return "market direction"
	case 2:
		return "growth/style"
	case 3:
		return "sector/defensive"
	default:
		return "theme/industry"
	}
}

func factorRoleComment(number int, name string) string {
	base := fmt.Sprintf("%s is the factor with the #%d largest explained variance. ", name, number)
	switch number {
	case 1:
		return base + "It usually captures the direction of the market as a whole, where most holdings move together."
	case 2:
		return base + "It often reflects a style spread such as growth vs. value or aggressive vs. defensive stocks."
	case 3:
		return base + "It is often read as sensitivity to defensive sectors such as financials, staples and health care, or to a particular industry group."
	default:
		return base + "It tends to capture moves specific to a sector or theme such as semiconductors or electric vehicles."
	}
}

// DiffComment grades the difference between the actual and target exposure
func DiffComment(actual, target float64) string {
	diff := actual - target
	gap := math.Abs(diff)

	switch {
	case gap < 0.03:
		return "close to target."
	case gap < 0.08:
		if diff > 0 {
			return "slightly above target."
		}
		return "slightly below target."
	case gap < 0.15:
		if diff > 0 {
			return "somewhat above target."
		}
		return "somewhat below target."
	default:
		if diff > 0 {
			return "significantly above target; exposure is concentrated here."
		}
		return "significantly below target; exposure is weak for this profile."
	}
}

// MomentumComment grades a trailing cumulative return
func MomentumComment(v float64) string {
	switch {
	case math.IsNaN(v):
		return "not enough data to evaluate recent performance."
	case v > 0.50:
		return "very strong rally over the recent window."
	case v > 0.20:
		return "good upward trend over the recent window."
	case v > 0.05:
		return "mild gains over the recent window."
	case v > -0.05:
		return "flat with no clear direction over the recent window."
	case v > -0.20:
		return "somewhat weak over the recent window."
	default:
		return "very weak over the recent window."
	}
}

// JoinSymbols lists symbols in prose: "A", "A and B", "A, B and C". More than
// listLimit symbols are abbreviated with "etc."
func JoinSymbols(symbols []string) string {
	switch {
	case len(symbols) == 0:
		return ""
	case len(symbols) == 1:
		return symbols[0]
	case len(symbols) <= listLimit:
		return strings.Join(symbols[:len(symbols)-1], ", ") + " and " + symbols[len(symbols)-1]
	default:
		return strings.Join(symbols[:listLimit], ", ") + " etc."
	}
}

func factorNames(numbers []int) string {
	names := make([]string, len(numbers))
	for idx, number := range numbers {
		names[idx] = factor.FactorName(number)
	}
	return strings.Join(names, ", ")
}

// Narrative writes a plain language markdown report of the analysis
func Narrative(analysis *factor.Analysis) string {
	var sb strings.Builder
	category := analysis.Profile

	sb.WriteString("# Portfolio factor report\n\n")

	sb.WriteString("## 1. Your risk profile\n\n")
	fmt.Fprintf(&sb, "- **Profile:** %s\n", category)
	if desc := category.Description(); desc != "" {
		fmt.Fprintf(&sb, "- **Description:** %s\n", desc)
	}
	fmt.Fprintf(&sb, "- **In short:** %s\n\n", category.Brief())

	writeFirstImpression(&sb, analysis)
	writeExposureCheck(&sb, analysis)
	writeIdeas(&sb, analysis)
	writeMomentum(&sb, analysis)
	writeConclusion(&sb, analysis)

	sb.WriteString("---\n\n")
	sb.WriteString("_" + disclaimer + "_\n")

	return sb.String()
}

func writeFirstImpression(sb *strings.Builder, analysis *factor.Analysis) {
	sb.WriteString("## 2. First impression\n\n")

	dominant := analysis.Dominant()
	role := FactorRole(dominant.Number)

	if analysis.Balanced() && math.Abs(dominant.Gap) < balancedDominantGap {
		fmt.Fprintf(sb, "Overall the portfolio is reasonably balanced and does not stray far from your profile. "+
			"%s (%s) carries the largest weight, so your account will tend to move with the conditions that favor that factor.\n\n",
			dominant.Factor, role)
	} else {
		if dominant.Gap > 0 {
			fmt.Fprintf(sb, "Your profile is %s, but the portfolio leans most heavily on %s (%s).\n\n", analysis.Profile, dominant.Factor, role)
		} else {
			fmt.Fprintf(sb, "Your profile is %s, but the exposure to %s (%s) is somewhat below its target.\n\n", analysis.Profile, dominant.Factor, role)
		}

		if len(analysis.OverFactors) > 0 {
			fmt.Fprintf(sb, "- Exposure is concentrated in %s.\n", factorNames(analysis.OverFactors))
		}
		if len(analysis.UnderFactors) > 0 {
			fmt.Fprintf(sb, "- Exposure to %s is light relative to your profile.\n", factorNames(analysis.UnderFactors))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("A simplified reading of what each factor tends to represent:\n\n")
	for _, fe := range analysis.Factors {
		fmt.Fprintf(sb, "- %s", factorRoleComment(fe.Number, fe.Factor))
		if fe.Degenerate {
			sb.WriteString(" _This factor is a long-short spread whose weights sum to zero; its exposure is shown on a unit-norm scale._")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func writeExposureCheck(sb *strings.Builder, analysis *factor.Analysis) {
	sb.WriteString("## 3. Factor exposure vs. target\n\n")
	sb.WriteString("Target factor weights for your profile compared with the actual exposure of the portfolio:\n\n")

	for _, fe := range analysis.Factors {
		fmt.Fprintf(sb, "- **%s:** actual %.1f%%, target %.1f%%: %s\n", fe.Factor, fe.Normalized*100, fe.Target*100, DiffComment(fe.Normalized, fe.Target))
	}
	sb.WriteString("\n")

	if analysis.Balanced() {
		sb.WriteString("In summary the allocation fits your profile well without notable concentration.\n\n")
		return
	}

	pieces := []string{}
	if len(analysis.OverFactors) > 0 {
		pieces = append(pieces, "some factors carry more weight than intended")
	}
	if len(analysis.UnderFactors) > 0 {
		pieces = append(pieces, "others are under-represented for your profile")
	}
	fmt.Fprintf(sb, "In summary %s. A long-term rebalance may be worth considering.\n\n", strings.Join(pieces, " while "))
}

func writeIdeas(sb *strings.Builder, analysis *factor.Analysis) {
	sb.WriteString("## 4. Ideas for rebalancing\n\n")

	if len(analysis.TrimCandidates) > 0 {
		sb.WriteString("**Reducing over-exposed factors.** Holdings most sensitive to each over-exposed factor:\n\n")
		for _, number := range analysis.OverFactors {
			if symbols := analysis.TrimCandidates[number]; len(symbols) > 0 {
				fmt.Fprintf(sb, "- %s: %s\n", factor.FactorName(number), JoinSymbols(symbols))
			}
		}
		sb.WriteString("\nTrimming these positions slightly can ease the overall exposure to the factor.\n\n")
	} else {
		sb.WriteString("No factor is clearly over-weighted, so there is no pressing need to trim.\n\n")
	}

	if len(analysis.AddCandidates) > 0 {
		sb.WriteString("**Adding to under-exposed factors.** Symbols with the highest loading on each under-exposed factor:\n\n")
		for _, number := range analysis.UnderFactors {
			if symbols := analysis.AddCandidates[number]; len(symbols) > 0 {
				fmt.Fprintf(sb, "- %s: %s\n", factor.FactorName(number), JoinSymbols(symbols))
			}
		}
		sb.WriteString("\nAdding to these gradually can move the portfolio toward its target exposure.\n\n")
	} else {
		sb.WriteString("No factor is short enough to call for adding specific positions right now.\n\n")
	}
}

func writeMomentum(sb *strings.Builder, analysis *factor.Analysis) {
	sb.WriteString("## 5. Recent factor performance\n\n")
	sb.WriteString("Cumulative return of each factor over the recent window, best first:\n\n")

	ranking := analysis.MomentumRanking()
	for _, pair := range ranking {
		if math.IsNaN(pair.Value) {
			fmt.Fprintf(sb, "- %s: n/a: %s\n", pair.Key, MomentumComment(pair.Value))
			continue
		}
		fmt.Fprintf(sb, "- %s: %.2f%%: %s\n", pair.Key, pair.Value*100, MomentumComment(pair.Value))
	}
	sb.WriteString("\n")

	if len(ranking) > 1 {
		fmt.Fprintf(sb, "%s performed best recently while %s lagged.\n\n", ranking[0].Key, ranking[len(ranking)-1].Key)
	}
}

func writeConclusion(sb *strings.Builder, analysis *factor.Analysis) {
	sb.WriteString("## 6. Bottom line\n\n")

	if analysis.Balanced() {
		sb.WriteString("A well diversified portfolio without notable concentration relative to your profile; " +
			"its swings will still follow the conditions of its largest factor.\n\n")
		return
	}

	parts := []string{}
	if len(analysis.OverFactors) > 0 {
		parts = append(parts, fmt.Sprintf("weighted toward %s", factorNames(analysis.OverFactors)))
	}
	if len(analysis.UnderFactors) > 0 {
		parts = append(parts, fmt.Sprintf("light on %s", factorNames(analysis.UnderFactors)))
	}
	fmt.Fprintf(sb, "The portfolio is %s relative to your profile.\n\n", strings.Join(parts, " and "))
}
