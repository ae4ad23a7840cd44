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
	"strings"
)

// Summary renders a plain text overview of the analysis listing exposures,
// targets, over/under factors, trim/add candidates and the momentum ranking
func (a *Analysis) Summary() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Risk profile: %s\n", a.Profile)
	fmt.Fprintf(&sb, "Gap threshold: %.2f\n\n", a.GapThreshold)

	sb.WriteString("Exposures:\n")
	for _, fe := range a.Factors {
		fmt.Fprintf(&sb, "  %s: exposure %.4f, normalized %.4f, target %.4f, gap %+.4f (%s)",
			fe.Factor, fe.Exposure, fe.Normalized, fe.Target, fe.Gap, fe.Classification)
		if fe.Degenerate {
			sb.WriteString(" [degenerate]")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Over-exposed factors: %s\n", a.factorList(a.OverFactors))
	fmt.Fprintf(&sb, "Under-exposed factors: %s\n", a.factorList(a.UnderFactors))

	for _, number := range a.OverFactors {
		fmt.Fprintf(&sb, "  Trim candidates for %s: %s\n", FactorName(number), symbolList(a.TrimCandidates[number]))
	}
	for _, number := range a.UnderFactors {
		fmt.Fprintf(&sb, "  Add candidates for %s: %s\n", FactorName(number), symbolList(a.AddCandidates[number]))
	}

	sb.WriteString("\nMomentum ranking:\n")
	for idx, pair := range a.MomentumRanking() {
		if math.IsNaN(pair.Value) {
			fmt.Fprintf(&sb, "  %d. %s: n/a\n", idx+1, pair.Key)
			continue
		}
		fmt.Fprintf(&sb, "  %d. %s: %+.2f%%\n", idx+1, pair.Key, pair.Value*100)
	}

	return sb.String()
}

func (a *Analysis) factorList(numbers []int) string {
	if len(numbers) == 0 {
		return "none"
	}
	names := make([]string, len(numbers))
	for idx, number := range numbers {
		names[idx] = FactorName(number)
	}
	return strings.Join(names, ", ")
}

func symbolList(symbols []string) string {
	if len(symbols) == 0 {
		return "none"
	}
	return strings.Join(symbols, ", ")
}
