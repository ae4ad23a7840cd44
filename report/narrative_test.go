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

package report_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-factor/factor"
	"github.com/penny-vault/pv-factor/profile"
	"github.com/penny-vault/pv-factor/report"
)

var _ = Describe("Narrative", func() {
	DescribeTable("JoinSymbols",
		func(symbols []string, expected string) {
			Expect(report.JoinSymbols(symbols)).To(Equal(expected))
		},
		Entry("none", []string{}, ""),
		Entry("one", []string{"AAPL"}, "AAPL"),
		Entry("two", []string{"AAPL", "MSFT"}, "AAPL and MSFT"),
		Entry("five", []string{"A", "B", "C", "D", "E"}, "A, B, C, D and E"),
		Entry("six", []string{"A", "B", "C", "D", "E", "F"}, "A, B, C, D, E etc."),
	)

	DescribeTable("DiffComment",
		func(actual, target float64, expected string) {
			Expect(report.DiffComment(actual, target)).To(HavePrefix(expected))
		},
		Entry("on target", 0.30, 0.31, "close to target"),
		Entry("slightly above", 0.35, 0.30, "slightly above"),
		Entry("slightly below", 0.25, 0.30, "slightly below"),
		Entry("somewhat above", 0.40, 0.30, "somewhat above"),
		Entry("somewhat below", 0.20, 0.30, "somewhat below"),
		Entry("significantly above", 0.60, 0.30, "significantly above"),
		Entry("significantly below", 0.05, 0.30, "significantly below"),
	)

	DescribeTable("MomentumComment",
		func(v float64, expected string) {
			Expect(report.MomentumComment(v)).To(HavePrefix(expected))
		},
		Entry("missing", math.NaN(), "not enough data"),
		Entry("very strong", 0.60, "very strong"),
		Entry("good", 0.30, "good"),
		Entry("mild", 0.10, "mild"),
		Entry("flat", 0.0, "flat"),
		Entry("weak", -0.10, "somewhat weak"),
		Entry("very weak", -0.30, "very weak"),
	)

	It("describes every factor role", func() {
		Expect(report.FactorRole(1)).To(Equal("market direction"))
		Expect(report.FactorRole(2)).To(Equal("growth/style"))
		Expect(report.FactorRole(3)).To(Equal("sector/defensive"))
		Expect(report.FactorRole(7)).To(Equal("theme/industry"))
	})

	Context("with over and under exposed factors", func() {
		var (
			md string
		)

		BeforeEach(func() {
			md = report.Narrative(sampleAnalysis())
		})

		It("recaps the risk profile", func() {
			Expect(md).To(ContainSubstring("**Profile:** Balanced"))
			Expect(md).To(ContainSubstring(profile.Balanced.Brief()))
		})

		It("names the dominant factor", func() {
			Expect(md).To(ContainSubstring("leans most heavily on Factor 1 (market direction)"))
			Expect(md).To(ContainSubstring("Exposure is concentrated in Factor 1"))
			Expect(md).To(ContainSubstring("Exposure to Factor 2 is light"))
		})

		It("compares actual and target exposure", func() {
			Expect(md).To(ContainSubstring("**Factor 1:** actual 55.0%, target 35.0%: significantly above target"))
			Expect(md).To(ContainSubstring("**Factor 3:** actual 35.0%, target 35.0%: close to target"))
		})

		It("lists trim and add ideas", func() {
			Expect(md).To(ContainSubstring("- Factor 1: AAPL and MSFT"))
			Expect(md).To(ContainSubstring("- Factor 2: AAPL, MSFT and XOM"))
		})

		It("ranks momentum", func() {
			Expect(md).To(ContainSubstring("- Factor 1: 25.00%: good upward trend"))
			Expect(md).To(ContainSubstring("Factor 1 performed best recently while Factor 2 lagged."))
		})

		It("marks degenerate factors", func() {
			Expect(md).To(ContainSubstring("weights sum to zero"))
		})

		It("concludes and adds a disclaimer", func() {
			Expect(md).To(ContainSubstring("weighted toward Factor 1 and light on Factor 2"))
			Expect(md).To(ContainSubstring("not a recommendation to buy or sell"))
		})
	})

	Context("with a balanced portfolio", func() {
		It("says so", func() {
			analysis := &factor.Analysis{
				Profile: profile.Conservative,
				Factors: []*factor.FactorExposure{
					{Factor: "Factor 1", Number: 1, Normalized: 0.42, Target: 0.40, Gap: 0.02, Classification: factor.Neutral},
					{Factor: "Factor 2", Number: 2, Normalized: 0.58, Target: 0.60, Gap: -0.02, Classification: factor.Neutral},
				},
				OverFactors:    []int{},
				UnderFactors:   []int{},
				TrimCandidates: map[int][]string{},
				AddCandidates:  map[int][]string{},
			}
			md := report.Narrative(analysis)
			Expect(md).To(ContainSubstring("reasonably balanced"))
			Expect(md).To(ContainSubstring("Factor 2 (growth/style) carries the largest weight"))
			Expect(md).To(ContainSubstring("no pressing need to trim"))
			Expect(md).To(ContainSubstring("A well diversified portfolio"))
		})
	})
})
