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

package dataframe_test

import (
	"math"
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-factor/dataframe"
)

func day(d int) time.Time {
	return time.Date(2022, 1, d, 16, 0, 0, 0, time.UTC)
}

var _ = Describe("DataFrame", func() {
	Context("with no values", func() {
		var (
			df *dataframe.DataFrame
		)

		BeforeEach(func() {
			df = &dataframe.DataFrame{}
		})

		It("has zero length", func() {
			Expect(df.Len()).To(Equal(0))
		})

		It("has zero columns", func() {
			Expect(df.ColCount()).To(Equal(0))
		})

		It("does not error on trim", func() {
			df = df.Trim(day(1), day(20))
			Expect(df.Len()).To(Equal(0))
		})

		It("prints a placeholder table", func() {
			Expect(df.Table()).To(Equal("<NO DATA>"))
		})

		It("converts to an empty matrix", func() {
			m := df.Mat()
			Expect(m.IsEmpty()).To(BeTrue())
		})
	})

	Context("with prices for two assets", func() {
		var (
			df *dataframe.DataFrame
		)

		BeforeEach(func() {
			df = dataframe.New("AAPL", "MSFT")
			Expect(df.InsertRow(day(3), 100, 200)).To(Succeed())
			Expect(df.InsertRow(day(4), 110, math.NaN())).To(Succeed())
			Expect(df.InsertRow(day(5), 121, 220)).To(Succeed())
			Expect(df.InsertRow(day(6), 108.9, 198)).To(Succeed())
		})

		It("rejects rows that are out of order", func() {
			err := df.InsertRow(day(2), 1, 2)
			Expect(err).To(MatchError(dataframe.ErrDateOrder))
		})

		It("rejects rows with the wrong number of values", func() {
			err := df.InsertRow(day(10), 1)
			Expect(err).To(MatchError(dataframe.ErrColumnCount))
		})

		It("fills missing columns with NaN on InsertMap", func() {
			Expect(df.InsertMap(day(7), map[string]float64{"AAPL": 100})).To(Succeed())
			Expect(math.IsNaN(df.Column("MSFT")[4])).To(BeTrue())
		})

		It("computes percent change with forward filled prices", func() {
			ret := df.PctChange()
			Expect(ret.Len()).To(Equal(4))
			Expect(math.IsNaN(ret.Vals[0][0])).To(BeTrue())
			Expect(ret.Vals[0][1]).To(BeNumerically("~", 0.10, 1e-12))
			Expect(ret.Vals[0][2]).To(BeNumerically("~", 0.10, 1e-12))
			Expect(ret.Vals[0][3]).To(BeNumerically("~", -0.10, 1e-12))

			// the gap is treated as an unchanged price
			Expect(ret.Vals[1][1]).To(BeNumerically("==", 0))
			Expect(ret.Vals[1][2]).To(BeNumerically("~", 0.10, 1e-12))
			Expect(ret.Vals[1][3]).To(BeNumerically("~", -0.10, 1e-12))
		})

		It("does not modify the source on PctChange", func() {
			df.PctChange()
			Expect(df.Vals[0][0]).To(Equal(100.0))
		})

		It("drops the leading all NaN row", func() {
			ret := df.PctChange().DropAllNaRows()
			Expect(ret.Len()).To(Equal(3))
			Expect(ret.Start()).To(Equal(day(4)))
		})

		It("counts valid values", func() {
			Expect(df.CountValid()).To(Equal([]int{4, 3}))
		})

		It("drops sparse columns", func() {
			df.DropSparseCols(4)
			Expect(df.ColNames).To(Equal([]string{"AAPL"}))
		})

		It("drops sparse rows", func() {
			df.DropSparseRows(2)
			Expect(df.Len()).To(Equal(3))
			Expect(df.Dates).NotTo(ContainElement(day(4)))
		})

		It("computes the row mean ignoring NaN", func() {
			mean := df.RowMean("mean")
			Expect(mean.ColNames).To(Equal([]string{"mean"}))
			Expect(mean.Vals[0][0]).To(Equal(150.0))
			Expect(mean.Vals[0][1]).To(Equal(110.0))
		})

		It("keeps the last rows with tail", func() {
			tail := df.Tail(2)
			Expect(tail.Len()).To(Equal(2))
			Expect(tail.Start()).To(Equal(day(5)))
			Expect(df.Tail(10).Len()).To(Equal(4))
		})

		It("copies deeply", func() {
			cp := df.Copy()
			cp.Vals[0][0] = 1
			Expect(df.Vals[0][0]).To(Equal(100.0))
		})

		It("converts to a gonum matrix", func() {
			m := df.Mat()
			r, c := m.Dims()
			Expect(r).To(Equal(4))
			Expect(c).To(Equal(2))
			Expect(m.At(2, 1)).To(Equal(220.0))
		})

		It("renders a table", func() {
			Expect(df.Table()).To(ContainSubstring("2022-01-05"))
		})

		DescribeTable("trims values by date range", func(a, b time.Time, expectedLen int) {
			Expect(df.Trim(a, b).Len()).To(Equal(expectedLen))
		},
			Entry("whole range", day(3), day(6), 4),
			Entry("range to the left", day(1), day(2), 0),
			Entry("range to the right", day(7), day(9), 0),
			Entry("single date", day(4), day(4), 1),
			Entry("inverted range", day(6), day(3), 0),
			Entry("partial overlap", day(5), day(20), 2),
		)
	})

	Context("with periodic returns", func() {
		It("compounds returns", func() {
			df := dataframe.New("F1")
			Expect(df.InsertRow(day(3), 0.1)).To(Succeed())
			Expect(df.InsertRow(day(4), math.NaN())).To(Succeed())
			Expect(df.InsertRow(day(5), 0.1)).To(Succeed())

			cum := df.CumulativeReturn()
			Expect(cum.Vals[0][0]).To(BeNumerically("~", 0.1, 1e-12))
			Expect(cum.Vals[0][1]).To(BeNumerically("~", 0.1, 1e-12))
			Expect(cum.Vals[0][2]).To(BeNumerically("~", 0.21, 1e-12))
		})
	})

	Context("when merging", func() {
		It("outer joins on dates", func() {
			a := dataframe.New("A")
			Expect(a.InsertRow(day(3), 1)).To(Succeed())
			Expect(a.InsertRow(day(5), 3)).To(Succeed())

			b := dataframe.New("B")
			Expect(b.InsertRow(day(4), 20)).To(Succeed())
			Expect(b.InsertRow(day(5), 30)).To(Succeed())

			merged := dataframe.Map{"B": b, "A": a}.DataFrame()
			Expect(merged.ColNames).To(Equal([]string{"A", "B"}))
			Expect(merged.Dates).To(Equal([]time.Time{day(3), day(4), day(5)}))
			Expect(math.IsNaN(merged.Vals[0][1])).To(BeTrue())
			Expect(math.IsNaN(merged.Vals[1][0])).To(BeTrue())
			Expect(merged.Vals[1][2]).To(Equal(30.0))
		})
	})
})

var _ = Describe("DataFrame JSON", func() {
	It("round trips NaN values as null", func() {
		df := dataframe.New("A", "B")
		Expect(df.InsertRow(day(3), 1.5, math.NaN())).To(Succeed())
		Expect(df.InsertRow(day(4), 2.5, 3)).To(Succeed())

		buf, err := json.Marshal(df)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf)).To(ContainSubstring("null"))

		out := &dataframe.DataFrame{}
		Expect(json.Unmarshal(buf, out)).To(Succeed())
		Expect(out.ColNames).To(Equal([]string{"A", "B"}))
		Expect(out.Len()).To(Equal(2))
		Expect(out.Dates[1].Equal(day(4))).To(BeTrue())
		Expect(math.IsNaN(out.Vals[1][0])).To(BeTrue())
		Expect(out.Vals[1][1]).To(Equal(3.0))
	})
})
