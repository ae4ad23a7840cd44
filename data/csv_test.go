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

package data_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-factor/common"
	"github.com/penny-vault/pv-factor/data"
)

const pricesCSV = `date,SPY,QQQ,TLT
2022-01-05,468.38,380.68,143.35
2022-01-03,477.71,401.68,
2022-01-04,477.55,396.82,144.05
2022-01-06,467.94,380.22,142.28
`

var _ = Describe("CSV", func() {
	var (
		path string
		tz   *time.Location
	)

	BeforeEach(func() {
		tz = common.GetTimezone()
		dir, err := os.MkdirTemp("", "pvfactor")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
		path = filepath.Join(dir, "prices.csv")
		Expect(os.WriteFile(path, []byte(pricesCSV), 0o600)).To(Succeed())
	})

	It("loads the requested symbols in request order", func() {
		provider := data.NewCSV(path)
		df, err := provider.GetAdjustedClose(context.Background(), []string{"tlt", "SPY"}, time.Time{}, time.Time{})
		Expect(err).NotTo(HaveOccurred())
		Expect(df.ColNames).To(Equal([]string{"TLT", "SPY"}))
		Expect(df.Len()).To(Equal(4))
	})

	It("sorts rows by date and marks empty cells as missing", func() {
		provider := data.NewCSV(path)
		df, err := provider.GetAdjustedClose(context.Background(), []string{"SPY", "TLT"}, time.Time{}, time.Time{})
		Expect(err).NotTo(HaveOccurred())
		Expect(df.Dates[0]).To(Equal(time.Date(2022, 1, 3, 16, 0, 0, 0, tz)))
		Expect(df.Column("SPY")).To(Equal([]float64{477.71, 477.55, 468.38, 467.94}))
		Expect(math.IsNaN(df.Column("TLT")[0])).To(BeTrue())
	})

	It("limits the rows to the requested range", func() {
		provider := data.NewCSV(path)
		begin := time.Date(2022, 1, 4, 0, 0, 0, 0, tz)
		end := time.Date(2022, 1, 5, 0, 0, 0, 0, tz)
		df, err := provider.GetAdjustedClose(context.Background(), []string{"SPY"}, begin, end)
		Expect(err).NotTo(HaveOccurred())
		Expect(df.Column("SPY")).To(Equal([]float64{477.55, 468.38}))
	})

	It("omits symbols that are not in the file", func() {
		provider := data.NewCSV(path)
		df, err := provider.GetAdjustedClose(context.Background(), []string{"SPY", "IWM"}, time.Time{}, time.Time{})
		Expect(err).NotTo(HaveOccurred())
		Expect(data.Missing([]string{"SPY", "IWM"}, df)).To(Equal([]string{"IWM"}))
	})

	It("fails when none of the symbols are in the file", func() {
		provider := data.NewCSV(path)
		_, err := provider.GetAdjustedClose(context.Background(), []string{"IWM"}, time.Time{}, time.Time{})
		Expect(err).To(MatchError(data.ErrNoData))
	})

	It("fails when the file has no date column", func() {
		Expect(os.WriteFile(path, []byte("SPY,QQQ\n1,2\n"), 0o600)).To(Succeed())
		provider := data.NewCSV(path)
		_, err := provider.GetAdjustedClose(context.Background(), []string{"SPY"}, time.Time{}, time.Time{})
		Expect(err).To(MatchError(data.ErrMissingDateIndex))
	})

	It("fails when the file does not exist", func() {
		provider := data.NewCSV(filepath.Join(filepath.Dir(path), "missing.csv"))
		_, err := provider.GetAdjustedClose(context.Background(), []string{"SPY"}, time.Time{}, time.Time{})
		Expect(err).To(HaveOccurred())
	})
})
