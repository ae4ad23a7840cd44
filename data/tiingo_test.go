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
	"net/http"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-factor/common"
	"github.com/penny-vault/pv-factor/data"
)

const aaplJSON = `[
{"date":"2022-01-03T00:00:00.000Z","close":182.01,"adjClose":180.68,"volume":104487900},
{"date":"2022-01-04T00:00:00.000Z","close":179.7,"adjClose":178.39,"volume":99310400},
{"date":"2022-01-05T00:00:00.000Z","close":174.92,"adjClose":173.64,"volume":94537600}
]`

const msftJSON = `[
{"date":"2022-01-03T00:00:00.000Z","close":334.75,"adjClose":329.49},
{"date":"2022-01-05T00:00:00.000Z","close":316.38,"adjClose":311.41}
]`

var _ = Describe("Tiingo", func() {
	var (
		begin time.Time
		end   time.Time
		tz    *time.Location
	)

	BeforeEach(func() {
		httpmock.Activate()
		tz = common.GetTimezone()
		begin = time.Date(2022, 1, 3, 0, 0, 0, 0, tz)
		end = time.Date(2022, 1, 5, 0, 0, 0, 0, tz)

		httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/AAPL/prices?endDate=2022-01-05&startDate=2022-01-03&token=TEST",
			httpmock.NewStringResponder(200, aaplJSON))
		httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/MSFT/prices?endDate=2022-01-05&startDate=2022-01-03&token=TEST",
			httpmock.NewStringResponder(200, msftJSON))
		httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/NOPE/prices?endDate=2022-01-05&startDate=2022-01-03&token=TEST",
			httpmock.NewStringResponder(http.StatusNotFound, `{"detail":"Error: Ticker 'NOPE' not found"}`))
		httpmock.RegisterResponder("GET", "https://api.tiingo.com/tiingo/daily/EMPTY/prices?endDate=2022-01-05&startDate=2022-01-03&token=TEST",
			httpmock.NewStringResponder(200, `[]`))
	})

	AfterEach(func() {
		httpmock.DeactivateAndReset()
	})

	It("loads adjusted close prices into one column per symbol", func() {
		tiingo := data.NewTiingo("TEST")
		df, err := tiingo.GetAdjustedClose(context.Background(), []string{"AAPL", "MSFT"}, begin, end)
		Expect(err).NotTo(HaveOccurred())
		Expect(df.ColNames).To(Equal([]string{"AAPL", "MSFT"}))
		Expect(df.Len()).To(Equal(3))
		Expect(df.Dates[0]).To(Equal(time.Date(2022, 1, 3, 16, 0, 0, 0, tz)))
		Expect(df.Column("AAPL")).To(Equal([]float64{180.68, 178.39, 173.64}))
		Expect(df.Column("MSFT")[0]).To(Equal(329.49))
		Expect(math.IsNaN(df.Column("MSFT")[1])).To(BeTrue())
		Expect(df.Column("MSFT")[2]).To(Equal(311.41))
	})

	It("upper cases symbols", func() {
		tiingo := data.NewTiingo("TEST")
		df, err := tiingo.GetAdjustedClose(context.Background(), []string{"aapl"}, begin, end)
		Expect(err).NotTo(HaveOccurred())
		Expect(df.ColNames).To(Equal([]string{"AAPL"}))
	})

	It("omits symbols that cannot be loaded", func() {
		tiingo := data.NewTiingo("TEST")
		symbols := []string{"AAPL", "NOPE", "EMPTY", "MSFT"}
		df, err := tiingo.GetAdjustedClose(context.Background(), symbols, begin, end)
		Expect(err).NotTo(HaveOccurred())
		Expect(df.ColNames).To(Equal([]string{"AAPL", "MSFT"}))
		Expect(data.Missing(symbols, df)).To(Equal([]string{"NOPE", "EMPTY"}))
	})

	It("fails when no symbol can be loaded", func() {
		tiingo := data.NewTiingo("TEST")
		_, err := tiingo.GetAdjustedClose(context.Background(), []string{"NOPE"}, begin, end)
		Expect(err).To(MatchError(data.ErrNoData))
	})

	It("rejects a range that ends before it begins", func() {
		tiingo := data.NewTiingo("TEST")
		_, err := tiingo.GetAdjustedClose(context.Background(), []string{"AAPL"}, end, begin)
		Expect(err).To(MatchError(data.ErrBeginAfterEnd))
		Expect(httpmock.GetTotalCallCount()).To(Equal(0))
	})

	It("stops when the context is cancelled", func() {
		tiingo := data.NewTiingo("TEST")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := tiingo.GetAdjustedClose(ctx, []string{"AAPL", "MSFT"}, begin, end)
		Expect(err).To(MatchError(context.Canceled))
	})
})
