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
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-factor/common"
	"github.com/penny-vault/pv-factor/data"
	"github.com/penny-vault/pv-factor/dataframe"
)

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) GetAdjustedClose(ctx context.Context, symbols []string, begin, end time.Time) (*dataframe.DataFrame, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	df := dataframe.New(symbols...)
	row := make([]float64, len(symbols))
	for idx := range row {
		row[idx] = float64(idx + 1)
	}
	row[len(row)-1] = math.NaN()
	Expect(df.InsertRow(time.Date(2022, 1, 3, 16, 0, 0, 0, time.UTC), row...)).To(Succeed())
	return df, nil
}

var _ = Describe("Cached", func() {
	var (
		ctx      context.Context
		provider *countingProvider
		begin    time.Time
		end      time.Time
	)

	BeforeEach(func() {
		common.CachePurge()
		ctx = context.Background()
		provider = &countingProvider{}
		begin = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(2022, 6, 30, 0, 0, 0, 0, time.UTC)
	})

	It("serves repeated requests from the cache", func() {
		cached := data.NewCached(provider)
		first, err := cached.GetAdjustedClose(ctx, []string{"SPY", "QQQ"}, begin, end)
		Expect(err).NotTo(HaveOccurred())
		second, err := cached.GetAdjustedClose(ctx, []string{"SPY", "QQQ"}, begin, end)
		Expect(err).NotTo(HaveOccurred())

		Expect(provider.calls).To(Equal(1))
		Expect(second.ColNames).To(Equal(first.ColNames))
		Expect(second.Column("SPY")).To(Equal(first.Column("SPY")))
		Expect(math.IsNaN(second.Column("QQQ")[0])).To(BeTrue())
		Expect(second.Dates[0].Equal(first.Dates[0])).To(BeTrue())
	})

	It("uses distinct keys for distinct requests", func() {
		cached := data.NewCached(provider)
		_, err := cached.GetAdjustedClose(ctx, []string{"SPY", "QQQ"}, begin, end)
		Expect(err).NotTo(HaveOccurred())
		_, err = cached.GetAdjustedClose(ctx, []string{"QQQ", "SPY"}, begin, end)
		Expect(err).NotTo(HaveOccurred())
		_, err = cached.GetAdjustedClose(ctx, []string{"SPY", "QQQ"}, begin, end.AddDate(0, 0, 1))
		Expect(err).NotTo(HaveOccurred())
		Expect(provider.calls).To(Equal(3))
	})

	It("does not cache errors", func() {
		provider.err = errors.New("boom")
		cached := data.NewCached(provider)
		_, err := cached.GetAdjustedClose(ctx, []string{"SPY", "QQQ"}, begin, end)
		Expect(err).To(HaveOccurred())
		_, err = cached.GetAdjustedClose(ctx, []string{"SPY", "QQQ"}, begin, end)
		Expect(err).To(HaveOccurred())
		Expect(provider.calls).To(Equal(2))
	})

	It("derives stable keys", func() {
		key := data.CacheKey(provider, []string{"SPY"}, begin, end)
		Expect(key).To(HavePrefix("prices:"))
		Expect(key).To(Equal(data.CacheKey(provider, []string{"SPY"}, begin, end)))
		Expect(key).NotTo(Equal(data.CacheKey(provider, []string{"SPY"}, begin, end.AddDate(0, 0, 1))))
	})

	It("keys on the market date rather than the time of day", func() {
		tz := common.GetTimezone()
		morning := time.Date(2022, 6, 30, 9, 30, 0, 0, tz)
		evening := time.Date(2022, 6, 30, 18, 45, 12, 0, tz)
		Expect(data.CacheKey(provider, []string{"SPY"}, begin, morning)).
			To(Equal(data.CacheKey(provider, []string{"SPY"}, begin, evening)))

		cached := data.NewCached(provider)
		_, err := cached.GetAdjustedClose(ctx, []string{"SPY", "QQQ"}, begin, morning)
		Expect(err).NotTo(HaveOccurred())
		_, err = cached.GetAdjustedClose(ctx, []string{"SPY", "QQQ"}, begin, evening)
		Expect(err).NotTo(HaveOccurred())
		Expect(provider.calls).To(Equal(1))
	})

	Context("with file providers", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "pv-factor-cache")
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(os.RemoveAll, dir)
		})

		writePrices := func(name, contents string) string {
			path := filepath.Join(dir, name)
			Expect(os.WriteFile(path, []byte(contents), 0o600)).To(Succeed())
			return path
		}

		It("does not share entries between different files", func() {
			low := writePrices("low.csv", "date,SPY\n2022-01-03,100\n2022-01-04,101\n")
			high := writePrices("high.csv", "date,SPY\n2022-01-03,900\n2022-01-04,901\n")

			df, err := data.NewCached(data.NewCSV(low)).GetAdjustedClose(ctx, []string{"SPY"}, time.Time{}, time.Time{})
			Expect(err).NotTo(HaveOccurred())
			Expect(df.Column("SPY")).To(Equal([]float64{100, 101}))

			df, err = data.NewCached(data.NewCSV(high)).GetAdjustedClose(ctx, []string{"SPY"}, time.Time{}, time.Time{})
			Expect(err).NotTo(HaveOccurred())
			Expect(df.Column("SPY")).To(Equal([]float64{900, 901}))
		})

		It("reloads a file after it is modified", func() {
			path := writePrices("prices.csv", "date,SPY\n2022-01-03,100\n2022-01-04,101\n")
			Expect(os.Chtimes(path, time.Now(), time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC))).To(Succeed())
			cached := data.NewCached(data.NewCSV(path))

			df, err := cached.GetAdjustedClose(ctx, []string{"SPY"}, time.Time{}, time.Time{})
			Expect(err).NotTo(HaveOccurred())
			Expect(df.Column("SPY")).To(Equal([]float64{100, 101}))

			writePrices("prices.csv", "date,SPY\n2022-01-03,200\n2022-01-04,202\n")
			Expect(os.Chtimes(path, time.Now(), time.Date(2022, 1, 6, 0, 0, 0, 0, time.UTC))).To(Succeed())

			df, err = cached.GetAdjustedClose(ctx, []string{"SPY"}, time.Time{}, time.Time{})
			Expect(err).NotTo(HaveOccurred())
			Expect(df.Column("SPY")).To(Equal([]float64{200, 202}))
		})

		It("identifies providers by their source", func() {
			low := data.NewCSV(writePrices("low.csv", "date,SPY\n2022-01-03,100\n"))
			high := data.NewCSV(writePrices("high.csv", "date,SPY\n2022-01-03,900\n"))
			Expect(low.CacheID()).NotTo(Equal(high.CacheID()))
			Expect(data.CacheKey(low, []string{"SPY"}, begin, end)).
				NotTo(Equal(data.CacheKey(high, []string{"SPY"}, begin, end)))
			Expect(data.NewTiingo("token").CacheID()).To(Equal("tiingo"))
		})
	})
})
