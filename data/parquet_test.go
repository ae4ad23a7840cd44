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
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-factor/common"
	"github.com/penny-vault/pv-factor/data"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"
)

type priceRecord struct {
	Date string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	SPY  float64 `parquet:"name=spy, type=DOUBLE"`
	TLT  float64 `parquet:"name=tlt, type=DOUBLE"`
}

func writeParquet(path string, records []priceRecord) {
	fw, err := local.NewLocalFileWriter(path)
	Expect(err).NotTo(HaveOccurred())

	pw, err := writer.NewParquetWriter(fw, new(priceRecord), 1)
	Expect(err).NotTo(HaveOccurred())
	for _, rec := range records {
		Expect(pw.Write(rec)).To(Succeed())
	}
	Expect(pw.WriteStop()).To(Succeed())
	Expect(fw.Close()).To(Succeed())
}

var _ = Describe("Parquet", func() {
	var (
		path string
	)

	BeforeEach(func() {
		dir, err := os.MkdirTemp("", "pvfactor")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
		path = filepath.Join(dir, "prices.parquet")
		writeParquet(path, []priceRecord{
			{Date: "2022-01-04", SPY: 477.55, TLT: 144.05},
			{Date: "2022-01-03", SPY: 477.71, TLT: 144.50},
			{Date: "2022-01-05", SPY: 468.38, TLT: 143.35},
		})
	})

	It("loads the requested symbols sorted by date", func() {
		df, err := data.NewParquet(path).GetAdjustedClose(context.Background(), []string{"SPY", "TLT", "NOPE"}, time.Time{}, time.Time{})
		Expect(err).NotTo(HaveOccurred())
		Expect(df.ColNames).To(Equal([]string{"SPY", "TLT"}))
		Expect(df.Len()).To(Equal(3))
		Expect(df.Dates[0].In(common.GetTimezone()).Format(common.DateFormat)).To(Equal("2022-01-03"))
		Expect(df.Vals[0][0]).To(BeNumerically("~", 477.71, 1e-9))
	})

	It("restricts the date range", func() {
		tz := common.GetTimezone()
		df, err := data.NewParquet(path).GetAdjustedClose(context.Background(), []string{"SPY"},
			time.Date(2022, 1, 4, 0, 0, 0, 0, tz), time.Date(2022, 1, 4, 0, 0, 0, 0, tz))
		Expect(err).NotTo(HaveOccurred())
		Expect(df.Len()).To(Equal(1))
		Expect(df.Vals[0][0]).To(BeNumerically("~", 477.55, 1e-9))
	})

	It("fails on a missing file", func() {
		_, err := data.NewParquet(filepath.Join(filepath.Dir(path), "nope.parquet")).GetAdjustedClose(context.Background(), []string{"SPY"}, time.Time{}, time.Time{})
		Expect(err).To(HaveOccurred())
	})
})
