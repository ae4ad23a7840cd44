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

package data

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/penny-vault/pv-factor/common"
	"github.com/penny-vault/pv-factor/dataframe"
	"github.com/penny-vault/pv-factor/observability/opentelemetry"
	rdf "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CSV loads adjusted closing prices from a wide CSV file: a `date` column
// (YYYY-MM-DD) followed by one column of prices per symbol. Empty cells are
// treated as missing prices.
type CSV struct {
	path string
}

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) CacheID() string {
	return "csv:" + fileCacheID(c.path)
}

type csvRow struct {
	date time.Time
	vals []float64
}

// GetAdjustedClose reads the file and returns the requested symbols over
// [begin, end]. A zero begin or end leaves that side of the range open.
func (c *CSV) GetAdjustedClose(ctx context.Context, symbols []string, begin, end time.Time) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "csv.GetAdjustedClose")
	defer span.End()

	span.SetAttributes(
		attribute.String("Path", c.path),
		attribute.StringSlice("Symbols", symbols),
	)

	subLog := log.With().Str("Path", c.path).Strs("Symbols", symbols).Logger()

	if err := validateRange(begin, end); err != nil {
		return nil, err
	}

	fh, err := os.Open(c.path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		subLog.Error().Err(err).Msg("could not open price file")
		return nil, err
	}
	defer fh.Close()

	raw, err := imports.LoadFromCSV(ctx, fh, imports.CSVLoadOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		subLog.Error().Err(err).Msg("could not parse price file")
		return nil, err
	}

	df, err := fromRaw(raw, symbols)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "convert failed")
		return nil, err
	}

	df, err = trimToRange(df, begin, end)
	if err != nil {
		return nil, err
	}

	subLog.Info().Int("NumLoaded", df.ColCount()).Int("NumRows", df.Len()).Msg("loaded prices from csv")

	return df, nil
}

// trimToRange restricts a file backed price table to [begin, end]. A zero
// begin or end leaves that side of the range open.
func trimToRange(df *dataframe.DataFrame, begin, end time.Time) (*dataframe.DataFrame, error) {
	if !begin.IsZero() || !end.IsZero() {
		lo, hi := begin, end
		if hi.IsZero() {
			hi = df.End()
		}
		// dates in the file are stamped at market close
		df = df.Trim(lo, hi.Add(24*time.Hour-time.Nanosecond))
	}

	if df.ColCount() == 0 || df.Len() == 0 {
		return nil, ErrNoData
	}

	return df, nil
}

// fromRaw converts a table parsed by dataframe-go into a dataframe holding only the
// requested symbols, ordered as requested
func fromRaw(raw *rdf.DataFrame, symbols []string) (*dataframe.DataFrame, error) {
	dateIdx := -1
	columns := make(map[string]int, len(raw.Series))
	for idx, series := range raw.Series {
		name := strings.TrimSpace(series.Name())
		if strings.EqualFold(name, "date") || strings.EqualFold(name, common.DateIdx) {
			dateIdx = idx
			continue
		}
		columns[strings.ToUpper(name)] = idx
	}

	if dateIdx == -1 {
		return nil, ErrMissingDateIndex
	}

	selected := make([]string, 0, len(symbols))
	seriesIdx := make([]int, 0, len(symbols))
	for _, symbol := range symbols {
		symbol = strings.ToUpper(symbol)
		if idx, ok := columns[symbol]; ok {
			selected = append(selected, symbol)
			seriesIdx = append(seriesIdx, idx)
		}
	}

	tz := common.GetTimezone()
	nRows := raw.NRows()
	rows := make([]csvRow, 0, nRows)
	for rowIdx := 0; rowIdx < nRows; rowIdx++ {
		dt, err := time.ParseInLocation(common.DateFormat, strings.TrimSpace(cellString(raw.Series[dateIdx].Value(rowIdx))), tz)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowIdx+1, err)
		}

		row := csvRow{date: dt.Add(16 * time.Hour), vals: make([]float64, len(seriesIdx))}
		for colIdx, idx := range seriesIdx {
			row.vals[colIdx] = cellFloat(raw.Series[idx].Value(rowIdx))
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	df := dataframe.New(selected...)
	for _, row := range rows {
		if err := df.InsertRow(row.date, row.vals...); err != nil {
			return nil, err
		}
	}

	return df, nil
}

func cellString(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
	case nil:
	default:
		return fmt.Sprint(v)
	}
	return ""
}

func cellFloat(val interface{}) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}

	s := strings.TrimSpace(cellString(val))
	if s == "" {
		return math.NaN()
	}

	f, err := cast.ToFloat64E(s)
	if err != nil {
		return math.NaN()
	}
	return f
}
