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
	"time"

	"github.com/penny-vault/pv-factor/dataframe"
	"github.com/penny-vault/pv-factor/observability/opentelemetry"
	"github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Parquet loads adjusted closing prices from a parquet file with the same
// wide layout as CSV: a UTF8 `date` column (YYYY-MM-DD) and one DOUBLE
// column per symbol. Null values are missing prices.
type Parquet struct {
	path string
}

func NewParquet(path string) *Parquet {
	return &Parquet{path: path}
}

func (p *Parquet) CacheID() string {
	return "parquet:" + fileCacheID(p.path)
}

// GetAdjustedClose reads the file and returns the requested symbols over
// [begin, end]
func (p *Parquet) GetAdjustedClose(ctx context.Context, symbols []string, begin, end time.Time) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "parquet.GetAdjustedClose")
	defer span.End()

	span.SetAttributes(
		attribute.String("Path", p.path),
		attribute.StringSlice("Symbols", symbols),
	)

	subLog := log.With().Str("Path", p.path).Strs("Symbols", symbols).Logger()

	if err := validateRange(begin, end); err != nil {
		return nil, err
	}

	fr, err := local.NewLocalFileReader(p.path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		subLog.Error().Err(err).Msg("could not open price file")
		return nil, err
	}
	defer fr.Close()

	raw, err := imports.LoadFromParquet(ctx, fr)
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

	subLog.Info().Int("NumLoaded", df.ColCount()).Int("NumRows", df.Len()).Msg("loaded prices from parquet")

	return df, nil
}
