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
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-factor/common"
	"github.com/penny-vault/pv-factor/dataframe"
	"github.com/penny-vault/pv-factor/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Tiingo struct {
	apikey string
	client *http.Client
}

type tiingoJSONResponse struct {
	Date        string  `json:"date"`
	Close       float64 `json:"close"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Open        float64 `json:"open"`
	Volume      int64   `json:"volume"`
	AdjClose    float64 `json:"adjClose"`
	AdjHigh     float64 `json:"adjHigh"`
	AdjLow      float64 `json:"adjLow"`
	AdjOpen     float64 `json:"adjOpen"`
	AdjVolume   int64   `json:"adjVolume"`
	DivCash     float64 `json:"divCash"`
	SplitFactor float64 `json:"splitFactor"`
}

var tiingoAPI = "https://api.tiingo.com"

// NewTiingo creates a new Tiingo data provider
func NewTiingo(key string) *Tiingo {
	return &Tiingo{
		apikey: key,
		client: http.DefaultClient,
	}
}

func (t *Tiingo) CacheID() string {
	return "tiingo"
}

// GetAdjustedClose downloads daily adjusted closing prices for each symbol.
// Symbols are fetched one at a time; a symbol that fails to download is
// logged and left out of the result. ErrNoData is returned only when no
// symbol could be loaded.
func (t *Tiingo) GetAdjustedClose(ctx context.Context, symbols []string, begin, end time.Time) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "tiingo.GetAdjustedClose")
	defer span.End()

	span.SetAttributes(
		attribute.StringSlice("Symbols", symbols),
		attribute.String("Begin", begin.Format(common.DateFormat)),
		attribute.String("End", end.Format(common.DateFormat)),
	)

	subLog := log.With().Strs("Symbols", symbols).Time("Begin", begin).Time("End", end).Logger()

	if err := validateRange(begin, end); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid range")
		return nil, err
	}

	res := make([]*dataframe.DataFrame, 0, len(symbols))
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		df, err := t.loadSymbol(ctx, strings.ToUpper(symbol), begin, end)
		if err != nil {
			subLog.Warn().Err(err).Str("Symbol", symbol).Msg("cannot download symbol data")
			continue
		}
		res = append(res, df)
	}

	if len(res) == 0 {
		span.SetStatus(codes.Error, "no data")
		return nil, ErrNoData
	}

	merged := dataframe.Merge(res...)
	subLog.Info().Int("NumLoaded", merged.ColCount()).Int("NumRows", merged.Len()).Msg("loaded prices from tiingo")

	return merged, nil
}

func (t *Tiingo) loadSymbol(ctx context.Context, symbol string, begin, end time.Time) (*dataframe.DataFrame, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "tiingo.loadSymbol")
	defer span.End()

	subLog := log.With().Str("Symbol", symbol).Logger()

	query := url.Values{}
	if !begin.IsZero() {
		query.Set("startDate", begin.Format(common.DateFormat))
	}
	if !end.IsZero() {
		query.Set("endDate", end.Format(common.DateFormat))
	}

	endpoint := fmt.Sprintf("%s/tiingo/daily/%s/prices", tiingoAPI, url.PathEscape(symbol))
	span.SetAttributes(
		attribute.String("Url", endpoint+"?"+query.Encode()),
		attribute.String("Symbol", symbol),
	)

	query.Set("token", t.apikey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		span.RecordError(err)
		msg := "tiingo http request failed"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		msg := "could not read tiingo body"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Msg(msg)
		return nil, err
	}

	if resp.StatusCode >= 400 {
		span.SetAttributes(attribute.Int("StatusCode", resp.StatusCode))
		msg := "tiingo returned invalid response code"
		span.SetStatus(codes.Error, msg)
		subLog.Warn().Int("HTTPResponseStatusCode", resp.StatusCode).Bytes("Body", body).Msg(msg)
		return nil, fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)
	}

	jsonResp := []tiingoJSONResponse{}
	if err := json.Unmarshal(body, &jsonResp); err != nil {
		span.RecordError(err)
		msg := "could not unmarshal json"
		span.SetStatus(codes.Error, msg)
		subLog.Error().Err(err).Bytes("Body", body).Msg(msg)
		return nil, err
	}

	if len(jsonResp) == 0 {
		return nil, ErrNoData
	}

	tz := common.GetTimezone()
	df := dataframe.New(symbol)
	for _, quote := range jsonResp {
		dt, err := parseTiingoDate(quote.Date, tz)
		if err != nil {
			span.RecordError(err)
			subLog.Error().Err(err).Str("DateStr", quote.Date).Msg("cannot parse date string")
			return nil, err
		}
		if err := df.InsertRow(dt, quote.AdjClose); err != nil {
			return nil, err
		}
	}

	return df, nil
}

// parseTiingoDate converts a tiingo timestamp (2021-01-04T00:00:00.000Z) to
// market close on that day in New York
func parseTiingoDate(s string, tz *time.Location) (time.Time, error) {
	dtParts := strings.Split(s, "T")
	dt, err := time.ParseInLocation(common.DateFormat, dtParts[0], tz)
	if err != nil {
		return time.Time{}, err
	}
	return dt.Add(time.Hour * 16), nil
}
