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

package advisor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pv-factor/data"
	"github.com/penny-vault/pv-factor/dataframe"
	"github.com/penny-vault/pv-factor/factor"
	"github.com/penny-vault/pv-factor/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Result is the outcome of a single analysis
type Result struct {
	ID            uuid.UUID             `json:"id"`
	CreatedAt     time.Time             `json:"createdAt"`
	Request       Request               `json:"request"`
	Missing       []string              `json:"missing"`
	Decomposition *factor.Decomposition `json:"decomposition"`
	Analysis      *factor.Analysis      `json:"analysis"`
}

// Advisor runs portfolio analyses against a price provider and retains the
// most recent result. Analyses are serialized.
type Advisor struct {
	provider data.Provider
	cfg      factor.Config

	mu   sync.Mutex
	last *Result
}

func New(provider data.Provider, cfg factor.Config) *Advisor {
	return &Advisor{
		provider: provider,
		cfg:      cfg,
	}
}

// Run validates the request, downloads prices and runs the factor engine.
// Input errors are returned before the provider is contacted. Errors wrapping
// factor.ErrInsufficientData or ErrInvalidInput are returned as is; any other
// failure, including a panic inside the engine, is returned as ErrComputation.
func (a *Advisor) Run(ctx context.Context, req Request) (res *Result, err error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "advisor.Run")
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("Panic", r).Bytes("Stack", debug.Stack()).Msg("recovered from panic during analysis")
			span.SetStatus(codes.Error, "panic")
			res = nil
			err = fmt.Errorf("%w: %v", ErrComputation, r)
		}
	}()

	req.Symbols = append([]string{}, req.Symbols...)
	req.Weights = append([]float64(nil), req.Weights...)
	if err := req.Validate(a.cfg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		log.Warn().Err(err).Msg("rejected analysis request")
		return nil, err
	}

	result := &Result{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		Request:   req,
	}

	span.SetAttributes(
		attribute.String("RunID", result.ID.String()),
		attribute.StringSlice("Symbols", req.Symbols),
		attribute.String("Profile", string(req.Profile)),
	)

	subLog := log.With().Str("RunID", result.ID.String()).Strs("Symbols", req.Symbols).Str("Profile", string(req.Profile)).Logger()
	subLog.Info().Time("Begin", req.Begin).Time("End", req.End).Int("Factors", req.Factors).Msg("starting analysis")

	prices, err := a.provider.GetAdjustedClose(ctx, req.Symbols, req.Begin, req.End)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "price download failed")
		if errors.Is(err, data.ErrNoData) {
			return nil, fmt.Errorf("%w: %s", factor.ErrInsufficientData, err)
		}
		subLog.Error().Err(err).Msg("could not load prices")
		return nil, fmt.Errorf("%w: could not load prices: %s", ErrComputation, err)
	}

	if err := a.compute(ctx, result, prices); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		switch {
		case errors.Is(err, factor.ErrInsufficientData), errors.Is(err, ErrInvalidInput):
			subLog.Warn().Err(err).Msg("analysis not possible")
			return nil, err
		default:
			subLog.Error().Err(err).Msg("analysis failed")
			if errors.Is(err, ErrComputation) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", ErrComputation, err)
		}
	}

	a.last = result
	subLog.Info().Ints("OverFactors", result.Analysis.OverFactors).Ints("UnderFactors", result.Analysis.UnderFactors).Msg("analysis complete")

	return result, nil
}

// compute runs the engine over prices and fills in result
func (a *Advisor) compute(ctx context.Context, result *Result, prices *dataframe.DataFrame) error {
	req := result.Request
	cfg := a.cfg
	cfg.Factors = req.Factors

	returns, err := factor.PrepareReturns(prices)
	if err != nil {
		return err
	}

	result.Missing = data.Missing(req.Symbols, returns)
	if len(result.Missing) > 0 {
		log.Warn().Str("RunID", result.ID.String()).Strs("Missing", result.Missing).Msg("symbols excluded from analysis due to insufficient data")
	}

	result.Decomposition, err = factor.Extract(ctx, returns, cfg)
	if err != nil {
		return err
	}

	result.Analysis, err = factor.Analyze(ctx, result.Decomposition, req.Holdings(), req.Profile, cfg)
	return err
}

// Last returns the most recent successful result or nil
func (a *Advisor) Last() *Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}
