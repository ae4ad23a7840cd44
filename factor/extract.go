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

package factor

import (
	"context"
	"fmt"
	"math"

	"github.com/penny-vault/pv-factor/dataframe"
	"github.com/penny-vault/pv-factor/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MarketColumn is the name of the equal weighted benchmark return column
const MarketColumn = "Market"

// EigenPortfolio is a principal component of the asset covariance matrix
// expressed as a portfolio. Weights are aligned with Decomposition.Assets and
// sum to 1 unless the factor is degenerate, in which case they have unit
// Euclidean norm and are oriented so the largest magnitude weight is positive.
type EigenPortfolio struct {
	Name              string    `json:"name"`
	Number            int       `json:"number"`
	Weights           []float64 `json:"weights"`
	Eigenvalue        float64   `json:"eigenvalue"`
	ExplainedVariance float64   `json:"explainedVariance"`
	Degenerate        bool      `json:"degenerate"`
	Err               error     `json:"-"`
}

// Decomposition is the output of the factor extractor
type Decomposition struct {
	Assets        []string             `json:"assets"`
	Factors       []*EigenPortfolio    `json:"factors"`
	Covariance    *mat.SymDense        `json:"-"`
	Returns       *dataframe.DataFrame `json:"-"`
	FactorReturns *dataframe.DataFrame `json:"factorReturns"`
	MarketReturns *dataframe.DataFrame `json:"marketReturns"`
}

// FactorName returns the display name of the 1-based factor number
func FactorName(number int) string {
	return fmt.Sprintf("Factor %d", number)
}

// Extract normalizes the returns, computes their covariance matrix and
// derives up to cfg.Factors eigen-portfolios ranked by explained variance.
// Factor returns are computed from the original (not normalized) returns.
func Extract(ctx context.Context, returns *dataframe.DataFrame, cfg Config) (*Decomposition, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "factor.Extract")
	defer span.End()

	span.SetAttributes(
		attribute.Int("NumAssets", returns.ColCount()),
		attribute.Int("NumRows", returns.Len()),
		attribute.Int("RequestedFactors", cfg.Factors),
	)

	subLog := log.With().Int("NumAssets", returns.ColCount()).Int("NumRows", returns.Len()).Int("RequestedFactors", cfg.Factors).Logger()

	if err := cfg.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid config")
		return nil, err
	}

	if returns.ColCount() < MinAssets || returns.Len() == 0 {
		err := fmt.Errorf("%w: %d assets and %d observations", ErrInsufficientData, returns.ColCount(), returns.Len())
		span.RecordError(err)
		span.SetStatus(codes.Error, "insufficient data")
		return nil, err
	}

	normalized, err := Normalize(returns, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "normalize failed")
		subLog.Warn().Err(err).Msg("could not normalize returns")
		return nil, err
	}

	cov, err := covariance(normalized)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "covariance failed")
		subLog.Warn().Err(err).Msg("could not compute covariance matrix")
		return nil, err
	}

	components, err := principalComponents(cov)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "eigen decomposition failed")
		subLog.Error().Err(err).Msg("eigen decomposition failed")
		return nil, err
	}

	ratios, err := explainedVarianceRatio(components)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "explained variance failed")
		return nil, err
	}

	k := cfg.Factors
	if k > len(components) {
		k = len(components)
	}

	decomp := &Decomposition{
		Assets:     append([]string{}, returns.ColNames...),
		Factors:    make([]*EigenPortfolio, k),
		Covariance: cov,
		Returns:    returns,
	}

	for idx := 0; idx < k; idx++ {
		ep := &EigenPortfolio{
			Name:              FactorName(idx + 1),
			Number:            idx + 1,
			Eigenvalue:        components[idx].eigenvalue,
			ExplainedVariance: ratios[idx],
		}
		ep.Weights, ep.Degenerate = sumToOne(components[idx].vector, cfg.DegenerateTolerance)
		if ep.Degenerate {
			ep.Err = fmt.Errorf("%w: %s", ErrDegenerateFactor, ep.Name)
			subLog.Warn().Str("Factor", ep.Name).Float64("ExplainedVariance", ep.ExplainedVariance).Msg("degenerate factor: weights sum to zero, keeping unit norm weights")
		}
		decomp.Factors[idx] = ep
	}

	decomp.FactorReturns = factorReturns(returns, decomp.Factors)
	decomp.MarketReturns = returns.RowMean(MarketColumn)

	subLog.Info().Int("NumFactors", k).Floats64("ExplainedVariance", decomp.ExplainedVariance()).Msg("extracted eigen portfolios")

	return decomp, nil
}

// sumToOne rescales the component so its weights sum to 1. When the sum is
// ~0 relative to the L1 norm the component is returned with unit Euclidean
// norm and oriented so its largest magnitude weight is positive.
func sumToOne(vector []float64, tolerance float64) ([]float64, bool) {
	weights := make([]float64, len(vector))
	copy(weights, vector)

	sum := floats.Sum(weights)
	if math.Abs(sum) > tolerance*floats.Norm(weights, 1) {
		floats.Scale(1/sum, weights)
		return weights, false
	}

	norm := floats.Norm(weights, 2)
	if norm > 0 {
		floats.Scale(1/norm, weights)
	}

	largest := 0
	for idx, w := range weights {
		if math.Abs(w) > math.Abs(weights[largest]) {
			largest = idx
		}
	}
	if len(weights) > 0 && weights[largest] < 0 {
		floats.Scale(-1, weights)
	}

	return weights, true
}

// factorReturns applies each factor's weights to the return rows. Missing
// returns contribute nothing to the day's factor return.
func factorReturns(returns *dataframe.DataFrame, factors []*EigenPortfolio) *dataframe.DataFrame {
	res := &dataframe.DataFrame{
		Dates:    returns.Dates,
		ColNames: make([]string, 0, len(factors)),
		Vals:     make([][]float64, 0, len(factors)),
	}

	for _, ep := range factors {
		col := make([]float64, returns.Len())
		for rowIdx := range col {
			sum := 0.0
			for assetIdx, assetCol := range returns.Vals {
				if r := assetCol[rowIdx]; !math.IsNaN(r) {
					sum += r * ep.Weights[assetIdx]
				}
			}
			col[rowIdx] = sum
		}
		res.ColNames = append(res.ColNames, ep.Name)
		res.Vals = append(res.Vals, col)
	}

	return res
}

// ExplainedVariance returns the explained variance ratio of each factor in rank order
func (d *Decomposition) ExplainedVariance() []float64 {
	res := make([]float64, len(d.Factors))
	for idx, ep := range d.Factors {
		res[idx] = ep.ExplainedVariance
	}
	return res
}

// FactorNames returns the names of the factors in rank order
func (d *Decomposition) FactorNames() []string {
	res := make([]string, len(d.Factors))
	for idx, ep := range d.Factors {
		res[idx] = ep.Name
	}
	return res
}

// AssetIndex returns the position of symbol in the asset universe or -1
func (d *Decomposition) AssetIndex(symbol string) int {
	for idx, asset := range d.Assets {
		if asset == symbol {
			return idx
		}
	}
	return -1
}

// CumulativeReturns compounds the market and factor return series into a
// single dataframe with the market first, ready for charting
func (d *Decomposition) CumulativeReturns() *dataframe.DataFrame {
	merged := &dataframe.DataFrame{
		Dates:    d.MarketReturns.Dates,
		ColNames: append(append([]string{}, d.MarketReturns.ColNames...), d.FactorReturns.ColNames...),
		Vals:     append(append([][]float64{}, d.MarketReturns.Vals...), d.FactorReturns.Vals...),
	}
	return merged.CumulativeReturn()
}
