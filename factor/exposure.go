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
	"sort"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-factor/common"
	"github.com/penny-vault/pv-factor/observability/opentelemetry"
	"github.com/penny-vault/pv-factor/profile"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/floats"
)

// zeroWeightSum is the magnitude below which portfolio weights are not
// renormalized
const zeroWeightSum = 1e-8

// Classification describes how a factor's exposure compares to its target
type Classification string

const (
	Over    Classification = "Over"
	Under   Classification = "Under"
	Neutral Classification = "Neutral"
)

// boundaryTolerance absorbs floating point round-off when a gap lands on the
// classification threshold
const boundaryTolerance = 1e-9

// Classify returns Over if gap > threshold, Under if gap < -threshold and
// Neutral otherwise. A gap of exactly +/-threshold (within round-off) is
// Neutral.
func Classify(gap, threshold float64) Classification {
	switch {
	case gap > threshold+boundaryTolerance:
		return Over
	case gap < -threshold-boundaryTolerance:
		return Under
	default:
		return Neutral
	}
}

// FactorExposure is the diagnostic for one factor
type FactorExposure struct {
	Factor         string         `json:"factor"`
	Number         int            `json:"number"`
	Exposure       float64        `json:"exposure"`
	Normalized     float64        `json:"normalized"`
	Target         float64        `json:"target"`
	Gap            float64        `json:"gap"`
	Classification Classification `json:"classification"`
	Momentum       float64        `json:"momentum"`
	Degenerate     bool           `json:"degenerate"`
}

// MarshalJSON encodes a missing (NaN) momentum as null
func (fe *FactorExposure) MarshalJSON() ([]byte, error) {
	type plain FactorExposure
	out := struct {
		*plain
		Momentum *float64 `json:"momentum"`
	}{plain: (*plain)(fe)}

	if !math.IsNaN(fe.Momentum) && !math.IsInf(fe.Momentum, 0) {
		momentum := fe.Momentum
		out.Momentum = &momentum
	}
	return json.Marshal(out)
}

// Analysis is the output of the exposure analyzer
type Analysis struct {
	Profile        profile.Category   `json:"profile"`
	Weights        map[string]float64 `json:"weights"`
	Factors        []*FactorExposure  `json:"factors"`
	OverFactors    []int              `json:"overFactors"`
	UnderFactors   []int              `json:"underFactors"`
	TrimCandidates map[int][]string   `json:"trimCandidates"`
	AddCandidates  map[int][]string   `json:"addCandidates"`
	GapThreshold   float64            `json:"gapThreshold"`
}

// AlignWeights re-indexes holdings onto the asset universe. Symbols that are
// not held get weight 0 and holdings outside the universe are ignored. The
// result is rescaled to sum to 1 unless the sum is ~0.
func AlignWeights(assets []string, holdings map[string]float64) []float64 {
	weights := make([]float64, len(assets))
	for idx, asset := range assets {
		weights[idx] = holdings[asset]
	}

	if sum := floats.Sum(weights); math.Abs(sum) > zeroWeightSum {
		floats.Scale(1/sum, weights)
	}

	return weights
}

// NormalizeExposures rescales the absolute exposures to sum to 1. If every
// exposure is 0 the absolute values are returned unscaled.
func NormalizeExposures(exposures []float64) []float64 {
	normalized := make([]float64, len(exposures))
	for idx, e := range exposures {
		normalized[idx] = math.Abs(e)
	}

	if sum := floats.Sum(normalized); sum > 0 {
		floats.Scale(1/sum, normalized)
	}

	return normalized
}

// Analyze projects the portfolio onto the eigen-portfolios, compares the
// normalized exposure with the target of the risk category and proposes
// trim and add candidates for over and under exposed factors.
//
// Trim candidates are drawn only from assets currently held (weight > 0)
// while add candidates are drawn from the entire universe.
func Analyze(ctx context.Context, decomp *Decomposition, holdings map[string]float64, category profile.Category, cfg Config) (*Analysis, error) {
	_, span := otel.Tracer(opentelemetry.Name).Start(ctx, "factor.Analyze")
	defer span.End()

	span.SetAttributes(
		attribute.String("Profile", string(category)),
		attribute.Int("NumFactors", len(decomp.Factors)),
	)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(decomp.Factors) == 0 {
		return nil, fmt.Errorf("%w: decomposition has no factors", ErrInsufficientData)
	}

	subLog := log.With().Str("Profile", string(category)).Int("NumFactors", len(decomp.Factors)).Logger()

	if !category.Valid() {
		subLog.Warn().Str("Default", string(profile.Default)).Msg("unknown risk category, using default")
	}
	category = category.Resolve()

	weights := AlignWeights(decomp.Assets, holdings)

	exposures := make([]float64, len(decomp.Factors))
	for idx, ep := range decomp.Factors {
		exposures[idx] = floats.Dot(ep.Weights, weights)
	}

	normalized := NormalizeExposures(exposures)
	targets := category.Targets(len(decomp.Factors))
	momentum := Momentum(decomp.FactorReturns, cfg.MomentumWindow)

	analysis := &Analysis{
		Profile:        category,
		Weights:        make(map[string]float64, len(decomp.Assets)),
		Factors:        make([]*FactorExposure, len(decomp.Factors)),
		OverFactors:    []int{},
		UnderFactors:   []int{},
		TrimCandidates: make(map[int][]string),
		AddCandidates:  make(map[int][]string),
		GapThreshold:   cfg.GapThreshold,
	}

	for idx, asset := range decomp.Assets {
		analysis.Weights[asset] = weights[idx]
	}

	for idx, ep := range decomp.Factors {
		gap := normalized[idx] - targets[idx]
		fe := &FactorExposure{
			Factor:         ep.Name,
			Number:         ep.Number,
			Exposure:       exposures[idx],
			Normalized:     normalized[idx],
			Target:         targets[idx],
			Gap:            gap,
			Classification: Classify(gap, cfg.GapThreshold),
			Momentum:       momentum[idx],
			Degenerate:     ep.Degenerate,
		}
		analysis.Factors[idx] = fe

		switch fe.Classification {
		case Over:
			analysis.OverFactors = append(analysis.OverFactors, ep.Number)
			analysis.TrimCandidates[ep.Number] = rankAssets(decomp.Assets, ep.Weights, weights, true, cfg.MaxCandidates)
		case Under:
			analysis.UnderFactors = append(analysis.UnderFactors, ep.Number)
			analysis.AddCandidates[ep.Number] = rankAssets(decomp.Assets, ep.Weights, weights, false, cfg.MaxCandidates)
		}
	}

	subLog.Info().Ints("OverFactors", analysis.OverFactors).Ints("UnderFactors", analysis.UnderFactors).Msg("analyzed portfolio exposure")

	return analysis, nil
}

// rankAssets orders assets by descending factor weight and returns at most
// limit symbols. If heldOnly is set only assets with a positive portfolio
// weight are considered. Ties keep universe order.
func rankAssets(assets []string, factorWeights, portfolioWeights []float64, heldOnly bool, limit int) []string {
	pairs := make(common.PairList, 0, len(assets))
	for idx, asset := range assets {
		if heldOnly && !(portfolioWeights[idx] > 0) {
			continue
		}
		pairs = append(pairs, common.Pair{Key: asset, Value: factorWeights[idx]})
	}

	sort.Stable(sort.Reverse(pairs))

	if len(pairs) > limit {
		pairs = pairs[:limit]
	}

	return pairs.Keys()
}

// Factor returns the exposure of the 1-based factor number or nil
func (a *Analysis) Factor(number int) *FactorExposure {
	for _, fe := range a.Factors {
		if fe.Number == number {
			return fe
		}
	}
	return nil
}

// Dominant returns the factor with the largest normalized exposure. Ties go
// to the lower factor number.
func (a *Analysis) Dominant() *FactorExposure {
	var dominant *FactorExposure
	for _, fe := range a.Factors {
		if dominant == nil || fe.Normalized > dominant.Normalized {
			dominant = fe
		}
	}
	return dominant
}

// MomentumRanking returns factor names ordered by descending momentum.
// Factors without momentum (NaN) are ranked last.
func (a *Analysis) MomentumRanking() common.PairList {
	pairs := make(common.PairList, len(a.Factors))
	for idx, fe := range a.Factors {
		pairs[idx] = common.Pair{Key: fe.Factor, Value: fe.Momentum}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if math.IsNaN(pairs[j].Value) {
			return !math.IsNaN(pairs[i].Value)
		}
		return pairs[i].Value > pairs[j].Value
	})
	return pairs
}

// Balanced reports whether no factor is over or under exposed
func (a *Analysis) Balanced() bool {
	return len(a.OverFactors) == 0 && len(a.UnderFactors) == 0
}
