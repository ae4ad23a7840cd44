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
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pv-factor/common"
	"github.com/penny-vault/pv-factor/factor"
	"github.com/penny-vault/pv-factor/profile"
)

// DefaultLookback is the history used when a request has no begin date
const DefaultLookback = 5

// Request describes a single portfolio analysis
type Request struct {
	Symbols []string         `json:"symbols" toml:"symbols"`
	Weights []float64        `json:"weights,omitempty" toml:"weights"`
	Profile profile.Category `json:"profile" toml:"profile"`
	Begin   time.Time        `json:"begin" toml:"begin"`
	End     time.Time        `json:"end" toml:"end"`
	Factors int              `json:"factors,omitempty" toml:"factors"`
}

// ParseSymbols splits a comma separated list of tickers. Tickers are trimmed
// and upper cased; empty entries are dropped.
func ParseSymbols(s string) []string {
	symbols := []string{}
	for _, part := range strings.Split(s, ",") {
		if symbol := strings.TrimSpace(part); symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	common.ArrToUpper(symbols)
	return symbols
}

// ParseWeights splits a comma separated list of weights. An empty string
// yields nil, meaning equal weights.
func ParseWeights(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	weights := []float64{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.ParseFloat(part, 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %q is not a number", ErrInvalidInput, part)
		}
		weights = append(weights, w)
	}
	return weights, nil
}

// ParseDate parses a YYYY-MM-DD date in the market timezone. An empty string
// yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	dt, err := time.ParseInLocation(common.DateFormat, s, common.GetTimezone())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be formatted as YYYY-MM-DD", ErrInvalidInput, s)
	}
	return dt, nil
}

// Validate checks the request and fills in defaults: equal weights, the
// default risk profile, today as the end date, DefaultLookback years of
// history and the configured factor count. No network access is required.
func (r *Request) Validate(cfg factor.Config) error {
	if len(r.Symbols) < factor.MinAssets {
		return fmt.Errorf("%w: at least %d tickers are required, got %d", ErrInvalidInput, factor.MinAssets, len(r.Symbols))
	}

	seen := make(map[string]bool, len(r.Symbols))
	for idx, symbol := range r.Symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			return fmt.Errorf("%w: ticker %d is empty", ErrInvalidInput, idx+1)
		}
		if seen[symbol] {
			return fmt.Errorf("%w: ticker %s is listed more than once", ErrInvalidInput, symbol)
		}
		seen[symbol] = true
		r.Symbols[idx] = symbol
	}

	if len(r.Weights) == 0 {
		r.Weights = make([]float64, len(r.Symbols))
		for idx := range r.Weights {
			r.Weights[idx] = 1 / float64(len(r.Symbols))
		}
	}

	if len(r.Weights) != len(r.Symbols) {
		return fmt.Errorf("%w: %d weights given for %d tickers", ErrInvalidInput, len(r.Weights), len(r.Symbols))
	}

	for _, w := range r.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weights must be finite", ErrInvalidInput)
		}
	}

	if r.Profile == "" {
		r.Profile = profile.Default
	}
	if !r.Profile.Valid() {
		cat, err := profile.Parse(string(r.Profile))
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		r.Profile = cat
	}

	if r.Factors == 0 {
		r.Factors = cfg.Factors
	}
	if r.Factors < 1 {
		return fmt.Errorf("%w: factor count must be at least 1, got %d", ErrInvalidInput, r.Factors)
	}

	if r.End.IsZero() {
		r.End = time.Now().In(common.GetTimezone())
	}
	if r.Begin.IsZero() {
		r.Begin = r.End.AddDate(-DefaultLookback, 0, 0)
	}
	if r.Begin.After(r.End) {
		return fmt.Errorf("%w: begin %s is after end %s", ErrInvalidInput, r.Begin.Format(common.DateFormat), r.End.Format(common.DateFormat))
	}

	return nil
}

// Holdings maps each symbol to its weight
func (r *Request) Holdings() map[string]float64 {
	holdings := make(map[string]float64, len(r.Symbols))
	for idx, symbol := range r.Symbols {
		if idx < len(r.Weights) {
			holdings[symbol] += r.Weights[idx]
		}
	}
	return holdings
}

// Input is the user facing form of a Request, with dates as YYYY-MM-DD
// strings. It is the body of the analyze endpoint and the layout of a
// portfolio file.
type Input struct {
	Symbols []string  `json:"symbols" toml:"symbols"`
	Weights []float64 `json:"weights,omitempty" toml:"weights"`
	Profile string    `json:"profile,omitempty" toml:"profile"`
	Start   string    `json:"start,omitempty" toml:"start"`
	End     string    `json:"end,omitempty" toml:"end"`
	Factors int       `json:"factors,omitempty" toml:"factors"`
}

// Request converts the input into a Request. Only the dates are checked
// here; everything else is left to Validate.
func (in Input) Request() (Request, error) {
	begin, err := ParseDate(in.Start)
	if err != nil {
		return Request{}, err
	}
	end, err := ParseDate(in.End)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Symbols: append([]string{}, in.Symbols...),
		Weights: append([]float64{}, in.Weights...),
		Profile: profile.Category(in.Profile),
		Begin:   begin,
		End:     end,
		Factors: in.Factors,
	}, nil
}
