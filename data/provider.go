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
	"strings"
	"time"

	"github.com/penny-vault/pv-factor/dataframe"
	"github.com/spf13/viper"
)

const (
	ProviderTiingo  = "tiingo"
	ProviderCSV     = "csv"
	ProviderParquet = "parquet"
)

// Provider loads adjusted closing prices. The returned dataframe has one
// column per symbol that could be loaded; symbols the provider has no data
// for are omitted rather than failing the request.
type Provider interface {
	GetAdjustedClose(ctx context.Context, symbols []string, begin, end time.Time) (*dataframe.DataFrame, error)
}

// NewProvider constructs the named provider. `tiingo` reads its token from
// the `tiingo.token` key; `csv` and `parquet` load the file at path. Every
// provider is wrapped with the price cache unless `cache.disabled` is set.
func NewProvider(name, path string) (Provider, error) {
	var provider Provider
	switch strings.ToLower(name) {
	case ProviderTiingo, "":
		token := viper.GetString("tiingo.token")
		if token == "" {
			return nil, ErrMissingToken
		}
		provider = NewTiingo(token)
	case ProviderCSV:
		provider = NewCSV(path)
	case ProviderParquet:
		provider = NewParquet(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}

	if viper.GetBool("cache.disabled") {
		return provider, nil
	}

	return NewCached(provider), nil
}

// Missing returns the requested symbols that are not columns of prices
func Missing(symbols []string, prices *dataframe.DataFrame) []string {
	missing := []string{}
	for _, symbol := range symbols {
		if prices == nil || prices.ColIndex(symbol) == -1 {
			missing = append(missing, symbol)
		}
	}
	return missing
}

func validateRange(begin, end time.Time) error {
	if !begin.IsZero() && !end.IsZero() && begin.After(end) {
		return fmt.Errorf("%w: %s > %s", ErrBeginAfterEnd, begin.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return nil
}
