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
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-factor/common"
	"github.com/penny-vault/pv-factor/dataframe"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

// Cached wraps a provider and stores each response in the common cache
// (in-process LRU with an optional redis tier). Identical requests are
// served from the cache without contacting the provider.
type Cached struct {
	provider Provider
}

func NewCached(provider Provider) *Cached {
	return &Cached{provider: provider}
}

// Identifier is implemented by providers whose responses depend on more than
// their type, such as the file they read from.
type Identifier interface {
	CacheID() string
}

// CacheKey derives the cache key for a request. Symbol order is significant
// because it determines column order. Prices are daily so begin and end only
// contribute their market-timezone date.
func CacheKey(provider Provider, symbols []string, begin, end time.Time) string {
	id := fmt.Sprintf("%T", provider)
	if ident, ok := provider.(Identifier); ok {
		id = ident.CacheID()
	}

	h := blake3.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", id, strings.Join(symbols, ","), cacheDate(begin), cacheDate(end))
	return "prices:" + hex.EncodeToString(h.Sum(nil))
}

func cacheDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(common.GetTimezone()).Format(common.DateFormat)
}

// fileCacheID identifies a file backed provider by absolute path and
// modification time, so edits to the file invalidate cached responses.
func fileCacheID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		return abs
	}
	return fmt.Sprintf("%s@%d", abs, info.ModTime().UnixNano())
}

func (c *Cached) GetAdjustedClose(ctx context.Context, symbols []string, begin, end time.Time) (*dataframe.DataFrame, error) {
	key := CacheKey(c.provider, symbols, begin, end)
	subLog := log.With().Str("Key", key).Strs("Symbols", symbols).Logger()

	data, err := common.CacheGet(ctx, key)
	switch {
	case err == nil:
		df := &dataframe.DataFrame{}
		decodeErr := json.Unmarshal(data, df)
		if decodeErr == nil {
			subLog.Debug().Msg("price cache hit")
			return df, nil
		}
		subLog.Warn().Err(decodeErr).Msg("could not decode cached prices")
	case errors.Is(err, common.ErrCacheMiss):
	default:
		subLog.Warn().Err(err).Msg("price cache lookup failed")
	}

	df, err := c.provider.GetAdjustedClose(ctx, symbols, begin, end)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(df); err != nil {
		subLog.Warn().Err(err).Msg("could not encode prices for cache")
	} else if err := common.CacheSet(ctx, key, data); err != nil {
		subLog.Warn().Err(err).Msg("could not store prices in cache")
	}

	return df, nil
}
