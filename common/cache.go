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

package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrCacheMiss = errors.New("key not in cache")
)

const defaultLocalCacheSize = 128

var (
	rdb        *redis.Client
	cache      *lru.Cache
	cacheMutex sync.Mutex
)

// SetupCache creates the in-process LRU cache and, when `cache.redis` is set,
// a redis client used as a second tier.
func SetupCache() error {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	if viper.GetBool("cache.redis") {
		opt, err := redis.ParseURL(viper.GetString("cache.redis_url"))
		if err != nil {
			log.Error().Err(err).Msg("could not parse redis URL")
			return fmt.Errorf("parse redis url: %w", err)
		}

		rdb = redis.NewClient(opt)
	} else {
		rdb = nil
	}

	size := viper.GetInt("cache.local_size")
	if size <= 0 {
		size = defaultLocalCacheSize
	}

	var err error
	cache, err = lru.New(size)
	if err != nil {
		log.Error().Err(err).Int("Size", size).Msg("could not create LRU cache")
		return err
	}

	return nil
}

func localCache() *lru.Cache {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	if cache == nil {
		cache, _ = lru.New(defaultLocalCacheSize)
	}

	return cache
}

func cacheTTL() time.Duration {
	return time.Duration(viper.GetInt("cache.ttl")) * time.Second
}

// CacheSet compresses the value and stores it in the local cache and, if
// configured, redis
func CacheSet(ctx context.Context, key string, val []byte) error {
	compressed, err := Compress(val)
	if err != nil {
		return err
	}

	localCache().Add(key, compressed)

	if rdb != nil {
		return rdb.Set(ctx, key, compressed, cacheTTL()).Err()
	}

	return nil
}

// CacheGet retrieves a value stored with CacheSet. ErrCacheMiss is returned if
// neither tier has the key.
func CacheGet(ctx context.Context, key string) ([]byte, error) {
	if v, ok := localCache().Get(key); ok {
		return Decompress(v.([]byte))
	}

	if rdb == nil {
		return nil, ErrCacheMiss
	}

	val, err := rdb.GetEx(ctx, key, cacheTTL()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, err
	}

	// promote to the local tier
	localCache().Add(key, val)

	return Decompress(val)
}

// CachePurge removes all entries from the local cache
func CachePurge() {
	localCache().Purge()
}
