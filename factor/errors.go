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

import "errors"

var (
	// ErrInsufficientData is returned when fewer than MinAssets assets or no
	// observations survive cleaning. There is no partial result.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrConstantSeries is returned when an asset has no variance after
	// winsorization. It is a kind of ErrInsufficientData.
	ErrConstantSeries = errors.New("asset return series is constant")

	// ErrDecomposition is returned when the eigen solver fails
	ErrDecomposition = errors.New("eigen decomposition failed")

	// ErrDegenerateFactor marks a factor whose raw weights sum to ~0 so they
	// cannot be rescaled to sum to one. It is not returned by Extract; it is
	// attached to the factor in EigenPortfolio.Err.
	ErrDegenerateFactor = errors.New("factor weights sum to zero")

	// ErrInvalidConfig is returned when a Config value is out of range
	ErrInvalidConfig = errors.New("invalid factor configuration")
)
