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
	"fmt"
	"math"
	"sort"

	"github.com/penny-vault/pv-factor/dataframe"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// covariance computes the sample covariance matrix of the dataframe columns.
// When values are missing each pair of columns uses the observations where
// both are present.
func covariance(df *dataframe.DataFrame) (*mat.SymDense, error) {
	n := df.ColCount()
	cov := mat.NewSymDense(n, nil)

	if !df.HasNaN() {
		stat.CovarianceMatrix(cov, df.Mat(), nil)
		return cov, nil
	}

	for ii := 0; ii < n; ii++ {
		for jj := ii; jj < n; jj++ {
			x, y := pairwiseComplete(df.Vals[ii], df.Vals[jj])
			if len(x) < 2 {
				return nil, fmt.Errorf("%w: %s and %s have fewer than 2 overlapping observations", ErrInsufficientData, df.ColNames[ii], df.ColNames[jj])
			}
			cov.SetSym(ii, jj, stat.Covariance(x, y, nil))
		}
	}

	return cov, nil
}

func pairwiseComplete(a, b []float64) (x, y []float64) {
	x = make([]float64, 0, len(a))
	y = make([]float64, 0, len(b))
	for idx := range a {
		if math.IsNaN(a[idx]) || math.IsNaN(b[idx]) {
			continue
		}
		x = append(x, a[idx])
		y = append(y, b[idx])
	}
	return
}

type component struct {
	eigenvalue float64
	vector     []float64
}

// principalComponents performs a full eigen-decomposition of the symmetric
// matrix and returns its components ordered by descending eigenvalue. Equal
// eigenvalues keep the order reported by the solver.
func principalComponents(sym *mat.SymDense) ([]component, error) {
	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return nil, ErrDecomposition
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	order := make([]int, len(values))
	for idx := range order {
		order[idx] = idx
	}
	sort.SliceStable(order, func(i, j int) bool {
		return values[order[i]] > values[order[j]]
	})

	components := make([]component, len(values))
	for rank, idx := range order {
		components[rank] = component{
			eigenvalue: values[idx],
			vector:     mat.Col(nil, idx, &vectors),
		}
	}

	return components, nil
}

// explainedVarianceRatio divides each eigenvalue by the sum of all
// eigenvalues. Negative round-off eigenvalues are clamped to zero.
func explainedVarianceRatio(components []component) ([]float64, error) {
	total := 0.0
	for _, comp := range components {
		total += math.Max(comp.eigenvalue, 0)
	}

	if total <= 0 || math.IsNaN(total) {
		return nil, fmt.Errorf("%w: total variance is %g", ErrDecomposition, total)
	}

	ratios := make([]float64, len(components))
	for idx, comp := range components {
		ratios[idx] = math.Max(comp.eigenvalue, 0) / total
	}
	return ratios, nil
}
