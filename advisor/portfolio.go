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
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadInput reads a portfolio file. The file is TOML with the fields of
// Input, for example:
//
//	symbols = ["AAPL", "MSFT", "XOM"]
//	weights = [0.5, 0.3, 0.2]
//	profile = "Balanced"
//	start   = "2019-01-02"
func LoadInput(path string) (Input, error) {
	var input Input

	buf, err := os.ReadFile(path)
	if err != nil {
		return input, err
	}

	if err := toml.Unmarshal(buf, &input); err != nil {
		return input, fmt.Errorf("%w: portfolio file %s: %s", ErrInvalidInput, path, err)
	}

	return input, nil
}
