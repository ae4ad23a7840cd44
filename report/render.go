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

package report

import (
	"github.com/charmbracelet/glamour"
)

// DefaultWidth is the word wrap width used for terminal output
const DefaultWidth = 100

// Render formats markdown for display in a terminal. style is a glamour
// standard style name (dark, light, notty, ...); an empty style selects
// notty, which produces plain text suitable for pipes and logs.
func Render(markdown, style string, width int) (string, error) {
	if style == "" {
		style = "notty"
	}
	if width <= 0 {
		width = DefaultWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	return renderer.Render(markdown)
}
