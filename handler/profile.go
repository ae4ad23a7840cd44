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

package handler

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pv-factor/profile"
)

// ProfileInfo describes a risk category and its base factor targets
type ProfileInfo struct {
	Category    profile.Category `json:"category"`
	Level       int              `json:"level"`
	Description string           `json:"description"`
	Targets     []float64        `json:"targets"`
}

// ListProfiles returns every risk category from least to most risk tolerant
func ListProfiles(c *fiber.Ctx) error {
	profiles := make([]ProfileInfo, len(profile.Categories))
	for idx, cat := range profile.Categories {
		profiles[idx] = ProfileInfo{
			Category:    cat,
			Level:       cat.Level(),
			Description: cat.Description(),
			Targets:     cat.Targets(4),
		}
	}
	return c.JSON(profiles)
}

// ScoreProfile scores questionnaire answers posted as a JSON object mapping
// question number to choice number, e.g. {"1": 2, "2": 4}
func ScoreProfile(c *fiber.Ctx) error {
	var body map[string]int
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return sendError(c, fmt.Errorf("%w: body must map question numbers to choices", profile.ErrInvalidAnswer))
	}

	answers := make(profile.Answers, len(body))
	for k, v := range body {
		q, err := strconv.Atoi(k)
		if err != nil {
			return sendError(c, fmt.Errorf("%w: question %q is not a number", profile.ErrInvalidAnswer, k))
		}
		answers[q] = v
	}

	eval, err := answers.Evaluate()
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(eval)
}
