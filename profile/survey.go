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

package profile

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrInvalidAnswer = errors.New("invalid questionnaire answer")
)

// scores maps question number -> choice number -> points. Choices that do
// not exist for a question are absent.
var scores = map[int]map[int]float64{
	1: {1: 12.5, 2: 12.5, 3: 9.3, 4: 6.2, 5: 3.1},
	2: {1: 3.1, 2: 6.2, 3: 9.3, 4: 12.5, 5: 15.6},
	3: {1: 3.1, 2: 6.2, 3: 9.3, 4: 12.5, 5: 15.6},
	4: {1: 3.1, 2: 6.2, 3: 9.3, 4: 12.5},
	5: {1: 15.6, 2: 12.5, 3: 9.3, 4: 6.2, 5: 3.1},
	6: {1: 9.3, 2: 6.2, 3: 3.1},
	7: {1: -6.2, 2: 6.2, 3: 12.5, 4: 18.7},
}

// NumQuestions is the number of questions in the questionnaire
const NumQuestions = 7

// Answers maps question number to the selected choice number
type Answers map[int]int

// Evaluation is the outcome of scoring a questionnaire
type Evaluation struct {
	Score       float64  `json:"score"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
}

// ParseAnswers parses answers formatted as `1=2,2=4,...`
func ParseAnswers(s string) (Answers, error) {
	answers := make(Answers)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: %q is not of the form question=choice", ErrInvalidAnswer, part)
		}

		q, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: question %q is not a number", ErrInvalidAnswer, kv[0])
		}

		c, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: choice %q is not a number", ErrInvalidAnswer, kv[1])
		}

		answers[q] = c
	}

	return answers, nil
}

// Missing returns the question numbers that have not been answered
func (a Answers) Missing() []int {
	missing := []int{}
	for q := 1; q <= NumQuestions; q++ {
		if _, ok := a[q]; !ok {
			missing = append(missing, q)
		}
	}
	return missing
}

// Score sums the points of every answer. Every question must be answered
// with a choice that exists in the scoring table.
func (a Answers) Score() (float64, error) {
	if missing := a.Missing(); len(missing) != 0 {
		return 0, fmt.Errorf("%w: unanswered questions %v", ErrInvalidAnswer, missing)
	}

	questions := make([]int, 0, len(a))
	for q := range a {
		questions = append(questions, q)
	}
	sort.Ints(questions)

	total := 0.0
	for _, q := range questions {
		choices, ok := scores[q]
		if !ok {
			return 0, fmt.Errorf("%w: question %d does not exist", ErrInvalidAnswer, q)
		}

		points, ok := choices[a[q]]
		if !ok {
			return 0, fmt.Errorf("%w: choice %d is not available for question %d", ErrInvalidAnswer, a[q], q)
		}

		total += points
	}

	return total, nil
}

// Evaluate scores the answers and classifies the investor
func (a Answers) Evaluate() (*Evaluation, error) {
	score, err := a.Score()
	if err != nil {
		return nil, err
	}

	cat := Classify(score)
	return &Evaluation{
		Score:       score,
		Category:    cat,
		Description: cat.Description(),
	}, nil
}

// Classify maps a questionnaire score to a category
func Classify(score float64) Category {
	switch {
	case score <= 20:
		return Conservative
	case score <= 40:
		return ModeratelyConservative
	case score <= 60:
		return Balanced
	case score <= 80:
		return GrowthSeeking
	default:
		return Aggressive
	}
}
