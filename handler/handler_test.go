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

package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-factor/advisor"
	"github.com/penny-vault/pv-factor/factor"
	"github.com/penny-vault/pv-factor/handler"
	"github.com/penny-vault/pv-factor/profile"
	"github.com/penny-vault/pv-factor/router"
)

var _ = Describe("Handler", func() {
	var (
		app *fiber.App
	)

	BeforeEach(func() {
		app = fiber.New()
		router.SetupRoutes(app, handler.New(advisor.New(randomWalk{}, factor.DefaultConfig())))
	})

	do := func(method, path, body string) (int, []byte) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		buf, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp.StatusCode, buf
	}

	It("responds to ping", func() {
		code, body := do(http.MethodGet, "/v1/", "")
		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring("API is alive"))
	})

	It("lists profiles", func() {
		code, body := do(http.MethodGet, "/v1/profiles", "")
		Expect(code).To(Equal(http.StatusOK))

		var profiles []handler.ProfileInfo
		Expect(json.Unmarshal(body, &profiles)).To(Succeed())
		Expect(profiles).To(HaveLen(len(profile.Categories)))
		Expect(profiles[2].Category).To(Equal(profile.Balanced))
		Expect(profiles[2].Targets).To(HaveLen(4))
		Expect(profiles[2].Targets[0]).To(BeNumerically("~", 0.35, 1e-12))
	})

	Describe("scoring the questionnaire", func() {
		It("classifies complete answers", func() {
			code, body := do(http.MethodPost, "/v1/profiles/score", `{"1":5,"2":1,"3":1,"4":1,"5":5,"6":3,"7":1}`)
			Expect(code).To(Equal(http.StatusOK))

			var eval profile.Evaluation
			Expect(json.Unmarshal(body, &eval)).To(Succeed())
			Expect(eval.Category).To(Equal(profile.Conservative))
		})

		It("rejects incomplete answers", func() {
			code, body := do(http.MethodPost, "/v1/profiles/score", `{"1":1}`)
			Expect(code).To(Equal(http.StatusBadRequest))
			Expect(string(body)).To(ContainSubstring("unanswered questions"))
		})
	})

	Describe("analyze", func() {
		It("rejects a single ticker", func() {
			code, _ := do(http.MethodPost, "/v1/analyze", `{"symbols":["AAPL"]}`)
			Expect(code).To(Equal(http.StatusBadRequest))
		})

		It("rejects malformed JSON", func() {
			code, _ := do(http.MethodPost, "/v1/analyze", `{"symbols":`)
			Expect(code).To(Equal(http.StatusBadRequest))
		})

		It("has no report before the first analysis", func() {
			code, _ := do(http.MethodGet, "/v1/report", "")
			Expect(code).To(Equal(http.StatusNotFound))
		})

		It("returns the analysis and keeps it for the report", func() {
			code, body := do(http.MethodPost, "/v1/analyze", `{"symbols":["AAA","BBB","CCC","DDD"],"profile":"aggressive","start":"2022-01-03","end":"2022-12-31"}`)
			Expect(code).To(Equal(http.StatusOK))

			var result struct {
				Analysis struct {
					Profile profile.Category `json:"profile"`
					Factors []struct {
						Factor string `json:"factor"`
					} `json:"factors"`
				} `json:"analysis"`
			}
			Expect(json.Unmarshal(body, &result)).To(Succeed())
			Expect(result.Analysis.Profile).To(Equal(profile.Aggressive))
			Expect(result.Analysis.Factors).To(HaveLen(4))

			code, body = do(http.MethodGet, "/v1/report", "")
			Expect(code).To(Equal(http.StatusOK))
			Expect(string(body)).To(HavePrefix("# Portfolio factor report"))

			code, body = do(http.MethodGet, "/v1/report?render=true&width=80", "")
			Expect(code).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring("Portfolio factor report"))
		})
	})
})
