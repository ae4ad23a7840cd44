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
	"github.com/penny-vault/pv-factor/advisor"
	"github.com/penny-vault/pv-factor/observability/opentelemetry"
	"github.com/penny-vault/pv-factor/report"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Analyze runs a portfolio analysis from a JSON advisor.Input body
func (h *Handler) Analyze(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), "handler.Analyze", trace.WithAttributes(opentelemetry.SpanAttributesFromFiber(c)...))
	defer span.End()

	var input advisor.Input
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		log.Warn().Err(err).Msg("could not unmarshal analyze request")
		return sendError(c, fmt.Errorf("%w: request body is not valid JSON", advisor.ErrInvalidInput))
	}

	span.SetAttributes(attribute.StringSlice("Symbols", input.Symbols))

	req, err := input.Request()
	if err != nil {
		return sendError(c, err)
	}

	result, err := h.advisor.Run(ctx, req)
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(result)
}

// Report returns the narrative of the last analysis. Markdown is returned
// unless `render` is set, in which case the report is formatted as plain
// text.
func (h *Handler) Report(c *fiber.Ctx) error {
	last := h.advisor.Last()
	if last == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Status:  "error",
			Message: "no analysis has been run yet",
		})
	}

	md := report.Narrative(last.Analysis)
	if render, _ := strconv.ParseBool(c.Query("render", "false")); !render {
		c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
		return c.SendString(md)
	}

	width, err := strconv.Atoi(c.Query("width", strconv.Itoa(report.DefaultWidth)))
	if err != nil {
		width = report.DefaultWidth
	}

	text, err := report.Render(md, "notty", width)
	if err != nil {
		return sendError(c, err)
	}
	return c.SendString(text)
}
