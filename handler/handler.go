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
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pv-factor/advisor"
	"github.com/penny-vault/pv-factor/factor"
	"github.com/penny-vault/pv-factor/profile"
	"github.com/rs/zerolog/log"
)

// Handler serves the factor API on top of a single Advisor
type Handler struct {
	advisor *advisor.Advisor
}

func New(a *advisor.Advisor) *Handler {
	return &Handler{advisor: a}
}

type PingResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"API is alive"`
	Time    string `json:"time" example:"2021-06-19T08:09:10.115924-05:00"`
}

type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message"`
}

func Ping(c *fiber.Ctx) error {
	return c.JSON(PingResponse{
		Status:  "success",
		Message: "API is alive",
		Time:    time.Now().Format(time.RFC3339Nano),
	})
}

// statusCode maps an analysis error to an HTTP status
func statusCode(err error) int {
	switch {
	case errors.Is(err, advisor.ErrInvalidInput),
		errors.Is(err, profile.ErrInvalidAnswer),
		errors.Is(err, profile.ErrUnknownCategory):
		return fiber.StatusBadRequest
	case errors.Is(err, factor.ErrInsufficientData):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func sendError(c *fiber.Ctx, err error) error {
	code := statusCode(err)
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("Path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(ErrorResponse{
		Status:  "error",
		Message: err.Error(),
	})
}
