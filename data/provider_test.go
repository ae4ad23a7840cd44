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

package data_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-factor/data"
	"github.com/spf13/viper"
)

var _ = Describe("NewProvider", func() {
	AfterEach(func() {
		viper.Reset()
	})

	It("requires a tiingo token", func() {
		viper.Set("tiingo.token", "")
		_, err := data.NewProvider("tiingo", "")
		Expect(err).To(MatchError(data.ErrMissingToken))
	})

	It("wraps providers in the cache", func() {
		viper.Set("tiingo.token", "TEST")
		provider, err := data.NewProvider("tiingo", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(provider).To(BeAssignableToTypeOf(&data.Cached{}))
	})

	It("can skip the cache", func() {
		viper.Set("cache.disabled", true)
		provider, err := data.NewProvider("csv", "prices.csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(provider).To(BeAssignableToTypeOf(&data.CSV{}))
	})

	It("builds the parquet provider", func() {
		viper.Set("cache.disabled", true)
		provider, err := data.NewProvider("parquet", "prices.parquet")
		Expect(err).NotTo(HaveOccurred())
		Expect(provider).To(BeAssignableToTypeOf(&data.Parquet{}))
	})

	It("rejects unknown providers", func() {
		_, err := data.NewProvider("bloomberg", "")
		Expect(err).To(MatchError(data.ErrUnknownProvider))
	})
})
