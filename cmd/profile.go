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

package cmd

import (
	"fmt"

	"github.com/penny-vault/pv-factor/profile"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(profileCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile [flags] ANSWERS",
	Short: "Score the risk questionnaire",
	Long: `Score answers to the 7 question risk questionnaire and print the investor's risk
category. Answers are given as question=choice pairs, e.g. 1=2,2=4,3=3,4=2,5=1,6=2,7=3`,
	Args:       cobra.ExactArgs(1),
	ArgAliases: []string{"ANSWERS"},
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := profile.ParseAnswers(args[0])
		if err != nil {
			return err
		}

		eval, err := answers.Evaluate()
		if err != nil {
			return err
		}

		fmt.Printf("Score:    %.1f\n", eval.Score)
		fmt.Printf("Category: %s\n\n", eval.Category)
		fmt.Println(eval.Description)
		fmt.Println()
		fmt.Printf("Target factor exposure: %v\n", eval.Category.Targets(4))
		return nil
	},
}
