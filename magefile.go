//go:build mage

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

package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName  = "pvfactor"
	packageName = "."
	modulePath  = "github.com/penny-vault/pv-factor"
	coverFile   = "coverage.out"
)

var ldflags = "-X " + modulePath + "/common.commitHash=$COMMIT_HASH -X " + modulePath + "/common.buildDate=$BUILD_DATE"

// allow user to override go executable by running as GOEXE=xxx mage ...
var goexe = "go"

func init() {
	if exe := os.Getenv("GOEXE"); exe != "" {
		goexe = exe
	}
}

// Build the pvfactor binary with the commit hash and build date embedded
func Build() error {
	fmt.Println("Building...")
	return sh.RunWith(buildEnv(), goexe, withBuildFlags("build", "-o", binaryName, "-ldflags", ldflags, "-v", packageName)...)
}

// Install pvfactor into GOBIN
func Install() error {
	return sh.RunWith(buildEnv(), goexe, withBuildFlags("install", "-ldflags", ldflags, packageName)...)
}

func Uninstall() error {
	return sh.Run(goexe, "clean", "-i", packageName)
}

// Clean removes build artifacts
func Clean() {
	fmt.Println("Cleaning...")
	os.RemoveAll(binaryName)
	os.RemoveAll(coverFile)
}

// Lint runs the formatter check and go vet
func Lint() {
	mg.Deps(Fmt, Vet)
}

// Check runs the linters and the race enabled tests
func Check() {
	mg.Deps(Lint)
	mg.Deps(TestRace)
}

// Test runs all ginkgo suites
func Test() error {
	fmt.Println("Go Test")
	return runQuiet(goexe, withBuildFlags("test", "./...")...)
}

// TestRace runs all ginkgo suites with the race detector
func TestRace() error {
	fmt.Println("Go Test Race")
	return runQuiet(goexe, withBuildFlags("test", "-race", "./...")...)
}

// Fmt fails if any file is not gofmt'ed
func Fmt() error {
	fmt.Println("Go Format")

	// gofmt -l exits 0 even when files need formatting
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return fmt.Errorf("error running gofmt: %w", err)
	}

	unformatted := []string{}
	for _, f := range strings.Split(out, "\n") {
		if f != "" && !strings.HasPrefix(f, "_") {
			unformatted = append(unformatted, f)
		}
	}
	if len(unformatted) > 0 {
		fmt.Println("The following files are not gofmt'ed:")
		fmt.Println(strings.Join(unformatted, "\n"))
		return errors.New("improperly formatted go files")
	}
	return nil
}

// Vet runs go vet on every package
func Vet() error {
	fmt.Println("Go Vet")
	if err := sh.Run(goexe, "vet", "./..."); err != nil {
		return fmt.Errorf("error running go vet: %w", err)
	}
	return nil
}

// TestCoverHTML writes a coverage profile and opens it in the browser
func TestCoverHTML() error {
	fmt.Println("Generate Test Coverage HTML")
	if err := sh.Run(goexe, "test", "-coverprofile="+coverFile, "-covermode=count", "./..."); err != nil {
		return err
	}
	return sh.Run(goexe, "tool", "cover", "-html="+coverFile)
}

// Helpers

func withBuildFlags(args ...string) []string {
	if runtime.GOOS == "windows" {
		return append(args[:1:1], append([]string{"-buildmode", "exe"}, args[1:]...)...)
	}
	return args
}

func buildEnv() map[string]string {
	hash, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	return map[string]string{
		"COMMIT_HASH": hash,
		"BUILD_DATE":  time.Now().Format("2006-01-02T15:04:05Z0700"),
	}
}

func runQuiet(cmd string, args ...string) error {
	if mg.Verbose() {
		return sh.Run(cmd, args...)
	}
	output, err := sh.Output(cmd, args...)
	if err != nil {
		fmt.Fprint(os.Stderr, output)
	}
	return err
}
