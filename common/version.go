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

package common

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
)

// set with -ldflags by `mage build`
var (
	commitHash string
	buildDate  string
)

// CurrentVersion is the release of pvfactor
var CurrentVersion = Version{
	Major:  0,
	Minor:  3,
	Patch:  0,
	Suffix: "dev",
}

// Version is a SemVer 2.0.0 compatible build version
type Version struct {
	Major  int
	Minor  int
	Patch  int
	Suffix string
}

func (v Version) String() string {
	metadata := ""
	preRelease := ""

	if v.Suffix != "" {
		preRelease = fmt.Sprintf("-%s", v.Suffix)
		if commitHash != "" {
			metadata = fmt.Sprintf("+%s", strings.ToLower(commitHash))
		}
	}

	return fmt.Sprintf("%d.%d.%d%s%s", v.Major, v.Minor, v.Patch, preRelease, metadata)
}

// BuildInfo describes the running binary
type BuildInfo struct {
	Version      string   `json:"version"`
	Commit       string   `json:"commit"`
	BuildDate    string   `json:"buildDate"`
	Platform     string   `json:"platform"`
	GoVersion    string   `json:"goVersion"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// CurrentBuild collects the build information of the running binary. If
// withDeps is set the module dependency list is included as path="version".
func CurrentBuild(withDeps bool) BuildInfo {
	info := BuildInfo{
		Version:   "v" + CurrentVersion.String(),
		Commit:    commitHash,
		BuildDate: buildDate,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion: runtime.Version(),
	}

	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}

	if withDeps {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, dep := range bi.Deps {
				info.Dependencies = append(info.Dependencies, fmt.Sprintf("%s=%q", dep.Path, dep.Version))
			}
			sort.Strings(info.Dependencies)
		}
	}

	return info
}

// String formats the build info the way `pvfactor version` prints it
func (info BuildInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "pvfactor %s %s\n\nBuild Date: %s\nCommit: %s\nBuilt with: %s",
		info.Version, info.Platform, info.BuildDate, info.Commit, info.GoVersion)

	if len(info.Dependencies) > 0 {
		sb.WriteString("\n\nDependencies:\n\n")
		sb.WriteString(strings.Join(info.Dependencies, "\n"))
	}

	return sb.String()
}
