// Copyright 2026 gorse Project Authors
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

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Build-time variables, overridden via ldflags.
var (
	Version   = "unknown-version"
	GitCommit = "unknown-commit"
	BuildTime = "unknown-buildtime"
)

// vcs falls back to the revision and time stamped by the Go toolchain.
func vcs() (commit, built string) {
	commit, built = GitCommit, BuildTime
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if strings.HasPrefix(commit, "unknown") {
				commit = setting.Value
			}
		case "vcs.time":
			if strings.HasPrefix(built, "unknown") {
				built = setting.Value
			}
		}
	}
	return
}

func BuildInfo() string {
	commit, built := vcs()
	var buildInfo strings.Builder
	_, _ = fmt.Fprintln(&buildInfo, "Version:\t", Version)
	_, _ = fmt.Fprintln(&buildInfo, "Go version:\t", runtime.Version())
	_, _ = fmt.Fprintln(&buildInfo, "Git commit:\t", commit)
	_, _ = fmt.Fprintln(&buildInfo, "Built:\t\t", built)
	_, _ = fmt.Fprintf(&buildInfo, "OS/Arch:\t %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return buildInfo.String()
}
