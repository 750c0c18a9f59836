// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

// Global flag values - set by root command
var (
	verboseFlag   bool
	jsonFlag      bool
	configFlag    string
	logLevelFlag  string
	logFormatFlag string
	jqFlag        string

	// Build-time version information
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// GlobalFlags holds pointers to the persistent flag variables.
type GlobalFlags struct {
	Verbose   *bool
	JSON      *bool
	Config    *string
	LogLevel  *string
	LogFormat *string
	JQ        *string
}

// RegisterFlagPointers returns pointers to flag variables for binding.
// Called by root command to register flags.
func RegisterFlagPointers() GlobalFlags {
	return GlobalFlags{
		Verbose:   &verboseFlag,
		JSON:      &jsonFlag,
		Config:    &configFlag,
		LogLevel:  &logLevelFlag,
		LogFormat: &logFormatFlag,
		JQ:        &jqFlag,
	}
}

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	version = v
	commit = c
	buildDate = b
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verboseFlag
}

// GetJSON returns the JSON output flag value
func GetJSON() bool {
	return jsonFlag
}

// GetConfigPath returns the session file path
func GetConfigPath() string {
	return configFlag
}

// GetLogLevel returns the --log-level flag value
func GetLogLevel() string {
	return logLevelFlag
}

// GetLogFormat returns the --log-format flag value
func GetLogFormat() string {
	return logFormatFlag
}

// GetJQ returns the --jq filter applied to JSON output
func GetJQ() string {
	return jqFlag
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return version, commit, buildDate
}

// ResetFlagsForTest clears the global flag values.
func ResetFlagsForTest() {
	verboseFlag = false
	jsonFlag = false
	configFlag = ""
	logLevelFlag = ""
	logFormatFlag = ""
	jqFlag = ""
}
