// Copyright 2025 readrum Authors
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

package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"readrum/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version info for --version flag
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

// getVersionString returns the version string with build info
func getVersionString() string {
	buildDate := formatBuildDate(date)
	if strings.HasSuffix(version, "-dev") {
		// Dev build: include epoch and commit for troubleshooting
		return fmt.Sprintf("%s (%s, epoch: %s, commit: %s)", version, buildDate, date, commit)
	}
	return fmt.Sprintf("%s (%s)", version, buildDate)
}

// formatBuildDate converts epoch timestamp to readable date
func formatBuildDate(epoch string) string {
	ts, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil {
		return epoch
	}
	return time.Unix(ts, 0).Format("2006-01-02")
}

// EnvLogLevel overrides the configured log level; --log-level wins over it.
const EnvLogLevel = "READRUM_LOG"

// Persistent flags and the loaded configuration, shared by all commands.
var (
	configPath string
	logLevel   string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "readrum",
	Short: "Extract and rewrite sample paths in ReaDrum Machine .RPL backups",
	Long: `readrum works on ReaDrum Machine preset backups (.RPL files): it decodes
the nested base64 payloads inside each PRESET block, extracts the sample
paths with their container/note attribution, and can rewrite those paths
in place while preserving every other byte of the file.

Path detection is heuristic. Review extraction output before using it to
drive replacements.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		// Config, then READRUM_LOG, then the flag.
		level := cfg.Logging
		if env := os.Getenv(EnvLogLevel); env != "" {
			level = env
		}
		if logLevel != "" {
			level = logLevel
		}
		applyLogLevel(level)
		return nil
	},
}

func applyLogLevel(level string) {
	switch strings.ToLower(level) {
	case "none":
		log.SetOutput(io.Discard)
	case "error":
		log.SetLevel(log.ErrorLevel)
	case "warn", "warning":
		log.SetLevel(log.WarnLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("readrum version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to readrum.yaml (default: $READRUM_CONFIG, then ./readrum.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: none, error, warn, info, debug (overrides config)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
