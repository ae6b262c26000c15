// Copyright 2025 Certen Protocol
//
// cellctl is a CLI front-end over the core: encode/decode/hash a value on
// the command line, or put/get/persist it against a running Backend.
package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/certen/ledgercore/internal/logging"
)

// Persistent flag values, set on rootCmd and read by every subcommand.
var (
	dataDir   string
	backend   string
	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cellctl",
	Short: "Inspect and operate on ledgercore's content-addressed cells",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger, err := logging.NewLogger(&logging.Config{Level: level, Format: logFormat, Output: "stderr"})
		if err != nil {
			return err
		}
		// Every invocation gets its own trace id for correlating the
		// command's log lines, the way a server request would.
		logging.SetGlobalLogger(logger.WithFields(logging.Field{Key: "trace_id", Value: uuid.NewString()}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "backend data directory (goleveldb)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "memory", "backend: memory or goleveldb")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(encodeCmd, decodeCmd, hashCmd, putCmd, getCmd, persistCmd)
}
