// Package cmd implements the ulpclock-host command line
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ulpclock/core"
	"ulpclock/protocol"
)

// RootCmd is the main entry point
var RootCmd = &cobra.Command{
	Use:     "ulpclock-host",
	Short:   "Simulate and monitor the self-calibrating low-power clock",
	Version: protocol.Version,
}

var verbose bool

var okString = color.GreenString("[ OK ]")
var failString = color.RedString("[FAIL]")

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// ConfigureVerbosity configures log verbosity based on parsed flags. Needs to be called by any subcommand.
func ConfigureVerbosity() {
	log.SetLevel(log.InfoLevel)
	core.SetDebugEnabled(false)
	if verbose {
		log.SetLevel(log.DebugLevel)
		core.SetDebugWriter(func(s string) { log.Debug(s) })
		core.SetDebugEnabled(true)
	}
}

// Execute is the main entry point for CLI interface
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
