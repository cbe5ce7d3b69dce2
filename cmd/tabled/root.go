package main

import (
	"github.com/spf13/cobra"

	"github.com/tsrlab/tabled/version"
)

var (
	cfgFile string
	homeDir string
)

var rootCmd = &cobra.Command{
	Use:   "tabled",
	Short: "Asynchronous table structure recognition service",
	Long: `Tabled runs images through a table structure recognition pipeline.

A submitted image is assigned a job id and processed asynchronously
through OCR, table detection, structure recognition, and table
construction. Clients poll the job id for progress and retrieve the
structured result document once processing finishes.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.tabled/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "tabled home directory (default: ~/.tabled)",
	)

	rootCmd.AddCommand(versionCmd)
}
