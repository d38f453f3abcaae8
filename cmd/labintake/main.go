package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/meridianbio/labintake/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "labintake",
	Short: "Laboratory submission extraction pipeline",
	Long:  "Validates submission documents, extracts structured fields with a local LLM and scores them against the intake quality policy.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
