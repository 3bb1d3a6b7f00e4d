package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowforged",
	Short: "flowforge workflow engine daemon",
	Long:  `Serves the flowforge graph execution engine over a JSON HTTP API.`,
}
