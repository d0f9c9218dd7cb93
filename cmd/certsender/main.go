// Package main provides the entry point for the certsender CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "certsender",
	Short: "Send certificate PDFs over WhatsApp Web",
	Long:  "certsender matches spreadsheet records to certificate PDFs by normalized name and delivers each certificate with a greeting through a controlled WhatsApp Web session.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
