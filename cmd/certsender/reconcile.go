package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"certsender/internal/pipeline"
)

var reconcileCommand = &cobra.Command{
	Use:   "reconcile",
	Short: "Preview the recipient-to-certificate matching without sending",
	Long: `Loads the spreadsheet and certificate directory, prints the detected
column mapping and the matched recipient list, then exits. No browser is
launched and nothing is delivered.`,
	RunE: runReconcileCmd,
}

func init() {
	reconcileCommand.Flags().StringVar(&sendConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	reconcileCommand.Flags().StringVarP(&sendSheet, "sheet", "s", "", "Path to the recipient spreadsheet (.xlsx)")
	reconcileCommand.Flags().StringVarP(&sendCerts, "certificates", "d", "", "Directory holding the certificate PDFs")
	reconcileCommand.Flags().StringSliceVar(&sendInclude, "include", nil, "Only select these names (repeatable; overrides default selection)")
	reconcileCommand.Flags().StringSliceVar(&sendExclude, "exclude", nil, "Never select these names (repeatable)")
	reconcileCommand.Flags().BoolVarP(&sendVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(reconcileCommand)
}

func runReconcileCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := mergedConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Sheet == "" {
		return fmt.Errorf("--sheet is required (or set \"sheet\" in the config file)")
	}
	if cfg.Certificates == "" {
		return fmt.Errorf("--certificates is required (or set \"certificates\" in the config file)")
	}

	opts := pipelineOptions(cfg)
	opts.ReconcileOnly = true

	summary, err := pipeline.Run(context.Background(), opts)
	if err != nil {
		return err
	}

	selected := pipeline.Selected(summary.Recipients)
	fmt.Printf("%d of %d recipients selected for delivery\n", len(selected), len(summary.Recipients))
	return nil
}
