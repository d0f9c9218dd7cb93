package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"certsender/internal/config"
	"certsender/internal/delivery"
	"certsender/internal/pipeline"
)

var sendCommand = &cobra.Command{
	Use:   "send",
	Short: "Reconcile and deliver certificates to the selected recipients",
	Long: `Loads the spreadsheet, matches rows against the certificate directory by
normalized name, then drives WhatsApp Web to send each selected recipient a
greeting plus their certificate. Outcomes are persisted as SENT.xlsx and
NOT_SENT.xlsx next to the spreadsheet.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values. Press Ctrl-C to stop between
recipients; the one in flight always finishes.`,
	RunE: runSendCmd,
}

var (
	sendConfigPath  string
	sendSheet       string
	sendCerts       string
	sendProfileDir  string
	sendGreeting    string
	sendDelay       int
	sendInclude     []string
	sendExclude     []string
	sendStrictPhone bool
	sendHeadless    bool
	sendVerbose     bool
	sendDatabaseURL string
	sendYes         bool
)

func init() {
	// Config file flag (processed first)
	sendCommand.Flags().StringVar(&sendConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	sendCommand.Flags().StringVarP(&sendSheet, "sheet", "s", "", "Path to the recipient spreadsheet (.xlsx)")
	sendCommand.Flags().StringVarP(&sendCerts, "certificates", "d", "", "Directory holding the certificate PDFs")
	sendCommand.Flags().StringVar(&sendProfileDir, "profile-dir", "", "Chrome profile directory (default: ./"+config.DefaultProfileDir+")")
	sendCommand.Flags().StringVar(&sendGreeting, "greeting", "", "Greeting template; {name} expands to the first name")
	sendCommand.Flags().IntVar(&sendDelay, "delay", 0, "Seconds to pause between recipients (default 3)")
	sendCommand.Flags().StringSliceVar(&sendInclude, "include", nil, "Only deliver to these names (repeatable; overrides default selection)")
	sendCommand.Flags().StringSliceVar(&sendExclude, "exclude", nil, "Never deliver to these names (repeatable)")
	sendCommand.Flags().BoolVar(&sendStrictPhone, "strict-phone", false, "Skip recipients whose number fails phone validation")
	sendCommand.Flags().BoolVar(&sendHeadless, "headless", false, "Run Chrome headless (QR login needs a visible window)")
	sendCommand.Flags().BoolVarP(&sendVerbose, "verbose", "v", false, "Print detailed debug information")
	sendCommand.Flags().BoolVarP(&sendYes, "yes", "y", false, "Skip the confirmation prompt")

	// Database URL for outcome persistence
	sendCommand.Flags().StringVar(&sendDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(sendCommand)
}

func runSendCmd(cmd *cobra.Command, _ []string) error {
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

	if !sendYes {
		res, _, _, err := pipeline.Reconcile(&opts)
		if err != nil {
			return err
		}
		selected := pipeline.Selected(res.Recipients)
		if len(selected) == 0 {
			return fmt.Errorf("no recipients selected for delivery")
		}
		if !confirm(fmt.Sprintf("Send %d certificates? [y/N]: ", len(selected))) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Ctrl-C requests a cooperative stop; the recipient in flight finishes.
	var stopRequested atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nStop requested; finishing the recipient in flight...")
		stopRequested.Store(true)
	}()
	opts.StopRequested = stopRequested.Load

	_, err = pipeline.Run(context.Background(), opts)
	return err
}

// mergedConfig loads the optional config file and applies explicit CLI flags
// on top of it. Only flags the user actually set override config values.
func mergedConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if sendConfigPath != "" {
		loaded, err := config.LoadConfig(sendConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
		if sendVerbose {
			fmt.Printf("Loaded config from: %s\n", sendConfigPath)
		}
	}

	if cmd.Flags().Changed("sheet") {
		cfg.Sheet = sendSheet
	}
	if cmd.Flags().Changed("certificates") {
		cfg.Certificates = sendCerts
	}
	if cmd.Flags().Changed("profile-dir") {
		cfg.ProfileDir = sendProfileDir
	}
	if cmd.Flags().Changed("greeting") {
		cfg.Greeting = sendGreeting
	}
	if cmd.Flags().Changed("delay") {
		cfg.DelaySeconds = sendDelay
	}
	if cmd.Flags().Changed("include") {
		cfg.Include = sendInclude
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Exclude = sendExclude
	}
	if cmd.Flags().Changed("strict-phone") {
		cfg.StrictPhone = sendStrictPhone
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = sendHeadless
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = sendVerbose
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = sendDatabaseURL
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.ProfileDir == "" {
		cfg.ProfileDir = config.DefaultProfileDir
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func pipelineOptions(cfg config.Config) pipeline.Options {
	delay := time.Duration(cfg.DelaySeconds) * time.Second
	if cfg.DelaySeconds == 0 {
		delay = delivery.DefaultDelay
	}
	return pipeline.Options{
		SheetPath:   cfg.Sheet,
		CertDir:     cfg.Certificates,
		ProfileDir:  cfg.ProfileDir,
		Greeting:    cfg.Greeting,
		Delay:       delay,
		Include:     cfg.Include,
		Exclude:     cfg.Exclude,
		StrictPhone: cfg.StrictPhone,
		Headless:    cfg.Headless,
		Verbose:     cfg.Verbose,
		DatabaseURL: cfg.DatabaseURL,
	}
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
