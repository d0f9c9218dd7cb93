package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"certsender/internal/config"
	"certsender/internal/delivery"
)

var loginCommand = &cobra.Command{
	Use:   "login",
	Short: "Open WhatsApp Web to scan the QR code and warm the profile",
	Long: `Launches Chrome with the persistent profile and waits for a WhatsApp Web
login. Scan the QR code with your phone when prompted. Once the session is
authenticated the profile keeps the login, so later runs of "send" skip the
QR step.`,
	RunE: runLoginCmd,
}

var (
	loginProfileDir string
	loginVerbose    bool
)

func init() {
	loginCommand.Flags().StringVar(&loginProfileDir, "profile-dir", config.DefaultProfileDir, "Chrome profile directory")
	loginCommand.Flags().BoolVarP(&loginVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(loginCommand)
}

func runLoginCmd(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Login needs a visible window for the QR code, so never headless.
	session, err := delivery.NewSession(ctx, loginProfileDir, false, loginVerbose)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer session.Close()

	if err := session.Open(ctx); err != nil {
		return fmt.Errorf("failed to open WhatsApp Web: %w", err)
	}

	fmt.Println("Waiting for WhatsApp Web login (scan the QR code if prompted)...")
	if err := session.WaitLogin(ctx, delivery.LoginTimeout); err != nil {
		return fmt.Errorf("login not detected: %w", err)
	}

	fmt.Printf("Logged in. Session saved to profile %s\n", loginProfileDir)
	return nil
}
