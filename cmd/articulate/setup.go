package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"articulate/internal/provider"
	"articulate/internal/store"
)

var (
	setupProvider string
	setupModel    string
	setupAPIKey   string
	setupNoVerify bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Store AI provider credentials",
	Long: `Persists the provider, model, and API key. A running daemon broadcasts
the change to connected agents immediately; the slot is replaced as a
whole, never merged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := provider.Credentials{
			Provider: setupProvider,
			Model:    setupModel,
			APIKey:   setupAPIKey,
		}
		if creds.Provider != provider.ProviderOpenAI && creds.Provider != provider.ProviderGemini {
			return fmt.Errorf("provider must be %q or %q", provider.ProviderOpenAI, provider.ProviderGemini)
		}
		if creds.Model == "" || creds.APIKey == "" {
			return fmt.Errorf("model and api-key are required")
		}

		if !setupNoVerify {
			if err := provider.VerifyCredentials(cmd.Context(), creds); err != nil {
				return fmt.Errorf("credential check failed: %w", err)
			}
		}

		// A running daemon owns the store; hand the credentials to it so
		// connected agents get the update pushed. Fall back to a direct
		// write when no daemon is listening.
		if err := pushToDaemon(creds); err == nil {
			fmt.Printf("Stored %s credentials (model %s) via daemon\n", creds.Provider, creds.Model)
			return nil
		}

		st, err := store.Open(cfg.Daemon.StorePath)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SaveCredentials(cmd.Context(), creds); err != nil {
			return err
		}
		fmt.Printf("Stored %s credentials (model %s)\n", creds.Provider, creds.Model)
		return nil
	},
}

func pushToDaemon(creds provider.Credentials) error {
	body, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Post("http://"+cfg.Daemon.Addr+"/config", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("daemon rejected credentials: HTTP %d", resp.StatusCode)
	}
	return nil
}

func init() {
	setupCmd.Flags().StringVar(&setupProvider, "provider", "", "AI provider: openai or gemini")
	setupCmd.Flags().StringVar(&setupModel, "model", "", "model identifier")
	setupCmd.Flags().StringVar(&setupAPIKey, "api-key", "", "provider API key")
	setupCmd.Flags().BoolVar(&setupNoVerify, "no-verify", false, "skip the credential check")
	setupCmd.MarkFlagRequired("provider")
	setupCmd.MarkFlagRequired("model")
	setupCmd.MarkFlagRequired("api-key")
	rootCmd.AddCommand(setupCmd)
}
