package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"articulate/internal/provider"
	"articulate/internal/store"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the stored credentials against the provider",
	Long: `Loads the stored provider configuration, confirms the API key is
accepted, the model exists, and a minimal generation round trip works.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Daemon.StorePath)
		if err != nil {
			return err
		}
		defer st.Close()

		creds, err := st.LoadCredentials(cmd.Context())
		if err != nil {
			return err
		}
		if creds == nil {
			return fmt.Errorf("no credentials stored; run: articulate setup")
		}

		err = provider.VerifyCredentials(cmd.Context(), *creds)
		switch {
		case err == nil:
			fmt.Printf("%s credentials OK (model %s)\n", creds.Provider, creds.Model)
			return nil
		case errors.Is(err, provider.ErrInvalidKey):
			return fmt.Errorf("API key rejected by %s", creds.Provider)
		case errors.Is(err, provider.ErrModelNotFound):
			return fmt.Errorf("model %q not available on %s", creds.Model, creds.Provider)
		default:
			return fmt.Errorf("verification failed: %w", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
