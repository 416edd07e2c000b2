package admin

import (
	"fmt"

	"github.com/cloo-solutions/propertybot/internal/service"
	"github.com/spf13/cobra"
)

// KeygenCmd returns the keygen command
func KeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an admin API key",
		Long:  "Prints a new random key. Set it as PROPERTYBOT_ADMIN_API_KEY on the server and pass it to clients that ingest properties.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := service.GenerateAPIKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}
