package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/propertybot/internal/cli"
	"github.com/cloo-solutions/propertybot/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "propertybot",
		Short: "Propertybot CLI - chat with the property assistant",
		Long: `Propertybot CLI talks to a running propertybotd: chat with the assistant,
search listings and ingest new properties.

Environment variables:
  PROPERTYBOT_API_URL   API base URL (default: http://localhost:8080)
  PROPERTYBOT_API_KEY   Admin API key, only needed by "add"`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.ChatCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.AddCmd())
	rootCmd.AddCommand(client.ConfigCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
