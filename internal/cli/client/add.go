package client

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// CreatePropertyRequest represents the single property ingestion request.
type CreatePropertyRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	SingleLine  string `json:"single_line,omitempty"`
}

type createPropertyResponse struct {
	Imported bool `json:"imported"`
}

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var req CreatePropertyRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Ingest a single property",
		Long:  "Stores one property and indexes it for search and chat. Requires the admin API key.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runAdd(cmd.OutOrStdout(), api, req, outputJSON)
		},
	}

	cmd.Flags().StringVar(&req.ID, "id", "", "Property UUID")
	cmd.Flags().StringVar(&req.Title, "title", "", "Property title")
	cmd.Flags().StringVar(&req.Description, "description", "", "Free-text description")
	cmd.Flags().StringVar(&req.SingleLine, "location", "", "One-line location")
	cmd.MarkFlagRequired("id")
	cmd.MarkFlagRequired("title")

	return cmd
}

func runAdd(out io.Writer, api *APIClient, req CreatePropertyRequest, outputJSON bool) error {
	if err := api.RequireAPIKey(); err != nil {
		return err
	}

	var resp dataEnvelope[createPropertyResponse]
	if err := api.Post("/properties", req, &resp); err != nil {
		return fmt.Errorf("add failed: %w", err)
	}

	if outputJSON {
		output, _ := json.Marshal(resp.Data)
		fmt.Fprintln(out, string(output))
		return nil
	}

	fmt.Fprintf(out, "Imported property %s\n", req.ID)
	return nil
}
