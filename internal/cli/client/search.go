package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResult is one stored property returned by a search.
type SearchResult struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SingleLine  string `json:"single_line,omitempty"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search stored properties",
		Long:  "Finds the stored properties closest in meaning to the query, best match first.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runSearch(cmd.OutOrStdout(), api, strings.Join(args, " "), outputJSON)
		},
	}
}

func runSearch(out io.Writer, api *APIClient, query string, outputJSON bool) error {
	var resp dataEnvelope[[]SearchResult]
	if err := api.Post("/search", SearchRequest{Query: query}, &resp); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results := resp.Data

	if outputJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d results:\n\n", len(results))
	for i, result := range results {
		fmt.Fprintf(out, "%d. %s\n", i+1, result.Title)
		if result.Description != "" {
			description := result.Description
			if len(description) > 100 {
				description = description[:97] + "..."
			}
			fmt.Fprintf(out, "   %s\n", description)
		}
		if result.SingleLine != "" {
			fmt.Fprintf(out, "   Location: %s\n", result.SingleLine)
		}
		fmt.Fprintf(out, "   ID: %s\n", result.ID)
		if i < len(results)-1 {
			fmt.Fprintln(out, strings.Repeat("-", 40))
		}
	}

	return nil
}
