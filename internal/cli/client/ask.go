package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ChatRequest represents one chat turn sent over HTTP.
type ChatRequest struct {
	Message string `json:"message"`
}

// MediaFile is an image or document attached to a listing.
type MediaFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Listing is a property referenced by an answer, as known to the catalog.
type Listing struct {
	ID          string      `json:"id"`
	SerialID    string      `json:"serialId"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Media       []MediaFile `json:"media"`
}

// Turn is the payload of a delivered chat turn. Error is set instead when
// the turn failed.
type Turn struct {
	Message    string    `json:"message"`
	Properties []Listing `json:"properties"`
	TurnID     string    `json:"turnId"`
	Error      string    `json:"error,omitempty"`
}

var (
	botColor     = color.New(color.FgCyan)
	listingColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed)
	promptColor  = color.New(color.FgYellow, color.Bold)
)

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runAsk(cmd.OutOrStdout(), api, strings.Join(args, " "), outputJSON)
		},
	}
}

func runAsk(out io.Writer, api *APIClient, question string, outputJSON bool) error {
	var turn Turn
	if err := api.Post("/chat", ChatRequest{Message: question}, &turn); err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(turn, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	printTurn(out, &turn)
	return nil
}

func printTurn(out io.Writer, turn *Turn) {
	if turn.Error != "" {
		errorColor.Fprintf(out, "error: %s\n", turn.Error)
		return
	}

	botColor.Fprintln(out, turn.Message)
	for _, listing := range turn.Properties {
		listingColor.Fprintf(out, "  %s", listing.SerialID)
		fmt.Fprintf(out, "  %s\n", listing.Title)
		for _, media := range listing.Media {
			fmt.Fprintf(out, "      %s\n", media.URL)
		}
	}
}
