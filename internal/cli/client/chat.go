package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// ChatCmd creates the chat command.
func ChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant",
		Long:  "Opens a websocket conversation. Type a question per line; an empty line or Ctrl-D ends the chat.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			chatURL, err := api.ChatURL()
			if err != nil {
				return err
			}
			return runChat(chatURL, os.Stdin, cmd.OutOrStdout())
		},
	}
}

func runChat(chatURL string, in io.Reader, out io.Writer) error {
	conn, _, err := websocket.DefaultDialer.Dial(chatURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", chatURL, err)
	}
	defer conn.Close()

	greeting, err := readTurn(conn)
	if err != nil {
		return err
	}
	printTurn(out, greeting)

	scanner := bufio.NewScanner(in)
	for {
		promptColor.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(question)); err != nil {
			return fmt.Errorf("failed to send question: %w", err)
		}
		turn, err := readTurn(conn)
		if err != nil {
			return err
		}
		printTurn(out, turn)
	}

	fmt.Fprintln(out)
	return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func readTurn(conn *websocket.Conn) (*Turn, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("connection closed: %w", err)
	}
	var turn Turn
	if err := json.Unmarshal(data, &turn); err != nil {
		return nil, fmt.Errorf("unexpected frame: %w", err)
	}
	return &turn, nil
}
