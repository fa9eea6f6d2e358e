package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "history [store-id]",
		Short: "Show recent registrations",
		Long: `Show the most recent completed registrations of a venue. Without a
store id every venue is listed.

With --follow the command keeps the connection open and prints the list
again whenever a team finishes registering. Press Ctrl+C to disconnect.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeID := "DEFAULT"
			if len(args) == 1 {
				storeID = args[0]
			}
			path := "/api/v1/stores/" + url.PathEscape(storeID) + "/history"
			if limit > 0 {
				path += fmt.Sprintf("?limit=%d", limit)
			}

			if !follow {
				var result History
				if err := client.Get(path, &result); err != nil {
					return err
				}
				output(cmd).Print(result)
				return nil
			}

			return followHistory(cmd, storeID, strings.Replace(path, "/history", "/history/stream", 1))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of entries (default: server default)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream updates")

	return cmd
}

func followHistory(cmd *cobra.Command, storeID, path string) error {
	// Set up cancellation
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	resp, err := client.Stream(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	out := output(cmd)
	if cfg.Output != "json" {
		out.PrintMessage("Following history for " + storeID)
	}

	// Parse SSE stream
	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "event: ") {
			currentEvent = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		} else if line == "" {
			// End of event
			if currentEvent == "history" {
				var logs []LogEntry
				if err := json.Unmarshal([]byte(strings.Join(dataLines, "\n")), &logs); err != nil {
					return fmt.Errorf("bad history event: %w", err)
				}
				out.Print(History{StoreID: storeID, Logs: logs})
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil {
		// Context cancellation is expected
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("stream error: %w", err)
	}
	return nil
}
