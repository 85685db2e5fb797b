package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docpivot/docpivot/pkg/client"
)

var watchJobID string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the server's live job event stream",
	Long: `Connect to the server's event stream and print job lifecycle
events as they happen. Use --job to follow a single job; the command
exits when that job reaches a terminal state.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchJobID, "job", "j", "", "only show events for this job id")
	rootCmd.AddCommand(watchCmd)
}

// watchEvent mirrors the server's event wire format.
type watchEvent struct {
	Kind      string         `json:"event"`
	JobID     string         `json:"job_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl-C closes the stream cleanly.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	api := client.New(serverURL)
	stream, err := api.Events(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	fmt.Fprintln(os.Stderr, "Watching events (Ctrl-C to stop)...")

	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			if verbose && strings.HasPrefix(line, ":") {
				fmt.Fprintln(os.Stderr, line)
			}
			continue
		}

		var ev watchEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}

		if watchJobID != "" && ev.JobID != watchJobID {
			continue
		}
		if ev.Kind == "heartbeat" && !verbose {
			continue
		}

		printEvent(ev)

		if watchJobID != "" && (ev.Kind == "job_completed" || ev.Kind == "job_failed") {
			return nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}
	return nil
}

func printEvent(ev watchEvent) {
	ts := ev.Timestamp.Local().Format("15:04:05")
	switch {
	case ev.Kind == "job_failed":
		kind, _ := ev.Data["kind"].(string)
		message, _ := ev.Data["message"].(string)
		fmt.Printf("%s  %-13s %s  %s: %s\n", ts, ev.Kind, ev.JobID, kind, message)
	case ev.JobID != "":
		fmt.Printf("%s  %-13s %s\n", ts, ev.Kind, ev.JobID)
	default:
		fmt.Printf("%s  %s\n", ts, ev.Kind)
	}
}
