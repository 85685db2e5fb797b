package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/docpivot/docpivot/pkg/client"
)

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of a conversion job",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	api := client.New(serverURL)
	job, err := api.Status(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Job:      %s\n", job.JobID)
	fmt.Printf("Status:   %s\n", job.Status)
	fmt.Printf("Progress: %.0f%%\n", job.Progress*100)
	fmt.Printf("From:     %s\n", job.SourceFormat)
	fmt.Printf("To:       %s\n", job.TargetFormat)
	if job.Error != nil {
		fmt.Printf("Error:    %s (%s)\n", job.Error.Message, job.Error.Kind)
	}
	return nil
}
