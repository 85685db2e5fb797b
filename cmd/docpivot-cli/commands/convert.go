package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docpivot/docpivot/pkg/client"
)

var (
	convertFrom   string
	convertTo     string
	convertInput  string
	convertOutput string
	convertNoWait bool
)

// binaryFormats need base64 framing on the JSON transport.
var binaryFormats = map[string]bool{
	"pdf":  true,
	"docx": true,
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a document between formats",
	Long: `Submit a document for conversion. Input is read from --input or
stdin; the converted document is written to --output or stdout.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertFrom, "from", "f", "", "source format (required)")
	convertCmd.Flags().StringVarP(&convertTo, "to", "t", "", "target format (required)")
	convertCmd.Flags().StringVarP(&convertInput, "input", "i", "", "input file (default stdin)")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "output file (default stdout)")
	convertCmd.Flags().BoolVar(&convertNoWait, "no-wait", false, "submit and print the job id instead of waiting")
	convertCmd.MarkFlagRequired("from")
	convertCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var payload []byte
	var err error
	if convertInput != "" {
		payload, err = os.ReadFile(convertInput)
	} else {
		payload, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	req := client.ConvertRequest{
		SourceFormat: convertFrom,
		TargetFormat: convertTo,
		Content:      string(payload),
	}
	if binaryFormats[convertFrom] {
		req.Content = base64.StdEncoding.EncodeToString(payload)
		req.Encoding = "base64"
	}

	api := client.New(serverURL)
	job, err := api.Submit(ctx, req, !convertNoWait)
	if err != nil {
		return err
	}

	if convertNoWait {
		fmt.Println(job.JobID)
		return nil
	}

	if job.Status == "failed" {
		if job.Error != nil {
			return fmt.Errorf("conversion failed (%s): %s", job.Error.Kind, job.Error.Message)
		}
		return fmt.Errorf("conversion failed")
	}

	result, err := api.Result(ctx, job.JobID)
	if err != nil {
		return fmt.Errorf("fetch result: %w", err)
	}

	if convertOutput != "" {
		if err := os.WriteFile(convertOutput, result, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", len(result), convertOutput)
		}
		return nil
	}

	_, err = os.Stdout.Write(result)
	return err
}
