package commands

import (
	"github.com/spf13/cobra"
)

var (
	serverURL string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "docpivot",
	Short: "docpivot - document conversion client",
	Long: `docpivot is a client for the docpivot conversion API. It submits
documents for conversion between text, markdown, html, pdf and docx,
checks job status, and follows the server's live event stream.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8000", "docpivot API base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
