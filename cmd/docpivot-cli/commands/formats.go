package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/docpivot/docpivot/pkg/client"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported formats and conversion targets",
	RunE:  runFormats,
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func runFormats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	api := client.New(serverURL)
	formats, err := api.Formats(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FORMAT\tDESCRIPTION\tCONVERTS TO")
	for _, f := range formats {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, f.Description, strings.Join(f.Targets, ", "))
	}
	return w.Flush()
}
