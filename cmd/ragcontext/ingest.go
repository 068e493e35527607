package main

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/ragcontext/server/runner/ingest"
)

var ingestJSON bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest the documents of a directory",
	Long: `Extracts every supported document of the directory page by page, embeds
the pages and writes them to the collection. Documents whose pages are all
present already are skipped. Defaults to the datasources directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	dir := p.Datasources
	if len(args) == 1 {
		dir = args[0]
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, p)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.enableRetrieval(); err != nil {
		return err
	}

	report, err := a.ingestRunner(ctx).Ingest(ctx, dir)
	if err != nil {
		return err
	}
	if ingestJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal report")
		}
		cmd.Println(string(data))
		return nil
	}
	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *ingest.Report) {
	for _, doc := range report.Documents {
		switch doc.Status {
		case ingest.StatusProcessed:
			cmd.Printf("  %-9s %s (%d records)\n", doc.Status, doc.SourceID, doc.Records)
		default:
			cmd.Printf("  %-9s %s: %s\n", doc.Status, doc.SourceID, doc.Reason)
		}
	}
	cmd.Printf("Processed: %d, skipped: %d, failed: %d\n", report.Processed, report.Skipped, report.Failed)
}
