package main

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/ragcontext/server/service/collection"
)

var (
	inspectSamples int
	inspectJSON    bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the collection and a sample of its records",
	Args:  cobra.NoArgs,
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().IntVarP(&inspectSamples, "samples", "n", collection.DefaultSamples, "number of sample records")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, p)
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := collection.Describe(ctx, a.store, inspectSamples)
	if err != nil {
		return err
	}
	if inspectJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal collection info")
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Collection: %s\n", info.Name)
	cmd.Printf("Metric: %s\n", info.Metric)
	cmd.Printf("Dimensions: %d\n", info.Dimensions)
	cmd.Printf("Total items: %d\n", info.Count)
	if len(info.Samples) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("Sample of stored documents:")
	for i, s := range info.Samples {
		cmd.Printf("\n  [%d] %s\n", i+1, s.RecordID)
		cmd.Printf("      source_id=%s page_index=%d\n", s.SourceID, s.PageIndex)
		cmd.Printf("      %s\n", s.Preview)
	}
	return nil
}
