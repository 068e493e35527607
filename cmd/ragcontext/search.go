package main

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/ragcontext/server/service/collection"
	"github.com/hrygo/ragcontext/store"
)

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the collection without generating an answer",
	Long: `Embeds the query and prints the most similar pages with their
similarity scores, nearest first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default: configured top-k)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchResult is the printed form of a match.
type searchResult struct {
	RecordID   string  `json:"record_id"`
	SourceID   string  `json:"source_id"`
	PageIndex  int     `json:"page_index"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
	Preview    string  `json:"preview"`
}

func runSearch(cmd *cobra.Command, args []string) error {
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
	if err := a.enableRetrieval(); err != nil {
		return err
	}

	matches, err := a.retriever.Retrieve(ctx, args[0], searchTopK)
	if err != nil {
		return errors.Wrap(err, "search failed")
	}
	results := toSearchResults(matches)

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal results")
		}
		cmd.Println(string(data))
		return nil
	}
	if len(results) == 0 {
		cmd.Println("No matching documents found.")
		return nil
	}
	for i, r := range results {
		cmd.Printf("\n%d. %s (similarity %.4f)\n", i+1, r.RecordID, r.Similarity)
		cmd.Printf("   source_id=%s page_index=%d\n", r.SourceID, r.PageIndex)
		cmd.Printf("   %s\n", r.Preview)
	}
	return nil
}

func toSearchResults(matches []*store.SimilarityMatch) []searchResult {
	results := make([]searchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, searchResult{
			RecordID:   m.RecordID,
			SourceID:   m.Metadata.SourceID,
			PageIndex:  m.Metadata.PageIndex,
			Distance:   m.Distance,
			Similarity: m.Similarity,
			Preview:    collection.Preview(m.Document, collection.MatchPreviewChars),
		})
	}
	return results
}
