package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docqa/internal/usecase"
)

var (
	searchQuery   string
	searchTopK    int
	searchJSON    bool
	searchDiverse bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search indexed documents",
	Long: `Search every collection for chunks matching the query. This is the
retrieval stage of 'docqa ask' on its own, for checking what the answer
would be grounded in.

Examples:
  docqa search -q "descaling procedure"
  docqa search -q "error codes" --top-k 10 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().BoolVar(&searchDiverse, "diverse", false, "rerank for diversity across sources")
	searchCmd.MarkFlagRequired("query")
}

type searchResult struct {
	Source   string  `json:"source"`
	FileName string  `json:"file_name"`
	Page     int     `json:"page,omitempty"`
	Section  string  `json:"section"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if searchDiverse && cfg.Retrieve.MMRLambda == 0 {
		cfg.Retrieve.MMRLambda = 0.7
	}

	app, err := usecase.BuildApp(cfg, GetStoreDir())
	if err != nil {
		return err
	}
	defer app.Close()

	topK := cfg.Retrieve.TopK
	if searchTopK > 0 {
		topK = searchTopK
	}

	scored, err := app.Search.SearchScored(searchQuery, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]searchResult, 0, len(scored))
	for _, sc := range scored {
		results = append(results, searchResult{
			Source:   sc.Chunk.Source,
			FileName: sc.Chunk.FileName,
			Page:     sc.Chunk.Page,
			Section:  string(sc.Chunk.Section),
			Score:    sc.Score,
			Text:     sc.Chunk.Text,
		})
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), searchQuery)
	for i, r := range results {
		location := r.FileName
		if location == "" {
			location = r.Source
		}
		if r.Page > 0 {
			location = fmt.Sprintf("%s p%d", location, r.Page)
		}
		fmt.Printf("--- [%d] %s (score: %.3f) ---\n", i+1, location, r.Score)
		text := r.Text
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}

	return nil
}
