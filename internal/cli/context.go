package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docqa/internal/usecase"
)

var (
	contextQuery  string
	contextBudget int
	contextOutput string
	contextTopK   int
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Export packed context for a query",
	Long: `Search and pack the most relevant passages into a token budget, with
citations, as JSON. Useful for feeding another tool or model by hand.

Examples:
  docqa context -q "how the warranty works"
  docqa context -q "error codes" -b 2000 -o context.json`,
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().StringVarP(&contextQuery, "query", "q", "", "search query (required)")
	contextCmd.Flags().IntVarP(&contextBudget, "budget", "b", 0, "token budget (default from config)")
	contextCmd.Flags().StringVarP(&contextOutput, "output", "o", "", "output file (default: stdout)")
	contextCmd.Flags().IntVarP(&contextTopK, "top-k", "k", 0, "candidate pool size (default from config)")
	contextCmd.MarkFlagRequired("query")
}

func runContext(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	app, err := usecase.BuildApp(cfg, GetStoreDir())
	if err != nil {
		return err
	}
	defer app.Close()

	topK := cfg.Retrieve.TopK
	if contextTopK > 0 {
		topK = contextTopK
	}

	budget := cfg.Retrieve.MaxContextTokens
	if contextBudget > 0 {
		budget = contextBudget
	}

	scored, err := app.Search.SearchScored(contextQuery, topK)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}
	if len(scored) == 0 {
		fmt.Fprintln(os.Stderr, "No relevant content found.")
		return nil
	}

	packed, err := app.Pack.Pack(contextQuery, scored, budget)
	if err != nil {
		return fmt.Errorf("packing failed: %w", err)
	}

	output, err := json.MarshalIndent(packed, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	if contextOutput != "" {
		if err := os.WriteFile(contextOutput, output, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Context packed to: %s\n", contextOutput)
		fmt.Printf("  Snippets: %d\n", len(packed.Snippets))
		fmt.Printf("  Tokens:   %d / %d\n", packed.UsedTokens, packed.BudgetTokens)
	} else {
		fmt.Println(string(output))
	}

	return nil
}
