package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docqa/internal/usecase"
)

var (
	askTopK        int
	askShowSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about your documents",
	Long: `Answer a question from the indexed documents. The question is first
rewritten into a search query, matching passages are retrieved across all
collections, and the answer is generated from them.

Examples:
  docqa ask "How do I descale the machine?"
  docqa ask --show-sources "What does error E4 mean?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages to ground the answer in")
	askCmd.Flags().BoolVar(&askShowSources, "show-sources", false, "list the passages the answer came from")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	cfg := GetConfig()
	if askTopK > 0 {
		cfg.Retrieve.TopK = askTopK
	}

	app, err := usecase.BuildApp(cfg, GetStoreDir())
	if err != nil {
		return err
	}
	defer app.Close()

	pipeline, err := app.Pipeline()
	if err != nil {
		return err
	}

	state, err := pipeline.Run(question)
	if err != nil {
		return err
	}

	fmt.Println(state.Answer)

	if askShowSources {
		fmt.Printf("\nSources:\n")
		seen := make(map[string]bool)
		n := 0
		for _, chunk := range state.Context {
			location := chunk.FileName
			if location == "" {
				location = chunk.Source
			}
			if chunk.Page > 0 {
				location = fmt.Sprintf("%s p%d", location, chunk.Page)
			}
			if seen[location] {
				continue
			}
			seen[location] = true
			n++
			fmt.Printf("  [%d] %s\n", n, location)
		}
		if n == 0 {
			fmt.Println("  (none)")
		}
	}

	return nil
}
