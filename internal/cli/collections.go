package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/adapter/store"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List stored collections",
	Long: `List every collection in the store with its chunk count and the time
of its last sync.`,
	RunE: runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, args []string) error {
	dbPath := config.IndexDBPath(GetStoreDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No collections yet. Run 'docqa sync' first.")
		return nil
	}

	// Listing never touches vectors, so the dimension does not matter.
	st, err := store.NewBoltStore(dbPath, 0)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	infos, err := st.ListCollections()
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println("No collections yet. Run 'docqa sync' first.")
		return nil
	}

	fmt.Printf("%-28s %8s  %s\n", "COLLECTION", "CHUNKS", "LAST SYNC")
	for _, info := range infos {
		fmt.Printf("%-28s %8d  %s\n", info.Name, info.Chunks, info.UpdatedAt.Format("2006-01-02 15:04"))
	}

	stats, err := st.Stats()
	if err != nil {
		return fmt.Errorf("failed to read store stats: %w", err)
	}
	fmt.Printf("\n%d chunks from %d files, roughly %d tokens\n", stats.Chunks, stats.Sources, stats.EstTokens)

	return nil
}
