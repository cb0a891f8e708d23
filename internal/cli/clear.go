package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"docqa/config"
	"docqa/internal/adapter/store"
	"docqa/internal/domain"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear [collection]",
	Short: "Delete a collection, or the whole store",
	Long: `Delete one collection's chunks and vectors, or with no argument the
entire store. The documents on disk are untouched.

Examples:
  docqa clear manuals        # Drop the "manuals" collection
  docqa clear --yes          # Drop everything, no prompt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
}

func runClear(cmd *cobra.Command, args []string) error {
	dbPath := config.IndexDBPath(GetStoreDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("Nothing to clear.")
		return nil
	}

	target := "the entire store"
	var collection string
	if len(args) > 0 {
		collection = domain.SanitizeCollectionName(args[0])
		if collection == "" {
			return fmt.Errorf("collection name %q is empty after sanitizing", args[0])
		}
		target = fmt.Sprintf("collection %q", collection)
	}

	if !clearYes {
		fmt.Printf("This deletes %s. Proceed? [y/N] ", target)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	st, err := store.NewBoltStore(dbPath, 0)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	if collection != "" {
		if err := st.ClearCollection(collection); err != nil {
			return fmt.Errorf("failed to clear %s: %w", collection, err)
		}
		fmt.Printf("Cleared collection %q.\n", collection)
		return nil
	}

	if err := st.Clear(); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	fmt.Println("Cleared the store.")
	return nil
}
