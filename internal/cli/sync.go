package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docqa/internal/adapter/extract"
	"docqa/internal/adapter/fs"
	"docqa/internal/usecase"
)

var syncWatch bool

var syncCmd = &cobra.Command{
	Use:   "sync <collection> <dir>",
	Short: "Ingest a directory of documents into a collection",
	Long: `Extract, chunk, embed and store every matching document under the
directory. Chunks already present in the collection are skipped, so
re-running over unchanged input is cheap.

Examples:
  docqa sync manuals ./docs          # Ingest ./docs into "manuals"
  docqa sync manuals ./docs --watch  # Keep re-syncing on file changes`,
	Args: cobra.ExactArgs(2),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncWatch, "watch", false, "stay running and re-sync when files change")
}

func runSync(cmd *cobra.Command, args []string) error {
	collection := args[0]
	dir, err := filepath.Abs(args[1])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dir)
	}

	cfg := GetConfig()

	tools := extract.Tools{
		Pdftotext: cfg.Extract.PdftotextPath,
		Pdfinfo:   cfg.Extract.PdfinfoPath,
		Pdftoppm:  cfg.Extract.PdftoppmPath,
		Tesseract: cfg.Extract.TesseractPath,
	}
	if err := extract.CheckAvailable(tools, cfg.Extract.OCREnabled); err != nil {
		fmt.Fprintln(os.Stderr, extract.InstallInstructions())
		return err
	}

	app, err := usecase.BuildApp(cfg, GetStoreDir())
	if err != nil {
		return err
	}
	defer app.Close()

	if err := syncOnce(app, collection, dir); err != nil {
		return err
	}

	if !syncWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	watcher, err := fs.NewWatcher(cfg.Ingest.Patterns, 2*time.Second)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	events, err := watcher.Watch(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	fmt.Printf("\nWatching %s for changes, Ctrl-C to stop...\n", dir)
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case <-events:
			if err := syncOnce(app, collection, dir); err != nil {
				fmt.Fprintf(os.Stderr, "sync failed: %v\n", err)
			}
		}
	}
}

func syncOnce(app *usecase.App, collection, dir string) error {
	fmt.Printf("Scanning %s...\n", dir)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time
	var initialized bool

	progress := func(done, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()

		if !initialized {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Syncing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
			initialized = true
		}

		bar.Set(done)

		if done > 0 {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			remaining := total - done
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Syncing[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	result, err := app.Sync.Sync(collection, dir, progress)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("\nSync complete for collection %q:\n", result.Collection)
	fmt.Printf("  Files scanned:  %d\n", result.FilesScanned)
	if result.FilesFailed > 0 {
		fmt.Printf("  Files failed:   %d\n", result.FilesFailed)
	}
	fmt.Printf("  Chunks added:   %d\n", result.ChunksAdded)
	fmt.Printf("  Chunks skipped: %d (already stored)\n", result.ChunksSkipped)

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
