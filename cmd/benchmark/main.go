package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"docqa/config"
	"docqa/internal/domain"
	"docqa/internal/usecase"
)

func main() {
	storeDir := flag.String("store", config.DefaultStoreDir(), "Store directory")
	query := flag.String("q", "", "Query to test")
	collection := flag.String("collection", "", "Restrict to one collection (default: all)")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (model connection, vector store)")
		fmt.Println("  2. Semantic similarity (query vs results)")
		fmt.Println("  3. Synonym handling (finds related concepts)")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*storeDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	app, err := usecase.BuildApp(cfg, *storeDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Semantic search not available: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	stats, err := app.Store.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading store: %v\n", err)
		os.Exit(1)
	}
	if stats.Chunks == 0 {
		fmt.Fprintln(os.Stderr, "No chunks indexed - run 'docqa sync' first")
		os.Exit(1)
	}

	fmt.Println("SEMANTIC SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Chunks indexed: %d across %d collections\n", stats.Chunks, stats.Collections)
	fmt.Printf("Model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", app.Embedder.Dimension())
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	queryVec, err := app.Embedder.Embed([]string{*query})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Query embedded: %d dimensions\n\n", len(queryVec[0]))

	collections := []string{*collection}
	if *collection == "" {
		infos, err := app.Store.ListCollections()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing collections: %v\n", err)
			os.Exit(1)
		}
		collections = collections[:0]
		for _, info := range infos {
			collections = append(collections, info.Name)
		}
	}

	var results []domain.ScoredChunk
	for _, name := range collections {
		hits, err := app.Store.Query(name, queryVec[0], *topK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error in %s: %v\n", name, err)
			continue
		}
		for _, h := range hits {
			results = append(results, domain.ScoredChunk{Chunk: h.Chunk, Score: h.Score})
		}
	}
	// Merge across collections: cosine distance, lower is better.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})
	if len(results) > *topK {
		results = results[:*topK]
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		os.Exit(0)
	}

	fmt.Printf("Top %d semantic matches:\n\n", len(results))

	totalScore := 0.0
	for i, r := range results {
		preview := r.Chunk.Text
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}
		preview = strings.ReplaceAll(preview, "\n", " ")

		similarity := 1 - r.Score
		totalScore += similarity

		rating := "LOW"
		if similarity > 0.7 {
			rating = "HIGH"
		} else if similarity > 0.5 {
			rating = "GOOD"
		} else if similarity > 0.3 {
			rating = "OK"
		}

		location := r.Chunk.FileName
		if r.Chunk.Page > 0 {
			location = fmt.Sprintf("%s p%d", location, r.Chunk.Page)
		}
		fmt.Printf("%d. [%s %.3f] %s\n", i+1, rating, similarity, location)
		fmt.Printf("   %s\n\n", preview)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", 1-results[0].Score)

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - semantic search working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need better embeddings or re-syncing")
	}
}
