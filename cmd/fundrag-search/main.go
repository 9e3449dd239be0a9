// Command fundrag-search loads a previously built index (see
// fundrag-build) and runs the Search and Explain-prompt operations of
// SPEC_FULL.md §6 against it from the command line.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fundscope/retrieval/config"
	"github.com/fundscope/retrieval/embedtext"
	"github.com/fundscope/retrieval/engine"
)

func main() {
	var (
		indexDir   = flag.String("index", "./fundrag-index", "directory holding a build's artifacts")
		query      = flag.String("query", "", "natural-language query")
		k          = flag.Int("k", 10, "number of results")
		explain    = flag.Bool("explain", false, "include the per-candidate explanation record")
		prompt     = flag.Bool("prompt", false, "build the RAG advisor prompt instead of a ranked list")
		provider   = flag.String("embedder", "local", "embedding provider: local|openai")
		configPath = flag.String("config", "", "optional fundrag.json config path")
	)
	flag.Parse()

	if *query == "" {
		log.Fatal("fundrag-search: -query is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fundrag-search: load config: %v", err)
	}

	embedProvider, err := embedtext.Open(*provider, map[string]interface{}{
		"api_key": os.Getenv("OPENAI_API_KEY"),
	})
	if err != nil {
		log.Fatalf("fundrag-search: open embedding provider: %v", err)
	}

	eng := engine.New(cfg, embedtext.NewEmbedder(embedProvider), nil)

	ctx := context.Background()
	if _, err := eng.LoadGeneration(ctx, *indexDir); err != nil {
		log.Fatalf("fundrag-search: load index: %v", err)
	}

	if *prompt {
		text, _, err := eng.ExplainPrompt(ctx, *query)
		if err != nil {
			log.Fatalf("fundrag-search: explain-prompt: %v", err)
		}
		fmt.Println(text)
		return
	}

	results, err := eng.Search(ctx, engine.SearchRequest{Query: *query, K: *k, Explain: *explain})
	if err != nil {
		log.Fatalf("fundrag-search: search: %v", err)
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Fatalf("fundrag-search: marshal results: %v", err)
	}
	fmt.Println(string(out))
}
