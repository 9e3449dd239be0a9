// Command fundrag-build performs the offline index build of SPEC_FULL.md
// §2/§6: ingest a CSV or JSON fund corpus, build the lexical and dense
// indices, and persist the generation's artifacts plus its manifest.
package main

import (
	"bytes"
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fundscope/retrieval/config"
	"github.com/fundscope/retrieval/corpus"
	"github.com/fundscope/retrieval/embedtext"
	"github.com/fundscope/retrieval/engine"
	"github.com/fundscope/retrieval/ingest"
	"github.com/fundscope/retrieval/manifest"
)

func main() {
	var (
		corpusPath = flag.String("corpus", "", "path to the fund corpus (CSV or JSON)")
		outDir     = flag.String("out", "./fundrag-index", "directory to write the build artifacts to")
		provider   = flag.String("embedder", "local", "embedding provider: local|openai")
		model      = flag.String("model", "", "embedding model name (provider-specific)")
		configPath = flag.String("config", "", "optional fundrag.json config path")
	)
	flag.Parse()

	if *corpusPath == "" {
		log.Fatal("fundrag-build: -corpus is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fundrag-build: load config: %v", err)
	}

	raw, err := os.ReadFile(*corpusPath)
	if err != nil {
		log.Fatalf("fundrag-build: read corpus: %v", err)
	}

	funds, err := parseCorpus(*corpusPath, raw)
	if err != nil {
		log.Fatalf("fundrag-build: parse corpus: %v", err)
	}
	log.Printf("fundrag-build: parsed %d funds from %s", len(funds), *corpusPath)

	providerConfig := map[string]interface{}{}
	if *model != "" {
		providerConfig["model"] = *model
	}
	if *provider == "openai" {
		providerConfig["api_key"] = os.Getenv("OPENAI_API_KEY")
	}
	embedProvider, err := embedtext.Open(*provider, providerConfig)
	if err != nil {
		log.Fatalf("fundrag-build: open embedding provider: %v", err)
	}
	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = embedProvider.Dimension()
	}

	eng := engine.New(cfg, embedtext.NewEmbedder(embedProvider), nil)

	ctx := context.Background()
	if _, err := eng.Build(ctx, funds); err != nil {
		log.Fatalf("fundrag-build: build generation: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("fundrag-build: create output dir: %v", err)
	}
	checksum := manifest.ChecksumCorpus(raw)
	if err := eng.Save(*outDir, embedProvider.ModelIdentity(), cfg.EmbeddingDim, checksum); err != nil {
		log.Fatalf("fundrag-build: save artifacts: %v", err)
	}

	log.Printf("fundrag-build: wrote index for %d funds to %s", len(funds), filepath.Clean(*outDir))
}

func parseCorpus(path string, raw []byte) ([]*corpus.FundRecord, error) {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return ingest.ParseJSON(raw)
	}
	return ingest.ParseCSV(bytes.NewReader(raw))
}
