package embedtext

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

func init() {
	Register("openai", newOpenAIProvider)
}

const (
	defaultEmbeddingAPI = "https://api.openai.com/v1/embeddings"
	defaultModelName    = "text-embedding-3-small"
	// defaultRequestsPerMinute mirrors the conservative per-key default
	// tier OpenAI grants new embedding-API accounts.
	defaultRequestsPerMinute = 3000
)

// openAIDimensions mirrors teilomillet-raggo/rag/providers/openai.go's
// GetDimension switch: each model name has a fixed, known output width.
var openAIDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// openAIProvider calls OpenAI's embeddings endpoint directly over HTTP,
// grounded on teilomillet-raggo/rag/providers/openai.go's OpenAIEmbedder.
// fundrag embeds fund descriptions at index-build time and residual
// queries at search time, never end-user documents, so there is no
// chunking/batching layer here beyond the teacher's single-text call.
type openAIProvider struct {
	apiKey    string
	client    *http.Client
	apiURL    string
	modelName string
	dim       int
	limiter   *rate.Limiter
}

func newOpenAIProvider(config map[string]interface{}) (Provider, error) {
	apiKey, _ := config["api_key"].(string)
	if apiKey == "" {
		return nil, errors.New("embedtext: openai provider requires api_key")
	}

	rpm := defaultRequestsPerMinute
	if v, ok := config["requests_per_minute"].(int); ok && v > 0 {
		rpm = v
	}

	p := &openAIProvider{
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 30 * time.Second},
		apiURL:    defaultEmbeddingAPI,
		modelName: defaultModelName,
		limiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60), rpm),
	}
	if model, ok := config["model"].(string); ok && model != "" {
		p.modelName = model
	}
	if apiURL, ok := config["api_url"].(string); ok && apiURL != "" {
		p.apiURL = apiURL
	}
	if timeout, ok := config["timeout"].(time.Duration); ok && timeout > 0 {
		p.client.Timeout = timeout
	}
	if dim, ok := openAIDimensions[p.modelName]; ok {
		p.dim = dim
	} else if dim, ok := config["dimension"].(int); ok {
		p.dim = dim
	}
	return p, nil
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *openAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "embedding rate limiter")
	}

	reqBody, err := json.Marshal(embeddingRequest{Input: text, Model: p.modelName})
	if err != nil {
		return nil, errors.Wrap(err, "marshal embedding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "build embedding request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "embedding request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read embedding response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("embedding API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "unmarshal embedding response")
	}
	if len(parsed.Data) == 0 {
		return nil, errors.New("embedding response carried no data")
	}
	return parsed.Data[0].Embedding, nil
}

func (p *openAIProvider) Dimension() int { return p.dim }

func (p *openAIProvider) ModelIdentity() string { return "openai:" + p.modelName }
