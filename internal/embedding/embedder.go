// Package embedding provides the text encoder that projects queries into the item
// embedding space: an ONNX Runtime CLIP text tower, a deterministic mock, an LRU
// cache and a guard that bounds concurrency and latency.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Provider names accepted by embedding.provider.
const (
	ProviderONNX = "onnx"
	ProviderMock = "mock"
)

// ONNXConfig configures NewONNXEmbedder. TokenizerPath is required: it names the
// tokenizer.json exported with the model.
type ONNXConfig struct {
	ModelPath     string
	TokenizerPath string
	Dimensions    int
	MaxTokens     int
	CacheSize     int
	// InputNames lists the model inputs in order. "attention_mask" and
	// "token_type_ids" are fed from the tokenizer; any other name gets input ids.
	InputNames []string
	OutputName string
	// Normalize scales each output to unit L2 norm. Leave off when the stored
	// item vectors were not normalized, or distances stop being comparable.
	Normalize bool
}

func (c ONNXConfig) withDefaults() ONNXConfig {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 77
	}
	if len(c.InputNames) == 0 {
		c.InputNames = []string{"input_ids", "attention_mask"}
	}
	if c.OutputName == "" {
		c.OutputName = "output"
	}
	return c
}

func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}
