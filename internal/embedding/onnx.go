//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/osusume/pkg/utils"
)

// ONNXEmbedder runs the CLIP text tower with ONNX Runtime. It requires CGO and the onnxruntime shared library.
// A single session with pre-allocated tensors is shared; mu serializes Run.
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	dimensions int
	maxTokens  int
	normalize  bool
	cache      *EmbeddingCache
	tokenizer  Tokenizer
	// Pre-allocated tensors for Run(); we update input data and read output.
	inputs       []*ort.Tensor[int64]
	inputKinds   []inputKind
	outputTensor *ort.Tensor[float32]
	mu           sync.Mutex
}

type inputKind int

const (
	inputIDs inputKind = iota
	inputAttentionMask
	inputTokenTypeIDs
)

func kindOf(name string) inputKind {
	switch name {
	case "attention_mask":
		return inputAttentionMask
	case "token_type_ids":
		return inputTokenTypeIDs
	default:
		return inputIDs
	}
}

// NewONNXEmbedder creates an ONNX embedder. InitializeEnvironment is called if not already done.
func NewONNXEmbedder(cfg ONNXConfig) (*ONNXEmbedder, error) {
	cfg = cfg.withDefaults()
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	tokenizer, err := LoadBPETokenizer(cfg.TokenizerPath)
	if err != nil {
		return nil, err
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	e := &ONNXEmbedder{
		dimensions: cfg.Dimensions,
		maxTokens:  cfg.MaxTokens,
		normalize:  cfg.Normalize,
		cache:      NewEmbeddingCache(cfg.CacheSize),
		tokenizer:  tokenizer,
	}

	shape := ort.NewShape(1, int64(cfg.MaxTokens))
	inputs := make([]ort.ArbitraryTensor, 0, len(cfg.InputNames))
	for _, name := range cfg.InputNames {
		t, err := ort.NewEmptyTensor[int64](shape)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to create %s tensor: %w", name, err)
		}
		e.inputs = append(e.inputs, t)
		e.inputKinds = append(e.inputKinds, kindOf(name))
		inputs = append(inputs, t)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.Dimensions)))
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	e.outputTensor = outputTensor

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		cfg.InputNames,
		[]string{cfg.OutputName},
		inputs,
		[]ort.ArbitraryTensor{outputTensor},
		nil,
	)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to create ONNX session for %s: %w", cfg.ModelPath, err)
	}
	e.session = session
	return e, nil
}

// Embed returns the embedding for text, using cache when available.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := e.cache.Get(text); ok {
		return cached, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	for i, t := range e.inputs {
		switch e.inputKinds[i] {
		case inputAttentionMask:
			copy(t.GetData(), mask)
		case inputTokenTypeIDs:
			copy(t.GetData(), types)
		default:
			copy(t.GetData(), ids)
		}
	}

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := e.outputTensor.GetData()
	embedding := make([]float32, e.dimensions)
	copy(embedding, outputData[:e.dimensions])

	if e.normalize {
		utils.NormalizeL2(embedding)
	}
	e.cache.Set(text, embedding)
	return embedding, nil
}

// EmbedBatch calls Embed for each text.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and tensors.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	for _, t := range e.inputs {
		_ = t.Destroy()
	}
	e.inputs = nil
	if e.outputTensor != nil {
		_ = e.outputTensor.Destroy()
		e.outputTensor = nil
	}
	return err
}
