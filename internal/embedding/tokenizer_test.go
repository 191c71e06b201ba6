package embedding

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// metaspaceVocab is a SentencePiece-style vocabulary with <BOS>/<EOS> framing and <PAD> = 0.
const metaspaceVocab = `{
  "version": "1.0",
  "added_tokens": [
    {"id": 0, "content": "<PAD>", "special": true},
    {"id": 1, "content": "<UNK>", "special": true},
    {"id": 2, "content": "<BOS>", "special": true},
    {"id": 3, "content": "<EOS>", "special": true}
  ],
  "normalizer": {"type": "Sequence", "normalizers": [{"type": "NFKC"}, {"type": "Lowercase"}]},
  "pre_tokenizer": {"type": "Metaspace", "replacement": "▁", "prepend_scheme": "always", "split": true},
  "post_processor": {
    "type": "TemplateProcessing",
    "single": [
      {"SpecialToken": {"id": "<BOS>", "type_id": 0}},
      {"Sequence": {"id": "A", "type_id": 0}},
      {"SpecialToken": {"id": "<EOS>", "type_id": 0}}
    ],
    "pair": [],
    "special_tokens": {
      "<BOS>": {"id": "<BOS>", "ids": [2], "tokens": ["<BOS>"]},
      "<EOS>": {"id": "<EOS>", "ids": [3], "tokens": ["<EOS>"]}
    }
  },
  "model": {
    "type": "BPE",
    "unk_token": "<UNK>",
    "vocab": {
      "<PAD>": 0, "<UNK>": 1, "<BOS>": 2, "<EOS>": 3,
      "▁": 4, "r": 5, "e": 6, "d": 7, "s": 8,
      "▁r": 9, "ed": 10, "▁red": 11, "▁d": 12, "re": 13, "ss": 14, "▁dre": 15, "▁dress": 16
    },
    "merges": ["▁ r", "e d", "▁r ed", "▁ d", "r e", "s s", "▁d re", "▁dre ss"]
  }
}`

// clipStyleVocab uses an end-of-word suffix, array-form merges and Roberta-style framing.
const clipStyleVocab = `{
  "added_tokens": [
    {"id": 6, "content": "<|startoftext|>", "special": true},
    {"id": 7, "content": "<|endoftext|>", "special": true}
  ],
  "normalizer": {"type": "Lowercase"},
  "pre_tokenizer": {"type": "WhitespaceSplit"},
  "post_processor": {"type": "RobertaProcessing", "sep": ["<|endoftext|>", 7], "cls": ["<|startoftext|>", 6]},
  "model": {
    "type": "BPE",
    "end_of_word_suffix": "</w>",
    "vocab": {"r": 0, "e": 1, "d": 2, "red</w>": 3, "re": 4, "d</w>": 5, "<|startoftext|>": 6, "<|endoftext|>": 7},
    "merges": [["r", "e"], ["re", "d</w>"]]
  }
}`

func mustParseTokenizer(t *testing.T, content string) *BPETokenizer {
	t.Helper()
	tok, err := ParseBPETokenizer([]byte(content))
	if err != nil {
		t.Fatalf("ParseBPETokenizer: %v", err)
	}
	return tok
}

func TestBPETokenizer_PinnedIDs(t *testing.T) {
	tok := mustParseTokenizer(t, metaspaceVocab)

	ids, mask, types := tok.Tokenize("Red Dress", 8)
	wantIDs := []int64{2, 11, 16, 3, 0, 0, 0, 0}
	wantMask := []int64{1, 1, 1, 1, 0, 0, 0, 0}
	if !reflect.DeepEqual(ids, wantIDs) {
		t.Errorf("ids = %v, want %v", ids, wantIDs)
	}
	if !reflect.DeepEqual(mask, wantMask) {
		t.Errorf("mask = %v, want %v", mask, wantMask)
	}
	if !reflect.DeepEqual(types, make([]int64, 8)) {
		t.Errorf("token types = %v, want zeros", types)
	}
}

func TestBPETokenizer_Encode(t *testing.T) {
	tok := mustParseTokenizer(t, metaspaceVocab)
	tests := []struct {
		text string
		want []int64
	}{
		{"red", []int64{2, 11, 3}},
		{"dress red", []int64{2, 16, 11, 3}},
		{"  red   dress ", []int64{2, 4, 11, 4, 4, 16, 4, 3}},
		{"red x", []int64{2, 11, 4, 1, 3}},
		{"", []int64{2, 3}},
		{"ＲＥＤ", []int64{2, 11, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := tok.Encode(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Encode(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestBPETokenizer_TruncationKeepsEOS(t *testing.T) {
	tok := mustParseTokenizer(t, metaspaceVocab)
	ids, mask, _ := tok.Tokenize("red dress red dress", 4)
	if want := []int64{2, 11, 16, 3}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	for i, m := range mask {
		if m != 1 {
			t.Errorf("mask[%d] = %d, want 1", i, m)
		}
	}
}

func TestBPETokenizer_EndOfWordSuffix(t *testing.T) {
	tok := mustParseTokenizer(t, clipStyleVocab)
	ids, mask, _ := tok.Tokenize("RED red", 6)
	if want := []int64{6, 3, 3, 7, 0, 0}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	if want := []int64{1, 1, 1, 1, 0, 0}; !reflect.DeepEqual(mask, want) {
		t.Errorf("mask = %v, want %v", mask, want)
	}
	// No unk token: unknown symbols are dropped.
	if got, want := tok.Encode("red qq"), []int64{6, 3, 7}; !reflect.DeepEqual(got, want) {
		t.Errorf("Encode = %v, want %v", got, want)
	}
}

func TestBPETokenizer_PaddingSection(t *testing.T) {
	content := strings.Replace(clipStyleVocab, `"normalizer"`, `"padding": {"pad_id": 7, "pad_token": "<|endoftext|>"}, "normalizer"`, 1)
	tok := mustParseTokenizer(t, content)
	ids, _, _ := tok.Tokenize("red", 5)
	if want := []int64{6, 3, 7, 7, 7}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestParseBPETokenizer_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{`},
		{"wordpiece model", `{"model": {"type": "WordPiece", "vocab": {"a": 0}}}`},
		{"empty vocab", `{"model": {"type": "BPE", "vocab": {}}}`},
		{"byte level pre-tokenizer", strings.Replace(clipStyleVocab, `{"type": "WhitespaceSplit"}`, `{"type": "ByteLevel"}`, 1)},
		{"unknown normalizer", strings.Replace(clipStyleVocab, `{"type": "Lowercase"}`, `{"type": "Precompiled"}`, 1)},
		{"malformed merge", strings.Replace(metaspaceVocab, `"▁ r"`, `"▁r"`, 1)},
		{"missing unk", strings.Replace(metaspaceVocab, `"unk_token": "<UNK>"`, `"unk_token": "<MISSING>"`, 1)},
		{"template token without ids", strings.Replace(metaspaceVocab, `"<EOS>": {"id": "<EOS>", "ids": [3], "tokens": ["<EOS>"]}`, `"<X>": {"id": "<X>", "ids": [3], "tokens": ["<X>"]}`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseBPETokenizer([]byte(tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadBPETokenizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	if err := os.WriteFile(path, []byte(metaspaceVocab), 0600); err != nil {
		t.Fatal(err)
	}
	tok, err := LoadBPETokenizer(path)
	if err != nil {
		t.Fatalf("LoadBPETokenizer: %v", err)
	}
	if tok.VocabSize() != 17 {
		t.Errorf("VocabSize = %d, want 17", tok.VocabSize())
	}

	if _, err := LoadBPETokenizer(""); !errors.Is(err, ErrNoTokenizer) {
		t.Errorf("empty path: err = %v, want ErrNoTokenizer", err)
	}
	if _, err := LoadBPETokenizer(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file: expected error")
	}
}

func TestSplitBefore(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"▁red▁dress", []string{"▁red", "▁dress"}},
		{"▁▁x", []string{"▁", "▁x"}},
		{"ab▁c", []string{"ab", "▁c"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := splitBefore(tt.in, "▁"); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitBefore(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitWordsAndPunct(t *testing.T) {
	got := splitWordsAndPunct("платье, red-dress!! 42")
	want := []string{"платье", ",", "red", "-", "dress", "!!", "42"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewONNXEmbedder_RequiresTokenizer(t *testing.T) {
	_, err := NewONNXEmbedder(ONNXConfig{ModelPath: "model.onnx", Dimensions: 4})
	if !errors.Is(err, ErrNoTokenizer) {
		t.Errorf("err = %v, want ErrNoTokenizer", err)
	}
}
