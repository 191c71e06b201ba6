package embedding

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer produces token IDs for transformer text encoders (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// ErrNoTokenizer is returned when a model encoder is configured without its tokenizer artifact.
var ErrNoTokenizer = errors.New("tokenizer artifact not configured")

const defaultMetaspace = "▁"

// BPETokenizer applies the byte-pair-encoding vocabulary exported with a text
// model as a HuggingFace tokenizer.json. Framing and padding ids are read from
// the same file, so query ids match the ones the item vectors were built with.
// Unsupported normalizers, pre-tokenizers or post-processors fail at load time.
type BPETokenizer struct {
	vocab  map[string]int64
	ranks  map[mergePair]int
	unk    int64
	hasUnk bool
	// suffix marks the last symbol of a word (CLIP's "</w>"); prefix marks
	// every symbol but the first.
	suffix    string
	prefix    string
	normalize []func(string) string
	pre       []preTokenizer
	bos       []int64
	eos       []int64
	pad       int64
}

type mergePair struct{ left, right string }

type preTokenizer func(pieces []string) []string

type tokenizerFile struct {
	AddedTokens   []addedToken   `json:"added_tokens"`
	Normalizer    *component     `json:"normalizer"`
	PreTokenizer  *component     `json:"pre_tokenizer"`
	PostProcessor *postProcessor `json:"post_processor"`
	Padding       *struct {
		PadID int64 `json:"pad_id"`
	} `json:"padding"`
	Model struct {
		Type                    string            `json:"type"`
		Vocab                   map[string]int64  `json:"vocab"`
		Merges                  []json.RawMessage `json:"merges"`
		UnkToken                *string           `json:"unk_token"`
		EndOfWordSuffix         *string           `json:"end_of_word_suffix"`
		ContinuingSubwordPrefix *string           `json:"continuing_subword_prefix"`
	} `json:"model"`
}

type addedToken struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

type component struct {
	Type           string      `json:"type"`
	Replacement    string      `json:"replacement"`
	PrependScheme  string      `json:"prepend_scheme"`
	AddPrefixSpace *bool       `json:"add_prefix_space"`
	Split          *bool       `json:"split"`
	Normalizers    []component `json:"normalizers"`
	PreTokenizers  []component `json:"pretokenizers"`
}

type postProcessor struct {
	Type          string                  `json:"type"`
	Single        []templatePiece         `json:"single"`
	SpecialTokens map[string]specialToken `json:"special_tokens"`
	Cls           []json.RawMessage       `json:"cls"`
	Sep           []json.RawMessage       `json:"sep"`
	Processors    []postProcessor         `json:"processors"`
}

type templatePiece struct {
	SpecialToken *struct {
		ID string `json:"id"`
	} `json:"SpecialToken"`
	Sequence *struct {
		ID string `json:"id"`
	} `json:"Sequence"`
}

type specialToken struct {
	IDs []int64 `json:"ids"`
}

// LoadBPETokenizer reads a tokenizer.json file. An empty path returns ErrNoTokenizer.
func LoadBPETokenizer(path string) (*BPETokenizer, error) {
	if path == "" {
		return nil, ErrNoTokenizer
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer: %w", err)
	}
	t, err := ParseBPETokenizer(data)
	if err != nil {
		return nil, fmt.Errorf("tokenizer %s: %w", path, err)
	}
	return t, nil
}

// ParseBPETokenizer builds a tokenizer from tokenizer.json content.
func ParseBPETokenizer(data []byte) (*BPETokenizer, error) {
	var f tokenizerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tokenizer: %w", err)
	}
	if f.Model.Type != "" && f.Model.Type != "BPE" {
		return nil, fmt.Errorf("unsupported model type %q, want BPE", f.Model.Type)
	}
	if len(f.Model.Vocab) == 0 {
		return nil, errors.New("empty vocabulary")
	}

	t := &BPETokenizer{
		vocab: f.Model.Vocab,
		ranks: make(map[mergePair]int, len(f.Model.Merges)),
	}
	for i, raw := range f.Model.Merges {
		p, err := parseMerge(raw)
		if err != nil {
			return nil, fmt.Errorf("merge %d: %w", i, err)
		}
		if _, dup := t.ranks[p]; !dup {
			t.ranks[p] = i
		}
	}
	if u := f.Model.UnkToken; u != nil && *u != "" {
		id, ok := t.lookup(*u, f.AddedTokens)
		if !ok {
			return nil, fmt.Errorf("unk token %q is not in the vocabulary", *u)
		}
		t.unk, t.hasUnk = id, true
	}
	if f.Model.EndOfWordSuffix != nil {
		t.suffix = *f.Model.EndOfWordSuffix
	}
	if f.Model.ContinuingSubwordPrefix != nil {
		t.prefix = *f.Model.ContinuingSubwordPrefix
	}

	if f.Normalizer != nil {
		if err := t.addNormalizer(*f.Normalizer); err != nil {
			return nil, err
		}
	}
	if f.PreTokenizer != nil {
		if err := t.addPreTokenizer(*f.PreTokenizer); err != nil {
			return nil, err
		}
	}
	if f.PostProcessor != nil {
		bos, eos, err := framing(*f.PostProcessor)
		if err != nil {
			return nil, err
		}
		t.bos, t.eos = bos, eos
	}
	t.pad = t.padID(f)
	return t, nil
}

func parseMerge(raw json.RawMessage) (mergePair, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		left, right, ok := strings.Cut(s, " ")
		if !ok || left == "" || right == "" {
			return mergePair{}, fmt.Errorf("malformed merge %q", s)
		}
		return mergePair{left, right}, nil
	}
	var pair []string
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return mergePair{}, fmt.Errorf("malformed merge %s", raw)
	}
	return mergePair{pair[0], pair[1]}, nil
}

func (t *BPETokenizer) lookup(token string, added []addedToken) (int64, bool) {
	if id, ok := t.vocab[token]; ok {
		return id, true
	}
	for _, a := range added {
		if a.Content == token {
			return a.ID, true
		}
	}
	return 0, false
}

// padID prefers the padding section, then a conventional pad token, then 0.
func (t *BPETokenizer) padID(f tokenizerFile) int64 {
	if f.Padding != nil {
		return f.Padding.PadID
	}
	for _, name := range []string{"<pad>", "<PAD>", "[PAD]"} {
		if id, ok := t.lookup(name, f.AddedTokens); ok {
			return id
		}
	}
	return 0
}

func (t *BPETokenizer) addNormalizer(c component) error {
	switch c.Type {
	case "Sequence":
		for _, n := range c.Normalizers {
			if err := t.addNormalizer(n); err != nil {
				return err
			}
		}
	case "Lowercase":
		t.normalize = append(t.normalize, strings.ToLower)
	case "Strip":
		t.normalize = append(t.normalize, strings.TrimSpace)
	case "NFC":
		t.normalize = append(t.normalize, norm.NFC.String)
	case "NFD":
		t.normalize = append(t.normalize, norm.NFD.String)
	case "NFKC":
		t.normalize = append(t.normalize, norm.NFKC.String)
	case "NFKD":
		t.normalize = append(t.normalize, norm.NFKD.String)
	default:
		return fmt.Errorf("unsupported normalizer %q", c.Type)
	}
	return nil
}

func (t *BPETokenizer) addPreTokenizer(c component) error {
	switch c.Type {
	case "Sequence":
		for _, p := range c.PreTokenizers {
			if err := t.addPreTokenizer(p); err != nil {
				return err
			}
		}
	case "WhitespaceSplit":
		t.pre = append(t.pre, eachPiece(strings.Fields))
	case "Whitespace":
		t.pre = append(t.pre, eachPiece(splitWordsAndPunct))
	case "Metaspace":
		t.pre = append(t.pre, metaspace(c))
	default:
		return fmt.Errorf("unsupported pre-tokenizer %q", c.Type)
	}
	return nil
}

func eachPiece(split func(string) []string) preTokenizer {
	return func(pieces []string) []string {
		var out []string
		for _, p := range pieces {
			out = append(out, split(p)...)
		}
		return out
	}
}

// splitWordsAndPunct splits into runs of word characters and runs of other
// non-space characters, dropping whitespace.
func splitWordsAndPunct(s string) []string {
	const (
		space = iota
		word
		punct
	)
	class := func(r rune) int {
		switch {
		case unicode.IsSpace(r):
			return space
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), r == '_':
			return word
		default:
			return punct
		}
	}
	var out []string
	start, prev := -1, space
	for i, r := range s {
		c := class(r)
		if c != prev && start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
		if c != space && start < 0 {
			start = i
		}
		prev = c
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// metaspace replaces spaces with the replacement rune and splits so that each
// piece starts with it, as SentencePiece-style vocabularies expect.
func metaspace(c component) preTokenizer {
	repl := c.Replacement
	if repl == "" {
		repl = defaultMetaspace
	}
	scheme := c.PrependScheme
	if scheme == "" {
		scheme = "always"
		if c.AddPrefixSpace != nil && !*c.AddPrefixSpace {
			scheme = "never"
		}
	}
	split := c.Split == nil || *c.Split

	return func(pieces []string) []string {
		var out []string
		for i, p := range pieces {
			s := strings.ReplaceAll(p, " ", repl)
			prepend := scheme == "always" || (scheme == "first" && i == 0)
			if prepend && s != "" && !strings.HasPrefix(s, repl) {
				s = repl + s
			}
			if !split {
				out = append(out, s)
				continue
			}
			out = append(out, splitBefore(s, repl)...)
		}
		return out
	}
}

// splitBefore cuts s before every occurrence of sep.
func splitBefore(s, sep string) []string {
	var out []string
	for s != "" {
		from := 0
		if strings.HasPrefix(s, sep) {
			from = len(sep)
		}
		i := strings.Index(s[from:], sep)
		if i < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:from+i])
		s = s[from+i:]
	}
	return out
}

func framing(p postProcessor) (bos, eos []int64, err error) {
	switch p.Type {
	case "TemplateProcessing":
		seenSequence := false
		for _, piece := range p.Single {
			switch {
			case piece.Sequence != nil:
				seenSequence = true
			case piece.SpecialToken != nil:
				st, ok := p.SpecialTokens[piece.SpecialToken.ID]
				if !ok || len(st.IDs) == 0 {
					return nil, nil, fmt.Errorf("template token %q has no ids", piece.SpecialToken.ID)
				}
				if seenSequence {
					eos = append(eos, st.IDs...)
				} else {
					bos = append(bos, st.IDs...)
				}
			}
		}
		return bos, eos, nil
	case "RobertaProcessing", "BertProcessing":
		cls, err := processorTokenID(p.Cls)
		if err != nil {
			return nil, nil, fmt.Errorf("%s cls: %w", p.Type, err)
		}
		sep, err := processorTokenID(p.Sep)
		if err != nil {
			return nil, nil, fmt.Errorf("%s sep: %w", p.Type, err)
		}
		return []int64{cls}, []int64{sep}, nil
	case "Sequence":
		for _, sub := range p.Processors {
			if sub.Type == "ByteLevel" {
				continue
			}
			return framing(sub)
		}
		return nil, nil, nil
	case "ByteLevel":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported post-processor %q", p.Type)
	}
}

// processorTokenID reads the id from a ["token", id] pair.
func processorTokenID(raw []json.RawMessage) (int64, error) {
	if len(raw) != 2 {
		return 0, errors.New("want [token, id]")
	}
	var id int64
	if err := json.Unmarshal(raw[1], &id); err != nil {
		return 0, fmt.Errorf("id: %w", err)
	}
	return id, nil
}

// Encode returns the framed token ids for text, without padding or truncation.
func (t *BPETokenizer) Encode(text string) []int64 {
	ids := make([]int64, 0, len(t.bos)+len(t.eos)+len(text))
	ids = append(ids, t.bos...)
	ids = append(ids, t.encodeBody(text)...)
	return append(ids, t.eos...)
}

// Tokenize frames the text ids with the vocabulary's start/end tokens, truncating
// the body so the end token always fits, and pads to maxTokens.
func (t *BPETokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = 77
	}
	body := t.encodeBody(text)
	budget := maxTokens - len(t.bos) - len(t.eos)
	if budget < 0 {
		budget = 0
	}
	if len(body) > budget {
		body = body[:budget]
	}
	ids := make([]int64, 0, maxTokens)
	ids = append(ids, t.bos...)
	ids = append(ids, body...)
	ids = append(ids, t.eos...)
	if len(ids) > maxTokens {
		ids = ids[:maxTokens]
	}

	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	for i := range inputIDs {
		if i < len(ids) {
			inputIDs[i] = ids[i]
			attentionMask[i] = 1
		} else {
			inputIDs[i] = t.pad
		}
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// VocabSize returns the number of vocabulary entries.
func (t *BPETokenizer) VocabSize() int { return len(t.vocab) }

func (t *BPETokenizer) encodeBody(text string) []int64 {
	for _, n := range t.normalize {
		text = n(text)
	}
	pieces := []string{text}
	for _, p := range t.pre {
		pieces = p(pieces)
	}
	var ids []int64
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		for _, sym := range t.merge(piece) {
			if id, ok := t.vocab[sym]; ok {
				ids = append(ids, id)
			} else if t.hasUnk {
				ids = append(ids, t.unk)
			}
		}
	}
	return ids
}

// merge applies the ranked merges to one pre-tokenized word, lowest rank first.
func (t *BPETokenizer) merge(word string) []string {
	runes := []rune(word)
	syms := make([]string, len(runes))
	for i, r := range runes {
		syms[i] = string(r)
		if i > 0 {
			syms[i] = t.prefix + syms[i]
		}
	}
	if len(syms) > 0 {
		syms[len(syms)-1] += t.suffix
	}
	for len(syms) > 1 {
		best, bestRank := -1, math.MaxInt
		for i := 0; i+1 < len(syms); i++ {
			if r, ok := t.ranks[mergePair{syms[i], syms[i+1]}]; ok && r < bestRank {
				best, bestRank = i, r
			}
		}
		if best < 0 {
			break
		}
		syms[best] += strings.TrimPrefix(syms[best+1], t.prefix)
		syms = append(syms[:best+1], syms[best+2:]...)
	}
	return syms
}
