package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/models"
)

func sampleResponse() *models.RecommendationResponse {
	return &models.RecommendationResponse{
		Indexes:   []string{"A1", "B2", "C3"},
		Distances: []float64{0.1, 0.25, 0.5},
		Query:     "A0",
	}
}

func TestWriteRecommendations_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, sampleResponse(), nil, OutputJSON); err != nil {
		t.Fatalf("WriteRecommendations(json): %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if _, ok := decoded["query"]; ok {
		t.Error("query must not appear in JSON output")
	}
	indexes, ok := decoded["indexes"].([]interface{})
	if !ok || len(indexes) != 3 || indexes[0] != "A1" {
		t.Errorf("indexes: %v", decoded["indexes"])
	}
}

func TestWriteRecommendations_JSON_noDistances(t *testing.T) {
	var buf bytes.Buffer
	resp := &models.RecommendationResponse{Indexes: []string{"A1"}}
	if err := WriteRecommendations(&buf, resp, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "distances") {
		t.Errorf("distances should be omitted: %s", buf.String())
	}
}

func TestWriteRecommendations_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, sampleResponse(), nil, OutputCompact); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "A1\nB2\nC3\n" {
		t.Errorf("compact output = %q", got)
	}
}

func TestWriteRecommendations_text(t *testing.T) {
	products, err := catalog.NewProductCatalog([]models.Product{
		{SKU: "B2", Name: "Wool coat", Brand: "Northwind", Price: 129.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, sampleResponse(), products, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, sub := range []string{`3 recommendations for "A0"`, " 1. A1", "distance 0.1000", " 2. B2", "Wool coat | Northwind | 129.50", " 3. C3"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteRecommendations_textWithoutQuery(t *testing.T) {
	var buf bytes.Buffer
	resp := &models.RecommendationResponse{Indexes: []string{"A1"}}
	if err := WriteRecommendations(&buf, resp, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "1 recommendations\n") || strings.Contains(out, "distance") {
		t.Errorf("unexpected text output:\n%s", out)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"compact", OutputCompact, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
