package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/osusume/internal/assets"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/storage"
	"go.uber.org/zap"
)

// handleGetRecommendation serves POST /get_recommendation?product_index=<sku>.
func (s *Server) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	sku := r.URL.Query().Get("product_index")
	if sku == "" {
		s.respondError(w, http.StatusBadRequest, "product_index is required")
		return
	}
	s.similar(w, r, sku, false)
}

// handleGetSearch serves POST /get_search?user_text_input=<text>.
func (s *Server) handleGetSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("user_text_input") {
		s.respondError(w, http.StatusBadRequest, "user_text_input is required")
		return
	}
	s.text(w, r, q.Get("user_text_input"), false)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	distances, _ := strconv.ParseBool(r.URL.Query().Get("distances"))
	s.similar(w, r, chi.URLParam(r, "sku"), distances)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.TextQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.text(w, r, query.Query, query.Distances)
}

func (s *Server) similar(w http.ResponseWriter, r *http.Request, sku string, distances bool) {
	s.logger.Debug("similar request", zap.String("sku", sku))
	recs, err := s.service.SimilarNeighbors(r.Context(), sku)
	if err != nil {
		s.respondServiceError(w, err, sku)
		return
	}
	s.respondJSON(w, http.StatusOK, toResponse(recs, distances))
}

func (s *Server) text(w http.ResponseWriter, r *http.Request, text string, distances bool) {
	s.logger.Debug("text request", zap.Int("query_len", len(text)))
	recs, err := s.service.TextNeighbors(r.Context(), text)
	if err != nil {
		s.respondServiceError(w, err, "")
		return
	}
	s.respondJSON(w, http.StatusOK, toResponse(recs, distances))
}

func toResponse(recs []recommend.Recommendation, distances bool) models.RecommendationResponse {
	resp := models.RecommendationResponse{Indexes: recommend.SKUs(recs)}
	if distances {
		resp.Distances = make([]float64, len(recs))
		for i, rec := range recs {
			resp.Distances[i] = rec.Distance
		}
	}
	return resp
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	if s.products == nil {
		s.respondError(w, http.StatusNotFound, "product catalog not loaded")
		return
	}
	product, ok := s.products.Get(sku)
	if !ok {
		s.respondError(w, http.StatusNotFound, "unknown product: "+sku)
		return
	}
	s.respondJSON(w, http.StatusOK, product)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	path, err := s.images.Resolve(sku)
	if err != nil {
		if errors.Is(err, assets.ErrNoResource) {
			s.respondError(w, http.StatusNotFound, "no image for product: "+sku)
			return
		}
		s.logger.Error("image resolution failed", zap.String("sku", sku), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	index := s.service.Index()
	indexInfo := map[string]interface{}{
		"type":       index.Type(),
		"size":       index.Size(),
		"dimensions": index.Dimensions(),
		"metric":     index.Metric(),
	}
	if b, ok := index.(interface{ BuildID() string }); ok {
		indexInfo["build_id"] = b.BuildID()
	}

	status := "ok"
	if s.Stale() {
		status = "stale"
	}
	resp := map[string]interface{}{
		"status":         status,
		"stale":          s.Stale(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"index":          indexInfo,
		"embeddings":     s.service.Table().Len(),
		"products":       s.products.Len(),
		"output_count":   s.service.OutputCount(),
	}

	a := s.config.Artifacts
	resp["config"] = map[string]interface{}{
		"index_type":           a.IndexType,
		"index_path":           a.IndexPath,
		"embeddings_path":      a.EmbeddingsPath,
		"products_path":        a.ProductsPath,
		"embedding_provider":   s.config.Embedding.Provider,
		"embedding_dimensions": s.config.Embedding.Dimensions,
		"image_dirs":           len(s.config.Assets.ImageDirs),
	}
	diskBytes, err := storage.DiskUsageBytes(a.IndexPath, a.EmbeddingsPath, a.ProductsPath)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondServiceError maps retrieval errors to status codes. Server-side
// failures are already logged by the service and get a generic body.
func (s *Server) respondServiceError(w http.ResponseWriter, err error, sku string) {
	switch {
	case errors.Is(err, recommend.ErrUnknownProduct):
		s.respondError(w, http.StatusNotFound, "unknown product: "+sku)
	case errors.Is(err, recommend.ErrEmptyQuery):
		s.respondError(w, http.StatusBadRequest, "query text must not be empty")
	case errors.Is(err, recommend.ErrNoEncoder):
		s.respondError(w, http.StatusNotImplemented, "text search not enabled")
	default:
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
