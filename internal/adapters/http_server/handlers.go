// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"skincare_reviews/internal/adapters/observability"
	"skincare_reviews/internal/app"
	"skincare_reviews/internal/domain"
)

// maxQueryBody caps POST /v1/query payloads.
const maxQueryBody = 64 << 10

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/dataset", h.getDataset)
		r.Post("/query", h.query)
		r.Get("/fields/{field}/values", h.fieldValues)
		r.Get("/export.csv", h.export)

		r.Route("/views", func(r chi.Router) {
			r.Get("/years", h.years)
			r.Get("/years/{year}/categories", h.yearCategories)
			r.Get("/top-products", h.topProducts)
			r.Get("/brands", h.brandExplorer)
			r.Get("/products", h.productSummary)
			r.Get("/products/reviews", h.productReviews)
			r.Get("/products/favorites", h.favorites)
			r.Get("/products/rating-distribution", h.ratingDistribution)
			r.Get("/products/texts", h.reviewTexts)
			r.Get("/products/best", h.bestProducts)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain and validation errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	var verr validator.ValidationErrors
	switch {
	case errors.As(err, &verr):
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, domain.ErrUnknownField), errors.Is(err, domain.ErrInvalidQuery):
		writeProblem(w, http.StatusBadRequest, "Invalid query", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "encode response")
		return
	}
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) writeResult(w http.ResponseWriter, r *http.Request, view string, start time.Time, res domain.Result, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, domain.ErrUnknownField):
		observability.ObserveQuery(view, "invalid", time.Since(start))
	case err != nil:
		observability.ObserveQuery(view, "error", time.Since(start))
	case res.Empty():
		observability.ObserveQuery(view, "empty", time.Since(start))
	default:
		observability.ObserveQuery(view, "ok", time.Since(start))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	rows := res.Rows
	if rows == nil {
		rows = []domain.Row{}
	}
	writeJSON(w, r, resultResponse{
		DatasetID: h.Q.Dataset().ID(),
		Columns:   res.Columns,
		Rows:      rows,
		Matched:   res.Matched,
		Empty:     res.Empty(),
	})
}

func (h *Handlers) getDataset(w http.ResponseWriter, r *http.Request) {
	ds := h.Q.Dataset()
	writeJSON(w, r, datasetResponse{
		ID:       ds.ID(),
		Source:   ds.Source(),
		Records:  ds.Len(),
		Dropped:  ds.Dropped(),
		LoadedAt: ds.LoadedAt().Format(time.RFC3339),
	})
}

func (h *Handlers) query(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req queryRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		observability.ObserveQuery("query", "invalid", time.Since(start))
		writeError(w, err)
		return
	}
	res, err := h.Q.Query(r.Context(), req.toDomain())
	h.writeResult(w, r, "query", start, res, err)
}

func (h *Handlers) fieldValues(w http.ResponseWriter, r *http.Request) {
	f := domain.Field(chi.URLParam(r, "field"))
	vals, err := h.Q.Distinct(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, valuesResponse{Field: string(f), Values: nonNil(vals)})
}

func (h *Handlers) export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="skincare_reviews.csv"`)
	if err := h.Q.Dataset().ExportAll(w); err != nil {
		// headers are gone by now; the client sees a truncated file
		log.Error().Err(err).Msg("export failed")
	}
}

func (h *Handlers) years(w http.ResponseWriter, r *http.Request) {
	vals, err := h.Q.Years(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, valuesResponse{Field: string(domain.FieldYear), Values: nonNil(vals)})
}

func (h *Handlers) yearCategories(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid year", "year must be an integer")
		return
	}
	vals, err := h.Q.CategoriesForYear(r.Context(), year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, valuesResponse{Field: string(domain.FieldCategory), Values: nonNil(vals)})
}

func (h *Handlers) topProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	qs := r.URL.Query()
	year, err := strconv.Atoi(strings.TrimSpace(qs.Get("year")))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid year", "year must be an integer")
		return
	}
	category := strings.TrimSpace(qs.Get("category"))
	if category == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid category", "category is required")
		return
	}
	n := app.DefaultTopN
	if s := qs.Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > app.MaxTopN {
			writeProblem(w, http.StatusBadRequest, "Invalid n", "n must be an integer between 1 and 10")
			return
		}
		n = v
	}
	res, err := h.Q.TopProducts(r.Context(), year, category, n)
	h.writeResult(w, r, "top_products", start, res, err)
}

func (h *Handlers) brandExplorer(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	qs := r.URL.Query()
	res, err := h.Q.BrandExplorer(r.Context(), multi(qs["brand"]), multi(qs["category"]), qs.Get("sort"))
	h.writeResult(w, r, "brand_explorer", start, res, err)
}

// brandCategory reads the single-select brand and category every product view needs.
func brandCategory(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	brand := strings.TrimSpace(r.URL.Query().Get("brand"))
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if brand == "" || category == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid selection", "brand and category are required")
		return "", "", false
	}
	return brand, category, true
}

func (h *Handlers) productSummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	brand, category, ok := brandCategory(w, r)
	if !ok {
		return
	}
	res, err := h.Q.ProductSummary(r.Context(), brand, category)
	h.writeResult(w, r, "product_summary", start, res, err)
}

func (h *Handlers) productReviews(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	brand, category, ok := brandCategory(w, r)
	if !ok {
		return
	}
	res, err := h.Q.ProductReviews(r.Context(), brand, category)
	h.writeResult(w, r, "product_reviews", start, res, err)
}

func (h *Handlers) favorites(w http.ResponseWriter, r *http.Request) {
	brand, category, ok := brandCategory(w, r)
	if !ok {
		return
	}
	fav, err := h.Q.Favorites(r.Context(), brand, category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, fav)
}

func (h *Handlers) ratingDistribution(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	brand, category, ok := brandCategory(w, r)
	if !ok {
		return
	}
	product := strings.TrimSpace(r.URL.Query().Get("product"))
	if product == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid product", "product is required")
		return
	}
	res, err := h.Q.RatingDistribution(r.Context(), brand, category, product)
	h.writeResult(w, r, "rating_distribution", start, res, err)
}

func (h *Handlers) reviewTexts(w http.ResponseWriter, r *http.Request) {
	brand, category, ok := brandCategory(w, r)
	if !ok {
		return
	}
	texts, err := h.Q.ReviewTexts(r.Context(), brand, category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, valuesResponse{Field: string(domain.FieldReview), Values: nonNil(texts)})
}

func (h *Handlers) bestProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	qs := r.URL.Query()
	filters := []domain.Predicate{
		domain.In(domain.FieldBrand, multi(qs["brand"])...),
		domain.In(domain.FieldCategory, multi(qs["category"])...),
	}
	for _, rg := range []struct {
		field    domain.Field
		min, max string
	}{
		{domain.FieldPrice, "min_price", "max_price"},
		{domain.FieldRating, "min_rating", "max_rating"},
	} {
		lo, okLo := parseFloatParam(qs.Get(rg.min))
		hi, okHi := parseFloatParam(qs.Get(rg.max))
		if !okLo || !okHi {
			writeProblem(w, http.StatusBadRequest, "Invalid range", rg.min+"/"+rg.max+" must be numbers")
			return
		}
		if lo != nil || hi != nil {
			filters = append(filters, domain.Range(rg.field, lo, hi))
		}
	}
	n, _ := parsePositiveInt(qs.Get("n"), app.MaxTopN)
	res, err := h.Q.BestProducts(r.Context(), filters, n)
	h.writeResult(w, r, "best_products", start, res, err)
}

// multi trims repeated query values and drops blanks; brand names may
// contain commas, so values are never split.
func multi(vals []string) []string {
	var out []string
	for _, v := range vals {
		if p := strings.TrimSpace(v); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseFloatParam returns nil for an empty value; ok is false when malformed.
func parseFloatParam(s string) (*float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return &f, true
}

// parsePositiveInt parses positive integers with fallback.
func parsePositiveInt(value string, fallback int) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback, false
	}
	return parsed, true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
