package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"skincare_reviews/internal/domain"
)

/********** column alias registry (single source of truth) **********/

var columnAliases = map[domain.Field][]string{
	domain.FieldProduct:     {"product", "product_name", "productname"},
	domain.FieldReview:      {"review", "review_text", "reviewtext", "text"},
	domain.FieldRating:      {"rating", "score"},
	domain.FieldBrand:       {"merk", "brand"},
	domain.FieldCategory:    {"category", "kategori"},
	domain.FieldPrice:       {"price", "harga"},
	domain.FieldUserName:    {"username", "user_name", "user"},
	domain.FieldPostDate:    {"postdate", "post_date", "date"},
	domain.FieldSkinCondAge: {"skincond_age", "skin_cond_age", "skincondage"},
}

// Header names written by ExportAll, matching the upstream dataset.
var exportHeader = map[domain.Field]string{
	domain.FieldProduct:     "Product",
	domain.FieldReview:      "Review",
	domain.FieldRating:      "Rating",
	domain.FieldBrand:       "Merk",
	domain.FieldCategory:    "Category",
	domain.FieldPrice:       "Price",
	domain.FieldUserName:    "UserName",
	domain.FieldPostDate:    "PostDate",
	domain.FieldSkinCondAge: "SkinCond_Age",
}

var mandatoryFields = []domain.Field{
	domain.FieldProduct, domain.FieldReview, domain.FieldRating, domain.FieldBrand, domain.FieldCategory,
}

// columnIndex maps each known field to its position in the raw header.
type columnIndex map[domain.Field]int

func resolveColumns(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		k := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := pos[k]; !dup {
			pos[k] = i
		}
	}
	idx := columnIndex{}
	for f, aliases := range columnAliases {
		for _, a := range aliases {
			if i, ok := pos[a]; ok {
				idx[f] = i
				break
			}
		}
	}
	var missing []string
	for _, f := range mandatoryFields {
		if _, ok := idx[f]; !ok {
			missing = append(missing, exportHeader[f])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func (c columnIndex) cell(rec []string, f domain.Field) string {
	i, ok := c[f]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

/********** cell parsers **********/

// parsePrice keeps only the digits ("Rp 150.000" -> 150000); no digits or
// an overflowing value -> nil.
func parsePrice(s string) *float64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return nil
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return nil
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// parseRating accepts "4.5" and "4,5"; empty, NaN and Inf are absent.
func parseRating(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsFunc(s, unicode.IsDigit) {
		return nil
	}
	// day-first dates ("31/12/2021") are retried with day and month swapped
	t, err := dateparse.ParseAny(s, dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil || t.Year() == 0 {
		return nil
	}
	return &t
}

/********** row mapper **********/

// mapReview builds a Review from one raw record. ok is false when any
// mandatory field is missing, in which case the record must be dropped.
func mapReview(idx columnIndex, rec []string) (domain.Review, bool) {
	r := domain.Review{
		Product:     idx.cell(rec, domain.FieldProduct),
		Brand:       idx.cell(rec, domain.FieldBrand),
		Category:    idx.cell(rec, domain.FieldCategory),
		ReviewText:  idx.cell(rec, domain.FieldReview),
		UserName:    idx.cell(rec, domain.FieldUserName),
		SkinCondAge: idx.cell(rec, domain.FieldSkinCondAge),
		Price:       parsePrice(idx.cell(rec, domain.FieldPrice)),
		PostDate:    parseDate(idx.cell(rec, domain.FieldPostDate)),
	}
	rating := parseRating(idx.cell(rec, domain.FieldRating))
	if rating == nil || r.Product == "" || r.ReviewText == "" || r.Brand == "" || r.Category == "" {
		return domain.Review{}, false
	}
	r.Rating = *rating
	if r.PostDate != nil {
		y := r.PostDate.Year()
		r.Year = &y
	}
	return r, true
}
