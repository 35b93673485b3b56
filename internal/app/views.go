package app

import (
	"context"
	"fmt"

	"skincare_reviews/internal/domain"
)

// Column names shown by the dashboard tables.
const (
	ColTotalReviews    = "Total_Reviews"
	ColAvgRating       = "Avg_Rating"
	ColAverageRating   = "Average_Rating"
	ColUniqueReviewers = "Unique_Reviewers"
	ColMinPrice        = "Min_Price"
	ColReviews         = "Reviews"
)

const (
	DefaultTopN = 5
	MaxTopN     = 10

	// products with fewer reviews never count as "highest rated"
	MinReviewsForTopRated = 5
)

// BrandExplorerSorts are the sort options offered by the brand explorer.
var BrandExplorerSorts = []string{ColTotalReviews, ColAverageRating, ColUniqueReviewers}

func intPtr(n int) *int { return &n }

func productMetrics() []domain.Aggregation {
	return []domain.Aggregation{
		{Name: ColTotalReviews, Op: domain.AggCount},
		{Name: ColAverageRating, Field: domain.FieldRating, Op: domain.AggMean},
		{Name: ColUniqueReviewers, Field: domain.FieldUserName, Op: domain.AggNUnique},
	}
}

func brandCategory(brand, category string) []domain.Predicate {
	return []domain.Predicate{
		domain.In(domain.FieldBrand, brand),
		domain.In(domain.FieldCategory, category),
	}
}

// Years lists the years with at least one dated review.
func (s *QueryService) Years(ctx context.Context) ([]string, error) {
	return s.Distinct(ctx, domain.FieldYear)
}

// CategoriesForYear lists the categories reviewed in year, sorted.
func (s *QueryService) CategoriesForYear(ctx context.Context, year int) ([]string, error) {
	res, err := s.Query(ctx, domain.Query{
		Filters:   []domain.Predicate{domain.Eq(domain.FieldYear, float64(year))},
		GroupKeys: []domain.Field{domain.FieldCategory},
		Sort:      []domain.SortKey{{Column: string(domain.FieldCategory)}},
	})
	if err != nil {
		return nil, err
	}
	return pluckStrings(res, string(domain.FieldCategory)), nil
}

// TopProducts ranks the products of one category in one year by review count.
// n is clamped to [1, MaxTopN]; zero selects DefaultTopN.
func (s *QueryService) TopProducts(ctx context.Context, year int, category string, n int) (domain.Result, error) {
	switch {
	case n == 0:
		n = DefaultTopN
	case n < 1:
		n = 1
	case n > MaxTopN:
		n = MaxTopN
	}
	return s.Query(ctx, domain.Query{
		Filters: []domain.Predicate{
			domain.Eq(domain.FieldYear, float64(year)),
			domain.In(domain.FieldCategory, category),
		},
		GroupKeys: []domain.Field{domain.FieldProduct, domain.FieldBrand},
		Aggregations: []domain.Aggregation{
			{Name: ColTotalReviews, Op: domain.AggCount},
			{Name: ColAvgRating, Field: domain.FieldRating, Op: domain.AggMean},
		},
		Sort:  []domain.SortKey{{Column: ColTotalReviews, Descending: true}},
		Limit: intPtr(n),
	})
}

// BrandExplorer summarises every (brand, product, category) matching the
// multiselects. Empty selections mean "all".
func (s *QueryService) BrandExplorer(ctx context.Context, brands, categories []string, sortBy string) (domain.Result, error) {
	if sortBy == "" {
		sortBy = ColTotalReviews
	}
	valid := false
	for _, c := range BrandExplorerSorts {
		valid = valid || c == sortBy
	}
	if !valid {
		return domain.Result{}, fmt.Errorf("%w: sort must be one of %v", domain.ErrInvalidQuery, BrandExplorerSorts)
	}
	return s.Query(ctx, domain.Query{
		Filters: []domain.Predicate{
			domain.In(domain.FieldBrand, brands...),
			domain.In(domain.FieldCategory, categories...),
		},
		GroupKeys:    []domain.Field{domain.FieldBrand, domain.FieldProduct, domain.FieldCategory},
		Aggregations: productMetrics(),
		Sort:         []domain.SortKey{{Column: sortBy, Descending: true}},
	})
}

func (s *QueryService) ProductReviews(ctx context.Context, brand, category string) (domain.Result, error) {
	return s.Query(ctx, domain.Query{
		Filters: brandCategory(brand, category),
		Columns: []domain.Field{
			domain.FieldProduct, domain.FieldRating, domain.FieldSkinCondAge, domain.FieldReview, domain.FieldPostDate,
		},
	})
}

func (s *QueryService) ProductSummary(ctx context.Context, brand, category string) (domain.Result, error) {
	return s.Query(ctx, domain.Query{
		Filters:      brandCategory(brand, category),
		GroupKeys:    []domain.Field{domain.FieldProduct},
		Aggregations: productMetrics(),
		Sort:         []domain.SortKey{{Column: ColTotalReviews, Descending: true}},
	})
}

type ProductStat struct {
	Product       string   `json:"product"`
	Reviews       int64    `json:"reviews"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}

type Favorites struct {
	MostReviewed *ProductStat `json:"most_reviewed,omitempty"`
	HighestRated *ProductStat `json:"highest_rated,omitempty"` // nil when no product has enough reviews
	Matched      int          `json:"matched"`
}

// Favorites picks the most reviewed product and the best rated product among
// those with at least MinReviewsForTopRated reviews.
func (s *QueryService) Favorites(ctx context.Context, brand, category string) (Favorites, error) {
	res, err := s.Query(ctx, domain.Query{
		Filters:   brandCategory(brand, category),
		GroupKeys: []domain.Field{domain.FieldProduct},
		Aggregations: []domain.Aggregation{
			{Name: ColTotalReviews, Op: domain.AggCount},
			{Name: ColAverageRating, Field: domain.FieldRating, Op: domain.AggMean},
		},
	})
	if err != nil {
		return Favorites{}, err
	}
	fav := Favorites{Matched: res.Matched}
	if res.Empty() {
		return fav, nil
	}

	byCount := Sort(res, domain.SortKey{Column: ColTotalReviews, Descending: true})
	fav.MostReviewed = productStat(byCount.Rows[0])

	eligible := domain.Result{Columns: res.Columns}
	for _, row := range res.Rows {
		if n, _ := toFloat(row[ColTotalReviews]); n >= MinReviewsForTopRated {
			eligible.Rows = append(eligible.Rows, row)
		}
	}
	if len(eligible.Rows) > 0 {
		byRating := Sort(eligible, domain.SortKey{Column: ColAverageRating, Descending: true})
		fav.HighestRated = productStat(byRating.Rows[0])
	}
	return fav, nil
}

func productStat(row domain.Row) *ProductStat {
	p := &ProductStat{}
	p.Product, _ = row[string(domain.FieldProduct)].(string)
	if n, ok := toFloat(row[ColTotalReviews]); ok {
		p.Reviews = int64(n)
	}
	if avg, ok := toFloat(row[ColAverageRating]); ok && row[ColAverageRating] != nil {
		p.AverageRating = &avg
	}
	return p
}

// RatingDistribution counts reviews per rating value for one product.
func (s *QueryService) RatingDistribution(ctx context.Context, brand, category, product string) (domain.Result, error) {
	return s.Query(ctx, domain.Query{
		Filters:      append(brandCategory(brand, category), domain.In(domain.FieldProduct, product)),
		GroupKeys:    []domain.Field{domain.FieldRating},
		Aggregations: []domain.Aggregation{{Name: ColReviews, Op: domain.AggCount}},
		Sort:         []domain.SortKey{{Column: string(domain.FieldRating)}},
	})
}

// BestProducts ranks products by average rating, cheapest first on ties.
func (s *QueryService) BestProducts(ctx context.Context, filters []domain.Predicate, n int) (domain.Result, error) {
	q := domain.Query{
		Filters:   filters,
		GroupKeys: []domain.Field{domain.FieldProduct, domain.FieldBrand},
		Aggregations: []domain.Aggregation{
			{Name: ColAverageRating, Field: domain.FieldRating, Op: domain.AggMean},
			{Name: ColMinPrice, Field: domain.FieldPrice, Op: domain.AggMin},
			{Name: ColTotalReviews, Op: domain.AggCount},
		},
		Sort: []domain.SortKey{
			{Column: ColAverageRating, Descending: true},
			{Column: ColMinPrice},
		},
	}
	if n > 0 {
		q.Limit = intPtr(n)
	}
	return s.Query(ctx, q)
}

// ReviewTexts returns the raw review texts that feed the word cloud.
func (s *QueryService) ReviewTexts(ctx context.Context, brand, category string) ([]string, error) {
	res, err := s.Query(ctx, domain.Query{
		Filters: brandCategory(brand, category),
		Columns: []domain.Field{domain.FieldReview},
	})
	if err != nil {
		return nil, err
	}
	return pluckStrings(res, string(domain.FieldReview)), nil
}

func pluckStrings(res domain.Result, col string) []string {
	out := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		if v := row[col]; v != nil {
			out = append(out, formatValue(v))
		}
	}
	return out
}
