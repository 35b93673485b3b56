package httpserver

import (
	"github.com/go-playground/validator/v10"

	"skincare_reviews/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type predicateDTO struct {
	Field  string   `json:"field" validate:"required"`
	Op     string   `json:"op" validate:"required,oneof=in range eq"`
	Values []string `json:"values"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Equals any      `json:"equals"`
}

type aggregationDTO struct {
	Name  string `json:"name" validate:"required,max=64"`
	Field string `json:"field"`
	Op    string `json:"op" validate:"required,oneof=count mean nunique min max"`
}

type sortDTO struct {
	Column     string `json:"column" validate:"required"`
	Descending bool   `json:"descending"`
}

type queryRequest struct {
	Filters      []predicateDTO   `json:"filters" validate:"max=32,dive"`
	GroupKeys    []string         `json:"group_keys" validate:"max=8,dive,required"`
	Aggregations []aggregationDTO `json:"aggregations" validate:"max=16,dive"`
	Columns      []string         `json:"columns" validate:"max=16,dive,required"`
	Sort         []sortDTO        `json:"sort" validate:"max=8,dive"`
	Limit        *int             `json:"limit" validate:"omitempty,max=100000"`
}

func (r queryRequest) toDomain() domain.Query {
	q := domain.Query{Limit: r.Limit}
	for _, p := range r.Filters {
		q.Filters = append(q.Filters, domain.Predicate{
			Field:  domain.Field(p.Field),
			Op:     domain.PredicateOp(p.Op),
			Values: p.Values,
			Min:    p.Min,
			Max:    p.Max,
			Equals: p.Equals,
		})
	}
	for _, k := range r.GroupKeys {
		q.GroupKeys = append(q.GroupKeys, domain.Field(k))
	}
	for _, a := range r.Aggregations {
		q.Aggregations = append(q.Aggregations, domain.Aggregation{Name: a.Name, Field: domain.Field(a.Field), Op: domain.AggOp(a.Op)})
	}
	for _, c := range r.Columns {
		q.Columns = append(q.Columns, domain.Field(c))
	}
	for _, s := range r.Sort {
		q.Sort = append(q.Sort, domain.SortKey{Column: s.Column, Descending: s.Descending})
	}
	return q
}

type resultResponse struct {
	DatasetID string       `json:"dataset_id"`
	Columns   []string     `json:"columns"`
	Rows      []domain.Row `json:"rows"`
	Matched   int          `json:"matched"`
	Empty     bool         `json:"empty"`
}

type datasetResponse struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Records  int    `json:"records"`
	Dropped  int    `json:"dropped"`
	LoadedAt string `json:"loaded_at"`
}

type valuesResponse struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}
