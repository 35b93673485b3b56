package domain

import "time"

// Review is one cleaned review row. Mandatory fields are plain values;
// everything that may be absent in the source is a pointer or an empty string.
type Review struct {
	Product     string
	Brand       string
	Category    string
	Rating      float64
	Price       *float64
	ReviewText  string
	UserName    string
	SkinCondAge string
	PostDate    *time.Time
	Year        *int // nil iff PostDate is nil
}

type Field string

const (
	FieldProduct     Field = "product"
	FieldBrand       Field = "brand"
	FieldCategory    Field = "category"
	FieldRating      Field = "rating"
	FieldPrice       Field = "price"
	FieldReview      Field = "review"
	FieldUserName    Field = "user_name"
	FieldPostDate    Field = "post_date"
	FieldYear        Field = "year"
	FieldSkinCondAge Field = "skin_cond_age"
)

// Fields lists every queryable field in export/column order.
var Fields = []Field{
	FieldProduct, FieldReview, FieldRating, FieldBrand, FieldCategory,
	FieldPrice, FieldUserName, FieldPostDate, FieldSkinCondAge, FieldYear,
}

// CanonicalFields is the stored/exported column order. Year is left out
// because it is derived from PostDate on load.
var CanonicalFields = []Field{
	FieldProduct, FieldReview, FieldRating, FieldBrand, FieldCategory,
	FieldPrice, FieldUserName, FieldPostDate, FieldSkinCondAge,
}

func (f Field) Valid() bool {
	for _, k := range Fields {
		if k == f {
			return true
		}
	}
	return false
}

func (f Field) Numeric() bool {
	return f == FieldRating || f == FieldPrice || f == FieldYear
}

// Value returns the typed value of f: string, float64, int64 or time.Time.
// Absent values come back as nil.
func (r Review) Value(f Field) any {
	switch f {
	case FieldProduct:
		return nullStr(r.Product)
	case FieldBrand:
		return nullStr(r.Brand)
	case FieldCategory:
		return nullStr(r.Category)
	case FieldRating:
		return r.Rating
	case FieldPrice:
		if r.Price == nil {
			return nil
		}
		return *r.Price
	case FieldReview:
		return nullStr(r.ReviewText)
	case FieldUserName:
		return nullStr(r.UserName)
	case FieldSkinCondAge:
		return nullStr(r.SkinCondAge)
	case FieldPostDate:
		if r.PostDate == nil {
			return nil
		}
		return *r.PostDate
	case FieldYear:
		if r.Year == nil {
			return nil
		}
		return int64(*r.Year)
	}
	return nil
}

// Clone returns a copy that shares no pointers with r.
func (r Review) Clone() Review {
	if r.Price != nil {
		p := *r.Price
		r.Price = &p
	}
	if r.PostDate != nil {
		d := *r.PostDate
		r.PostDate = &d
	}
	if r.Year != nil {
		y := *r.Year
		r.Year = &y
	}
	return r
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
