package store

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// DefaultPageSize is used when a listing request does not set a size.
var DefaultPageSize = 20

// MaxPageSize caps a single listing page.
var MaxPageSize = 100

var sortableProductColumns = map[string]string{
	"name":           "name",
	"price":          "price",
	"rating":         "average_rating",
	"average_rating": "average_rating",
	"total_reviews":  "total_reviews",
	"created_at":     "created_at",
}

// ProductQuery collects catalog filters, sorting, and pagination. The zero
// value lists everything on page one.
type ProductQuery struct {
	Name          string           `json:"name" query:"name"`
	Grades        []string         `json:"grades" query:"grades"`
	Manufacturers []string         `json:"manufacturers" query:"manufacturers"`
	Series        []string         `json:"series" query:"series"`
	MinPrice      *decimal.Decimal `json:"min_price" query:"min_price"`
	MaxPrice      *decimal.Decimal `json:"max_price" query:"max_price"`
	MinDifficulty *int             `json:"min_difficulty" query:"min_difficulty"`
	MaxDifficulty *int             `json:"max_difficulty" query:"max_difficulty"`
	InStockOnly   bool             `json:"in_stock_only" query:"in_stock_only"`
	MinRating     *decimal.Decimal `json:"min_rating" query:"min_rating"`
	SortBy        string           `json:"sort_by" query:"sort_by"`
	SortOrder     string           `json:"sort_order" query:"sort_order"`
	Page          int              `json:"page" query:"page"`
	Size          int              `json:"size" query:"size"`
}

// Validate rejects unknown sort columns, bad sort orders, and invalid grades
// before the query ever reaches the database.
func (q ProductQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.SortBy, validation.By(validSortColumn)),
		validation.Field(&q.SortOrder, validation.In("", "asc", "desc", "ASC", "DESC")),
		validation.Field(&q.Grades, validation.By(validGradeList)),
		validation.Field(&q.Page, validation.Min(0)),
		validation.Field(&q.Size, validation.Min(0), validation.Max(MaxPageSize)),
	)
}

func validSortColumn(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, ok := sortableProductColumns[strings.ToLower(s)]; !ok {
		return validation.NewError("validation_sort_by", "must be a sortable column")
	}
	return nil
}

func validGradeList(value any) error {
	grades, _ := value.([]string)
	for _, g := range grades {
		if !IsValidGrade(Grade(g)) {
			return validation.NewError("validation_grade", "must be a known grade")
		}
	}
	return nil
}

func (q ProductQuery) page() int {
	if q.Page < 1 {
		return 1
	}
	return q.Page
}

func (q ProductQuery) size() int {
	if q.Size < 1 {
		return DefaultPageSize
	}
	if q.Size > MaxPageSize {
		return MaxPageSize
	}
	return q.Size
}

// Apply attaches the filter clauses to a select query. Pagination and sorting
// are applied separately so count queries can reuse the filters.
func (q ProductQuery) Apply(sel *bun.SelectQuery) *bun.SelectQuery {
	if q.Name != "" {
		sel = sel.Where("LOWER(?TableAlias.name) LIKE ?", "%"+strings.ToLower(q.Name)+"%")
	}
	if len(q.Grades) > 0 {
		sel = sel.Where("?TableAlias.grade IN (?)", bun.In(q.Grades))
	}
	if len(q.Manufacturers) > 0 {
		sel = sel.Where("?TableAlias.manufacturer IN (?)", bun.In(q.Manufacturers))
	}
	if len(q.Series) > 0 {
		sel = sel.Where("?TableAlias.series IN (?)", bun.In(q.Series))
	}
	if q.MinPrice != nil {
		sel = sel.Where("?TableAlias.price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		sel = sel.Where("?TableAlias.price <= ?", *q.MaxPrice)
	}
	if q.MinDifficulty != nil {
		sel = sel.Where("?TableAlias.difficulty >= ?", *q.MinDifficulty)
	}
	if q.MaxDifficulty != nil {
		sel = sel.Where("?TableAlias.difficulty <= ?", *q.MaxDifficulty)
	}
	if q.InStockOnly {
		sel = sel.Where("?TableAlias.in_stock > 0")
	}
	if q.MinRating != nil {
		sel = sel.Where("?TableAlias.average_rating >= ?", *q.MinRating)
	}
	return sel
}

// ApplyOrder attaches the ORDER BY clause. Unknown columns were rejected in
// Validate; anything unexpected here falls back to created_at desc.
func (q ProductQuery) ApplyOrder(sel *bun.SelectQuery) *bun.SelectQuery {
	column, ok := sortableProductColumns[strings.ToLower(q.SortBy)]
	if !ok {
		column = "created_at"
	}

	direction := "ASC"
	if strings.EqualFold(q.SortOrder, "desc") || q.SortBy == "" {
		direction = "DESC"
	}

	return sel.Order("?TableAlias." + column + " " + direction)
}

// ApplyPagination attaches LIMIT/OFFSET for the resolved page and size.
func (q ProductQuery) ApplyPagination(sel *bun.SelectQuery) *bun.SelectQuery {
	size := q.size()
	offset := (q.page() - 1) * size
	return sel.Limit(size).Offset(offset)
}

// PageMeta describes one page of a listing.
type PageMeta struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Size    int  `json:"size"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// NewPageMeta computes page counts from a total. pages is the ceiling of
// total/size, so an empty result set has zero pages and no neighbors.
func NewPageMeta(total, page, size int) PageMeta {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}

	pages := (total + size - 1) / size

	return PageMeta{
		Total:   total,
		Page:    page,
		Size:    size,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// ProductPage is one page of catalog results plus its pagination meta.
type ProductPage struct {
	Items []*Product `json:"items"`
	PageMeta
}

// FilterOptions lists the distinct values the storefront can filter on.
type FilterOptions struct {
	Grades        []string         `json:"grades"`
	Manufacturers []string         `json:"manufacturers"`
	Series        []string         `json:"series"`
	MinPrice      *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice      *decimal.Decimal `json:"max_price,omitempty"`
	MinDifficulty *int             `json:"min_difficulty,omitempty"`
	MaxDifficulty *int             `json:"max_difficulty,omitempty"`
}
