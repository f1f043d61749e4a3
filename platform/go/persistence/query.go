package persistence

import (
	"errors"
	"fmt"
	"strings"
)

// Pagination bounds shared by every list endpoint.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ErrInvalidPagination is returned before any SQL is built when page or limit
// fall outside the accepted ranges.
var ErrInvalidPagination = errors.New("invalid pagination")

// SortOrder is the validated sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// ListSpec is the per-endpoint allow-list the builder consults. Only column
// expressions listed here are ever interpolated into SQL text; everything
// user-supplied travels as a bound parameter.
type ListSpec struct {
	// FilterColumns maps recognized filter keys to their SQL column.
	FilterColumns map[string]string
	// SearchColumns are fanned into an OR-group of ILIKE conditions for free-text search.
	SearchColumns []string
	// SortColumns maps recognized sort keys to their ORDER BY expression.
	SortColumns map[string]string
	// DefaultSort is the ORDER BY expression used when the requested key is
	// not in SortColumns. Falling back instead of failing is deliberate.
	DefaultSort string
	// DefaultSortKey is reported in list metadata when the fallback applies.
	DefaultSortKey string
	// DefaultOrder applies when no direction (or an unrecognized one) is requested.
	DefaultOrder SortOrder
}

// Filter is one recognized equality filter. Key is looked up in
// ListSpec.FilterColumns; the value is always bound, never interpolated.
type Filter struct {
	Key   string
	Value any
}

// ConditionOp selects the comparison for a filter column. OpILike expects the
// value to be pre-wrapped in % wildcards.
type ConditionOp string

const (
	OpEqual ConditionOp = "="
	OpILike ConditionOp = "ILIKE"
)

// ListRequest carries the untrusted list arguments after shape validation.
type ListRequest struct {
	Filters   []Filter
	FilterOps map[string]ConditionOp // optional per-key comparison override
	Search    string
	SortBy    string
	Order     string
	Page      int
	Limit     int
}

// ListQuery is the deterministic output of BuildListQuery. Where holds
// positionally-numbered placeholders matched 1:1 by Args; Paging continues the
// numbering with the bound limit and offset.
type ListQuery struct {
	Where   string // "" or "WHERE ..."
	OrderBy string // "ORDER BY <expr> <dir>"
	Paging  string // "LIMIT $n OFFSET $m"
	Args    []any  // bound values for Where only
	SortBy  string // resolved sort key (after fallback)
	Order   SortOrder
	Page    int
	Limit   int
	Offset  int
}

// AllArgs returns the bound values for Where plus limit and offset, in
// placeholder order, ready for the data query.
func (q ListQuery) AllArgs() []any {
	out := make([]any, 0, len(q.Args)+2)
	out = append(out, q.Args...)
	return append(out, q.Limit, q.Offset)
}

// BuildListQuery validates pagination, resolves sorting against the
// allow-list, and assembles a parameterized WHERE clause. It is pure: the same
// spec and request always produce the same query.
func BuildListQuery(spec ListSpec, req ListRequest) (ListQuery, error) {
	page := req.Page
	if page == 0 {
		page = DefaultPage
	}
	limit := req.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	if page < 1 {
		return ListQuery{}, fmt.Errorf("%w: page must be a positive integer", ErrInvalidPagination)
	}
	if limit < 1 || limit > MaxLimit {
		return ListQuery{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidPagination, MaxLimit)
	}

	var (
		conditions []string
		args       []any
	)

	for _, f := range req.Filters {
		column, ok := spec.FilterColumns[f.Key]
		if !ok {
			return ListQuery{}, fmt.Errorf("unrecognized filter key %q", f.Key)
		}
		op := OpEqual
		if override, ok := req.FilterOps[f.Key]; ok {
			op = override
		}
		args = append(args, f.Value)
		conditions = append(conditions, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}

	if search := strings.TrimSpace(req.Search); search != "" && len(spec.SearchColumns) > 0 {
		group := make([]string, 0, len(spec.SearchColumns))
		for _, column := range spec.SearchColumns {
			// Each occurrence binds its own copy of the pattern so the
			// placeholder index always matches one value.
			args = append(args, "%"+search+"%")
			group = append(group, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
		}
		conditions = append(conditions, "("+strings.Join(group, " OR ")+")")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	sortKey := req.SortBy
	sortExpr, ok := spec.SortColumns[sortKey]
	if !ok {
		sortKey = spec.DefaultSortKey
		sortExpr = spec.DefaultSort
	}

	order := spec.DefaultOrder
	if order == "" {
		order = SortDesc
	}
	switch strings.ToLower(strings.TrimSpace(req.Order)) {
	case "asc":
		order = SortAsc
	case "desc":
		order = SortDesc
	}

	offset := (page - 1) * limit

	return ListQuery{
		Where:   where,
		OrderBy: fmt.Sprintf("ORDER BY %s %s", sortExpr, order),
		Paging:  fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2),
		Args:    args,
		SortBy:  sortKey,
		Order:   order,
		Page:    page,
		Limit:   limit,
		Offset:  offset,
	}, nil
}
