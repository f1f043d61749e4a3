package persistence

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var testSpec = ListSpec{
	FilterColumns: map[string]string{
		"status": "status",
		"email":  "email",
	},
	SearchColumns: []string{"first_name", "last_name", "email"},
	SortColumns: map[string]string{
		"id":           "id",
		"created_at":   "created_at",
		"display_name": "first_name, last_name",
	},
	DefaultSort:    "created_at",
	DefaultSortKey: "created_at",
	DefaultOrder:   SortDesc,
}

var placeholderPattern = regexp.MustCompile(`\$\d+`)

func TestBuildListQueryDefaults(t *testing.T) {
	t.Parallel()

	q, err := BuildListQuery(testSpec, ListRequest{})
	require.NoError(t, err)

	require.Empty(t, q.Where)
	require.Empty(t, q.Args)
	require.Equal(t, "ORDER BY created_at DESC", q.OrderBy)
	require.Equal(t, "LIMIT $1 OFFSET $2", q.Paging)
	require.Equal(t, DefaultPage, q.Page)
	require.Equal(t, DefaultLimit, q.Limit)
	require.Equal(t, 0, q.Offset)
	require.Equal(t, []any{DefaultLimit, 0}, q.AllArgs())
}

func TestBuildListQueryPlaceholdersMatchArgs(t *testing.T) {
	t.Parallel()

	q, err := BuildListQuery(testSpec, ListRequest{
		Filters: []Filter{
			{Key: "status", Value: 1},
			{Key: "email", Value: "a@b.c"},
		},
		Search: "smith",
	})
	require.NoError(t, err)

	// every placeholder in Where is matched by exactly one bound value
	placeholders := placeholderPattern.FindAllString(q.Where, -1)
	require.Len(t, placeholders, len(q.Args))
	for i := range q.Args {
		require.Contains(t, q.Where, fmt.Sprintf("$%d", i+1))
	}

	// paging continues the numbering
	require.Equal(t, fmt.Sprintf("LIMIT $%d OFFSET $%d", len(q.Args)+1, len(q.Args)+2), q.Paging)
}

func TestBuildListQueryNeverInlinesValues(t *testing.T) {
	t.Parallel()

	hostile := "x'; DROP TABLE users; --"
	q, err := BuildListQuery(testSpec, ListRequest{
		Filters: []Filter{{Key: "email", Value: hostile}},
		Search:  hostile,
	})
	require.NoError(t, err)

	require.NotContains(t, q.Where, hostile)
	require.NotContains(t, q.OrderBy, hostile)
	require.Contains(t, q.Args, hostile)
}

func TestBuildListQuerySearchBindsOneCopyPerColumn(t *testing.T) {
	t.Parallel()

	q, err := BuildListQuery(testSpec, ListRequest{Search: "ada"})
	require.NoError(t, err)

	require.Len(t, q.Args, len(testSpec.SearchColumns))
	for _, arg := range q.Args {
		require.Equal(t, "%ada%", arg)
	}
	require.Equal(t, 1, strings.Count(q.Where, "("))
	require.Equal(t, len(testSpec.SearchColumns)-1, strings.Count(q.Where, " OR "))
}

func TestBuildListQueryUnlistedSortFallsBack(t *testing.T) {
	t.Parallel()

	q, err := BuildListQuery(testSpec, ListRequest{SortBy: "password_hash; --"})
	require.NoError(t, err)

	require.Equal(t, "ORDER BY created_at DESC", q.OrderBy)
	require.Equal(t, "created_at", q.SortBy)
}

func TestBuildListQueryMultiColumnSortKey(t *testing.T) {
	t.Parallel()

	q, err := BuildListQuery(testSpec, ListRequest{SortBy: "display_name", Order: "asc"})
	require.NoError(t, err)

	require.Equal(t, "ORDER BY first_name, last_name ASC", q.OrderBy)
	require.Equal(t, SortAsc, q.Order)
}

func TestBuildListQueryUnrecognizedOrderUsesDefault(t *testing.T) {
	t.Parallel()

	q, err := BuildListQuery(testSpec, ListRequest{Order: "sideways"})
	require.NoError(t, err)
	require.Equal(t, SortDesc, q.Order)
}

func TestBuildListQueryRejectsBadPagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		page  int
		limit int
	}{
		{"negative page", -1, 10},
		{"negative limit", 1, -5},
		{"limit above cap", 1, MaxLimit + 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := BuildListQuery(testSpec, ListRequest{Page: tt.page, Limit: tt.limit})
			require.ErrorIs(t, err, ErrInvalidPagination)
		})
	}
}

func TestBuildListQueryRejectsUnknownFilterKey(t *testing.T) {
	t.Parallel()

	_, err := BuildListQuery(testSpec, ListRequest{
		Filters: []Filter{{Key: "password_hash", Value: "x"}},
	})
	require.Error(t, err)
}

func TestBuildListQueryOffset(t *testing.T) {
	t.Parallel()

	q, err := BuildListQuery(testSpec, ListRequest{Page: 3, Limit: 25})
	require.NoError(t, err)
	require.Equal(t, 50, q.Offset)
	require.Equal(t, []any{25, 50}, q.AllArgs())
}

func TestBuildListQueryILikeOverride(t *testing.T) {
	t.Parallel()

	q, err := BuildListQuery(testSpec, ListRequest{
		Filters:   []Filter{{Key: "email", Value: "%@acme.com"}},
		FilterOps: map[string]ConditionOp{"email": OpILike},
	})
	require.NoError(t, err)
	require.Contains(t, q.Where, "email ILIKE $1")
}
