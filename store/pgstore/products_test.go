package pgstore

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/princinho/catalogbackend/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestLikeEscaper(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"shirt", "shirt"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`c:\tmp`, `c:\\tmp`},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, likeEscaper.Replace(tc.in))
		})
	}
}

func TestListColumnsExcludeImageBytes(t *testing.T) {
	assert.NotContains(t, listColumns, "image_data")
	assert.Contains(t, listColumns, "created_at")
}

func TestRowModelImage(t *testing.T) {
	withImage := productRow{ID: uuid.NewString(), ImageData: []byte{1}, ImageContentType: "image/png"}
	withoutImage := productRow{ID: uuid.NewString()}

	assert.NotNil(t, withImage.model().Image)
	assert.Nil(t, withoutImage.model().Image)
}

func TestValidID(t *testing.T) {
	assert.True(t, validID(uuid.NewString()))
	assert.False(t, validID("65f1c2a9e4b0a1b2c3d4e5f6"))
	assert.False(t, validID(""))
}

// dryRunStore renders statements without a server.
func dryRunStore(t *testing.T) *ProductStore {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=catalog dbname=catalog sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return NewProductStore(db)
}

func TestQuerySQL(t *testing.T) {
	s := dryRunStore(t)
	cat1, cat2 := uuid.NewString(), uuid.NewString()
	exclude := uuid.NewString()

	testCases := []struct {
		name     string
		query    store.ProductQuery
		contains []string
		absent   []string
		vars     []any
	}{
		{
			name:     "no constraints",
			query:    store.ProductQuery{},
			contains: []string{`SELECT "id","name",`, `FROM "products"`},
			absent:   []string{"WHERE", "ORDER BY", "LIMIT", "OFFSET", "image_data"},
		},
		{
			name: "categories and inclusive price",
			query: store.ProductQuery{
				CategoryIDs: []string{cat1, cat2},
				Price:       &store.PriceRange{Min: 10, Max: 20},
			},
			contains: []string{"category_id IN ($1,$2)", "price >= $3 AND price <= $4"},
			vars:     []any{cat1, cat2, 10.0, 20.0},
		},
		{
			name:     "keyword on name or description",
			query:    store.ProductQuery{Keyword: "50%"},
			contains: []string{"name ILIKE $1 OR description ILIKE $2"},
			vars:     []any{`%50\%%`, `%50\%%`},
		},
		{
			name:     "keyword keeps surrounding whitespace",
			query:    store.ProductQuery{Keyword: " tee "},
			contains: []string{"name ILIKE $1 OR description ILIKE $2"},
			vars:     []any{"% tee %", "% tee %"},
		},
		{
			name:     "excluded id",
			query:    store.ProductQuery{CategoryIDs: []string{cat1}, ExcludeID: exclude},
			contains: []string{"category_id IN ($1)", "id <> $2"},
			vars:     []any{cat1, exclude},
		},
		{
			name:   "malformed excluded id is ignored",
			query:  store.ProductQuery{ExcludeID: "nope"},
			absent: []string{"WHERE"},
		},
		{
			name:     "with image selects every column",
			query:    store.ProductQuery{WithImage: true},
			contains: []string{`SELECT * FROM "products"`},
		},
		{
			name:     "newest first",
			query:    store.ProductQuery{Sort: store.SortNewest},
			contains: []string{"ORDER BY created_at DESC,id DESC"},
			absent:   []string{"LIMIT", "OFFSET"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tx, err := s.query(context.Background(), tc.query)
			require.NoError(t, err)
			stmt := tx.Find(&[]productRow{}).Statement
			sql := stmt.SQL.String()

			for _, frag := range tc.contains {
				assert.Contains(t, sql, frag)
			}
			for _, frag := range tc.absent {
				assert.NotContains(t, sql, frag)
			}
			assert.Equal(t, tc.vars, nilIfEmpty(stmt.Vars))
		})
	}
}

func TestQuerySQLPaging(t *testing.T) {
	s := dryRunStore(t)

	tx, err := s.query(context.Background(), store.ProductQuery{Sort: store.SortNewest, Skip: 10, Limit: 5})
	require.NoError(t, err)
	stmt := tx.Find(&[]productRow{}).Statement

	explained := tx.Dialector.Explain(stmt.SQL.String(), stmt.Vars...)
	assert.Regexp(t, `ORDER BY created_at DESC,id DESC LIMIT 5 OFFSET 10$`, explained)
}

func TestQueryRejectsMalformedCategoryID(t *testing.T) {
	s := dryRunStore(t)

	_, err := s.query(context.Background(), store.ProductQuery{CategoryIDs: []string{uuid.NewString(), "65f1c2a9e4b0a1b2c3d4e5f6"}})
	assert.ErrorIs(t, err, store.ErrInvalidID)
}

func nilIfEmpty(vars []any) []any {
	if len(vars) == 0 {
		return nil
	}
	return vars
}
