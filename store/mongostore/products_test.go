package mongostore

import (
	"testing"

	"github.com/princinho/catalogbackend/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestProductFilter(t *testing.T) {
	catA := bson.NewObjectID()
	self := bson.NewObjectID()

	testCases := []struct {
		name    string
		query   store.ProductQuery
		check   func(t *testing.T, filter bson.M)
		wantErr error
	}{
		{
			name:  "no constraints",
			query: store.ProductQuery{},
			check: func(t *testing.T, filter bson.M) {
				assert.Empty(t, filter)
			},
		},
		{
			name: "category and inclusive price",
			query: store.ProductQuery{
				CategoryIDs: []string{catA.Hex()},
				Price:       &store.PriceRange{Min: 10, Max: 20},
			},
			check: func(t *testing.T, filter bson.M) {
				assert.Equal(t, bson.M{"$in": []bson.ObjectID{catA}}, filter["category"])
				assert.Equal(t, bson.M{"$gte": 10.0, "$lte": 20.0}, filter["price"])
			},
		},
		{
			name:  "keyword is escaped",
			query: store.ProductQuery{Keyword: "a+b (x)"},
			check: func(t *testing.T, filter bson.M) {
				or := filter["$or"].([]bson.M)
				require.Len(t, or, 2)
				assert.Equal(t, bson.M{"$regex": `a\+b \(x\)`, "$options": "i"}, or[0]["name"])
				assert.Equal(t, bson.M{"$regex": `a\+b \(x\)`, "$options": "i"}, or[1]["description"])
			},
		},
		{
			name:  "exclude id",
			query: store.ProductQuery{ExcludeID: self.Hex()},
			check: func(t *testing.T, filter bson.M) {
				assert.Equal(t, bson.M{"$ne": self}, filter["_id"])
			},
		},
		{
			name:    "invalid category id",
			query:   store.ProductQuery{CategoryIDs: []string{"nope"}},
			wantErr: store.ErrInvalidID,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filter, err := productFilter(tc.query)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, filter)
		})
	}
}

func TestDocRoundTripKeepsCategoryHex(t *testing.T) {
	cat := bson.NewObjectID()
	d := productDoc{ID: bson.NewObjectID(), Name: "Mug", Category: cat}

	p := d.model()

	assert.Equal(t, cat.Hex(), p.CategoryID)
	assert.Nil(t, p.Image)
}
