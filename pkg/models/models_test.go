package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestResolvedRating_PriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		book Book
		want float64
	}{
		{"none present", Book{}, 0},
		{"only rating", Book{Rating: floatPtr(3)}, 3},
		{"average beats rating", Book{AverageRating: floatPtr(4), Rating: floatPtr(2)}, 4},
		{"avg beats all", Book{AvgRating: floatPtr(4.5), AverageRating: floatPtr(1), Rating: floatPtr(2)}, 4.5},
		{"zero is still present", Book{AvgRating: floatPtr(0), Rating: floatPtr(5)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.book.ResolvedRating())
		})
	}
}

func TestBook_DecodeNullAggregates(t *testing.T) {
	raw := `{"id":7,"title":"Dune","description":"","authors":[{"id":1,"name":"Frank Herbert"}],
		"genres":[{"id":3,"name":"Sci-Fi"}],"year":1965,"avg_rating":null,"reviews_count":0,
		"created_at":"2025-01-02T10:00:00.123456Z"}`

	var b Book
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	assert.Nil(t, b.AvgRating)
	assert.Equal(t, float64(0), b.ResolvedRating())
	assert.Equal(t, 0, b.ReviewCount())
	assert.True(t, b.HasGenre(3))
	assert.False(t, b.HasGenre(4))
	assert.Equal(t, []string{"Frank Herbert"}, b.AuthorNames())
	require.NotNil(t, b.CreatedAt)
	assert.Equal(t, 2025, b.CreatedAt.Year())
}

func TestReadingStatus_Text(t *testing.T) {
	var rel StatusRelation
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"book":2,"status":"TO_READ"}`), &rel))
	assert.Equal(t, StatusToRead, rel.Status)

	out, err := json.Marshal(map[string]ReadingStatus{"status": StatusReading})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"READING"}`, string(out))

	err = json.Unmarshal([]byte(`{"id":1,"book":2,"status":"DROPPED"}`), &rel)
	assert.Error(t, err)

	_, err = ReadingStatus(0).MarshalText()
	assert.Error(t, err)
}
