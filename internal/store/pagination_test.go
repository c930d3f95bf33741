package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageParams_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   PageParams
		want PageParams
	}{
		{"defaults", PageParams{}, PageParams{Page: 1, Limit: DefaultPageSize}},
		{"keeps valid", PageParams{Page: 3, Limit: 20}, PageParams{Page: 3, Limit: 20}},
		{"caps limit", PageParams{Page: 1, Limit: 5000}, PageParams{Page: 1, Limit: MaxPageSize}},
		{"negative page", PageParams{Page: -2, Limit: 10}, PageParams{Page: 1, Limit: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Validate()
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestNewPage(t *testing.T) {
	p := PageParams{Page: 2, Limit: 12}
	assert.Equal(t, 12, p.Offset())

	page := NewPage([]string{"a"}, 25, p)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)

	empty := NewPage[string](nil, 0, p)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}
