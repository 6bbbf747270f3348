package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a, b ,c", []string{"a", "b", "c"}},
		{"", []string{}},
		{"   ", []string{}},
		{"work", []string{"work"}},
		{"a,,b, ", []string{"a", "b"}},
		{" Home , Work Plan ", []string{"Home", "Work Plan"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTags(tt.in), "input %q", tt.in)
	}
}

func TestJoinTags(t *testing.T) {
	assert.Equal(t, "a, b, c", JoinTags([]string{"a", "b", "c"}))
	assert.Equal(t, "", JoinTags(nil))
	assert.Equal(t, []string{"x", "y"}, ParseTags(JoinTags([]string{"x", "y"})))
}

func TestDraftEmpty(t *testing.T) {
	assert.True(t, Draft{}.Empty())
	assert.False(t, Draft{Tags: "a"}.Empty())
}
