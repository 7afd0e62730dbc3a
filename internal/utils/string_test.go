package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindClosestString(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		s, dist, ok := FindClosestString(context.Background(), []string{"aaa", "bba", "cca"}, "aa", 2)
		if !assert.True(t, ok) {
			return
		}

		assert.Equal(t, 1, dist)
		assert.Equal(t, "aaa", s)
	})

	t.Run("maxDifferences should be respected", func(t *testing.T) {
		_, _, ok := FindClosestString(context.Background(), []string{"aaaaa"}, "aa", 2)
		if !assert.False(t, ok) {
			return
		}
	})
}

func TestCombineErrors(t *testing.T) {
	assert.NoError(t, CombineErrors())
	assert.NoError(t, CombineErrors(nil, nil))
	assert.EqualError(t, CombineErrors(errors.New("a"), nil, errors.New("b")), "a\nb")
	assert.EqualError(t, CombineErrorsWithPrefixMessage("closing", errors.New("a")), "closing: a")
}
