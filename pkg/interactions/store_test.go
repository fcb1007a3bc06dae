package interactions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndGet(t *testing.T) {
	s := NewStore()

	it := s.Add("what is go", "a language", "llama3-8b-8192")
	require.NotEmpty(t, it.ID)
	assert.False(t, it.CreatedAt.IsZero())

	got, err := s.Get(it.ID)
	require.NoError(t, err)
	assert.Equal(t, "what is go", got.Prompt)
	assert.Equal(t, "a language", got.Response)
}

func TestListKeepsInsertionOrder(t *testing.T) {
	s := NewStore()
	first := s.Add("one", "1", "m")
	second := s.Add("two", "2", "m")

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestUpdatePartialFields(t *testing.T) {
	s := NewStore()
	it := s.Add("p", "r", "m")

	updated, err := s.Update(it.ID, "", "new response")
	require.NoError(t, err)
	assert.Equal(t, "p", updated.Prompt)
	assert.Equal(t, "new response", updated.Response)
	assert.False(t, updated.UpdatedAt.Before(it.UpdatedAt))

	_, err = s.Update("missing", "x", "y")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := NewStore()
	it := s.Add("p", "r", "m")

	require.NoError(t, s.Delete(it.ID))
	assert.Zero(t, s.Count())
	assert.Empty(t, s.List())

	assert.ErrorIs(t, s.Delete(it.ID), ErrNotFound)
}
