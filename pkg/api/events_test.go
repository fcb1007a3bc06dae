package api

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateShortStringUnchanged(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 200))
}

func TestTruncateCutsOnRuneBoundary(t *testing.T) {
	s := strings.Repeat("日", 10)
	out := truncate(s, 4)

	require.True(t, utf8.ValidString(out))
	assert.Equal(t, "日日日日…", out)
}

func TestTruncateMixedContentStaysValid(t *testing.T) {
	s := "ok é" + strings.Repeat("ü", 50)
	out := truncate(s, 10)

	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 11, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "…"))
}
