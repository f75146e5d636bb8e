package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens(t *testing.T) {
	got := Tokens("Senior Go 工程师, a b-c 42")
	assert.Equal(t, map[string]struct{}{
		"senior": {}, "go": {}, "工": {}, "程": {}, "师": {}, "42": {},
	}, got)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Build reliable APIs", "build RELIABLE apis!"))
	assert.Equal(t, 0.0, Similarity("", "anything"))
	assert.Equal(t, 0.0, Similarity("go rust", "java kotlin"))
	assert.InDelta(t, 1.0/3.0, Similarity("go rust", "go java"), 1e-9)
	assert.InDelta(t, 0.6, Similarity("后端开发", "前端开发"), 1e-9)
}
