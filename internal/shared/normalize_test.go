package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Wooden-Chair", NormalizeName("Wooden  Chair"))
	assert.Equal(t, "lamp-v2", NormalizeName("lamp!!v2"))
	assert.Equal(t, "tidy", NormalizeName("  tidy  "))
	assert.Equal(t, "años", NormalizeName("años"))
	assert.Equal(t, "", NormalizeName("***"))
}

func TestFoldNameIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, FoldName("Wooden Chair"), FoldName("wooden   CHAIR"))
	assert.NotEqual(t, FoldName("wooden chair"), FoldName("wooden chairs"))
}
