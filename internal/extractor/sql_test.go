package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSQL_Placeholders(t *testing.T) {
	reads, writes := ExtractSQL("SELECT name FROM products WHERE price > {min_price}")
	assert.ElementsMatch(t, []string{"min_price"}, keys(reads))
	assert.Empty(t, writes)
}

func TestExtractSQL_NoPlaceholders(t *testing.T) {
	reads, writes := ExtractSQL("SELECT 1")
	assert.Empty(t, reads)
	assert.Empty(t, writes)
}

func TestExtractSQL_MultiplePlaceholders(t *testing.T) {
	reads, _ := ExtractSQL("SELECT * FROM t WHERE a = {x} AND b = {y} AND a = {x}")
	assert.ElementsMatch(t, []string{"x", "y"}, keys(reads))
}
