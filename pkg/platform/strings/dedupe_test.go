package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	t.Run("trims and removes duplicates preserving order", func(t *testing.T) {
		got := DedupeAndTrim([]string{"  broker-a:9092 ", "broker-b:9092", "broker-a:9092", "", "  "})
		assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, got)
	})

	t.Run("empty input passes through", func(t *testing.T) {
		assert.Empty(t, DedupeAndTrim(nil))
		assert.Empty(t, DedupeAndTrim([]string{}))
	})
}
