package service

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencyKey(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{name: "slug", label: "Every Week", want: "every-week"},
		{name: "digits kept", label: "Every 2 Months", want: "every-2-months"},
		{name: "empty slug falls back to hash", label: "!!!", want: md5Prefix("!!!")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FrequencyKey(tt.label))
		})
	}
}

func TestBuildFrequencyCatalog(t *testing.T) {
	t.Run("keeps order", func(t *testing.T) {
		catalog := BuildFrequencyCatalog([]string{"Every Week", "Every Month"})

		require.Equal(t, 2, catalog.Len())
		assert.Equal(t, "every-week", catalog.Options()[0].Key)
		assert.Equal(t, "every-month", catalog.Options()[1].Key)

		first, ok := catalog.First()
		require.True(t, ok)
		assert.Equal(t, "Every Week", first.Label)

		label, ok := catalog.Label("every-month")
		require.True(t, ok)
		assert.Equal(t, "Every Month", label)
	})

	t.Run("slug collision uses hash key", func(t *testing.T) {
		catalog := BuildFrequencyCatalog([]string{"Every Week", "every-week"})

		require.Equal(t, 2, catalog.Len())
		assert.Equal(t, "every-week", catalog.Options()[0].Key)
		assert.Equal(t, "Every Week", catalog.Options()[0].Label)
		assert.Equal(t, md5Prefix("every-week"), catalog.Options()[1].Key)
		assert.Empty(t, catalog.Skipped())
	})

	t.Run("no free key skips label", func(t *testing.T) {
		catalog := BuildFrequencyCatalog([]string{"Weekly", "weekly", "weekly"})

		assert.Equal(t, 2, catalog.Len())
		assert.Equal(t, []string{"weekly"}, catalog.Skipped())
	})

	t.Run("stable across builds", func(t *testing.T) {
		labels := []string{"Every Week", "!!!", "Every Month"}
		assert.Equal(t, BuildFrequencyCatalog(labels).Options(), BuildFrequencyCatalog(labels).Options())
	})

	t.Run("empty", func(t *testing.T) {
		catalog := BuildFrequencyCatalog(nil)

		assert.Zero(t, catalog.Len())
		_, ok := catalog.First()
		assert.False(t, ok)
		_, ok = catalog.Label("every-week")
		assert.False(t, ok)
	})
}

func md5Prefix(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}
