package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidCatalog(t *testing.T) {
	path := writeCatalog(t, `[
		{"name": "Apple iPhone 15", "description": "desc", "url": "https://example.com/a", "storage_options": ["128GB"], "features": ["USB-C"]},
		{"name": "Galaxy S24", "description": "desc", "url": "https://example.com/b"}
	]`)

	products, err := NewLoader(path, nil).Load()
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "Apple", products[0].Brand)
	assert.Equal(t, "Samsung", products[1].Brand)
	// nil slices normalize so JSON output is [] not null
	assert.NotNil(t, products[1].StorageOptions)
	assert.NotNil(t, products[1].Features)
}

func TestLoadRejectsMalformedEntries(t *testing.T) {
	path := writeCatalog(t, `[
		{"name": "", "url": "https://example.com/a"},
		{"name": "No URL Phone"},
		{"name": "Google Pixel 8", "url": "https://example.com/c"}
	]`)

	products, err := NewLoader(path, nil).Load()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Google Pixel 8", products[0].Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.json"), nil).Load()
	assert.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeCatalog(t, `{"not": "an array"`)
	_, err := NewLoader(path, nil).Load()
	assert.Error(t, err)
}

func TestDeriveBrand(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Apple iPhone 15 Pro", "Apple"},
		{"iphone se", "Apple"},
		{"Samsung Galaxy S24", "Samsung"},
		{"galaxy a55", "Samsung"},
		{"Google Pixel 8a", "Google"},
		{"pixel fold", "Google"},
		{"OnePlus 12", "OnePlus"},
		{"Nokia 3310", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveBrand(tt.name))
		})
	}
}
