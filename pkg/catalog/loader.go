package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Loader reads the product catalog from its JSON file. It validates every
// entry at the load boundary: records missing a name or URL are rejected
// rather than constructed half-initialized.
type Loader struct {
	path   string
	logger *zap.Logger
}

func NewLoader(path string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{path: path, logger: logger}
}

// Load parses the catalog file and returns the validated product list.
// The brand field is recomputed from the name regardless of stored value.
func (l *Loader) Load() ([]Product, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", l.path, err)
	}

	var entries []Product
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", l.path, err)
	}

	products := make([]Product, 0, len(entries))
	for i, p := range entries {
		if p.Name == "" || p.URL == "" {
			l.logger.Warn("rejecting malformed catalog entry",
				zap.Int("index", i), zap.String("name", p.Name))
			continue
		}
		p.Brand = DeriveBrand(p.Name)
		if p.StorageOptions == nil {
			p.StorageOptions = []string{}
		}
		if p.Features == nil {
			p.Features = []string{}
		}
		products = append(products, p)
	}

	l.logger.Info("catalog loaded",
		zap.String("path", l.path), zap.Int("products", len(products)))
	return products, nil
}
