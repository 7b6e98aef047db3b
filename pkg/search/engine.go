package search

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"ai-salesbot-be/pkg/catalog"
	"ai-salesbot-be/pkg/embedding"
	"ai-salesbot-be/pkg/store"

	"go.uber.org/zap"
)

// Result is a ranked catalog entry. Semantic scores are cosine similarity
// in [-1,1]; lexical and preference scores are unbounded relative weights.
type Result struct {
	Product catalog.Product `json:"product"`
	Score   float64         `json:"score"`
}

// index is an immutable catalog/vector pair. Readers load it atomically so
// a reload never exposes a catalog without its matching vectors.
type index struct {
	products []catalog.Product
	vectors  [][]float32
}

// Engine ranks the product catalog against free-text queries and against
// structured preferences. The semantic path uses cached embedding vectors;
// when the embedding provider is unavailable the engine degrades to
// lexical scoring without surfacing an error to the caller.
type Engine struct {
	loader   *catalog.Loader
	provider embedding.Provider
	cache    *embedding.Cache
	timeout  time.Duration
	logger   *zap.Logger

	idx atomic.Pointer[index]
}

func NewEngine(loader *catalog.Loader, provider embedding.Provider, cache *embedding.Cache, timeout time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	e := &Engine{
		loader:   loader,
		provider: provider,
		cache:    cache,
		timeout:  timeout,
		logger:   logger,
	}
	e.idx.Store(&index{})
	return e
}

// Refresh reloads the catalog and validates or recomputes the embedding
// cache, then swaps both in atomically. A missing or corrupt catalog file
// leaves the engine serving an empty catalog; an embedding provider
// failure leaves the semantic path disabled until the next refresh.
func (e *Engine) Refresh(ctx context.Context) {
	products, err := e.loader.Load()
	if err != nil {
		e.logger.Warn("catalog load failed, continuing with empty catalog", zap.Error(err))
		e.idx.Store(&index{})
		return
	}

	e.idx.Store(&index{
		products: products,
		vectors:  e.loadOrComputeVectors(ctx, products),
	})
}

func (e *Engine) loadOrComputeVectors(ctx context.Context, products []catalog.Product) [][]float32 {
	if e.provider == nil || len(products) == 0 {
		return nil
	}

	texts := make([]string, len(products))
	for i, p := range products {
		texts[i] = p.SearchableText()
	}
	fingerprint := embedding.Fingerprint(texts)

	if e.cache != nil {
		if vectors, ok := e.cache.Load(fingerprint, len(products)); ok {
			e.logger.Info("loaded cached product embeddings", zap.Int("vectors", len(vectors)))
			return vectors
		}
	}

	e.logger.Info("computing product embeddings", zap.Int("products", len(products)))
	vectors := make([][]float32, len(products))
	for i, text := range texts {
		vec, err := e.embed(ctx, text)
		if err != nil {
			e.logger.Warn("embedding computation failed, semantic search disabled",
				zap.Int("product", i), zap.Error(err))
			return nil
		}
		vectors[i] = vec
	}

	if e.cache != nil {
		if err := e.cache.Save(fingerprint, vectors); err != nil {
			e.logger.Warn("failed to persist embedding cache", zap.Error(err))
		}
	}
	return vectors
}

func (e *Engine) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.provider.Generate(ctx, text)
}

// Search ranks the catalog against a free-text query and returns the top k
// results by cosine similarity, ties broken by catalog order. It falls
// back to lexical scoring when the embedding path is unavailable and never
// returns an error to the caller.
func (e *Engine) Search(ctx context.Context, query string, k int) []Result {
	if k <= 0 {
		k = 5
	}
	idx := e.idx.Load()
	if len(idx.products) == 0 {
		return []Result{}
	}
	if e.provider == nil || idx.vectors == nil {
		return e.SearchLexical(query, k)
	}

	queryVec, err := e.embed(ctx, query)
	if err != nil {
		e.logger.Warn("query embedding failed, falling back to lexical search", zap.Error(err))
		return e.SearchLexical(query, k)
	}

	results := make([]Result, len(idx.products))
	for i, p := range idx.products {
		results[i] = Result{Product: p, Score: cosineSimilarity(queryVec, idx.vectors[i])}
	}
	sort.SliceStable(results, func(a, b int) bool { return results[a].Score > results[b].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

// SearchLexical ranks the catalog by weighted substring matching. Products
// with a non-positive score are excluded; ties keep catalog order.
func (e *Engine) SearchLexical(query string, k int) []Result {
	if k <= 0 {
		k = 5
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []Result{}
	}
	tokens := strings.Fields(query)

	idx := e.idx.Load()
	var results []Result
	for _, p := range idx.products {
		score := 0
		name := strings.ToLower(p.Name)
		brand := strings.ToLower(p.Brand)

		if strings.Contains(name, query) {
			score += 5
		}
		if strings.Contains(brand, query) {
			score += 4
		}
		if strings.Contains(strings.ToLower(p.Description), query) {
			score += 2
		}
		for _, feature := range p.Features {
			if strings.Contains(strings.ToLower(feature), query) {
				score += 3
			}
		}
		// Exact brand match dominates every substring weight.
		if brand == query {
			score += 10
		}
		for _, token := range tokens {
			if strings.Contains(name, token) {
				score += 3
				break
			}
		}

		if score > 0 {
			results = append(results, Result{Product: p, Score: float64(score)})
		}
	}

	sort.SliceStable(results, func(a, b int) bool { return results[a].Score > results[b].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

var poundPattern = regexp.MustCompile(`£(\d+(?:\.\d+)?)`)

// monthlyPrice extracts the first £-prefixed amount from the description,
// falling back to the device cost when the description carries no price.
func monthlyPrice(p catalog.Product) (float64, bool) {
	if m := poundPattern.FindStringSubmatch(p.Description); m != nil {
		if price, err := strconv.ParseFloat(m[1], 64); err == nil {
			return price, true
		}
	}
	if p.DeviceCost != nil {
		return *p.DeviceCost, true
	}
	return 0, false
}

var (
	heavyDataKeywords = []string{"100gb", "unlimited", "150gb"}
	lightDataKeywords = []string{"1gb", "2gb", "5gb"}
)

// SearchByPreferences scores the catalog against structured preferences.
// Scoring is additive: an over-budget penalty can still be outweighed by
// other terms, so expensive items may surface with a small positive total.
// Products with a total score <= 0 are excluded.
func (e *Engine) SearchByPreferences(prefs store.Preferences, k int) []Result {
	if k <= 0 {
		k = 5
	}
	idx := e.idx.Load()
	var results []Result
	for _, p := range idx.products {
		score := 0
		searchable := strings.ToLower(p.SearchableText())

		if prefs.Brand != "" && strings.EqualFold(p.Brand, prefs.Brand) {
			score += 10
		}

		if prefs.BudgetMin != nil || prefs.BudgetMax != nil {
			if price, ok := monthlyPrice(p); ok {
				budgetMin, budgetMax := 0.0, 1000.0
				if prefs.BudgetMin != nil {
					budgetMin = *prefs.BudgetMin
				}
				if prefs.BudgetMax != nil {
					budgetMax = *prefs.BudgetMax
				}
				// Upper bound is inclusive: a product priced exactly at
				// budget_max earns the in-budget bonus.
				if price >= budgetMin && price <= budgetMax {
					score += 5
				} else if price > budgetMax {
					score -= 5
				}
			}
		}

		switch strings.ToLower(prefs.DataUsage) {
		case "unlimited":
			if strings.Contains(searchable, "unlimited") {
				score += 8
			}
		case "heavy":
			if containsAny(searchable, heavyDataKeywords) {
				score += 6
			}
		case "light":
			if containsAny(searchable, lightDataKeywords) {
				score += 6
			}
		}

		for _, feature := range prefs.Features {
			if feature != "" && strings.Contains(searchable, strings.ToLower(feature)) {
				score += 4
			}
		}

		if prefs.Storage != "" {
			for _, option := range p.StorageOptions {
				if strings.Contains(strings.ToLower(option), strings.ToLower(prefs.Storage)) {
					score += 3
					break
				}
			}
		}

		if score > 0 {
			results = append(results, Result{Product: p, Score: float64(score)})
		}
	}

	sort.SliceStable(results, func(a, b int) bool { return results[a].Score > results[b].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// AllProducts returns the current catalog snapshot.
func (e *Engine) AllProducts() []catalog.Product {
	return e.idx.Load().products
}

// ProductByName looks a product up by exact, case-insensitive name.
func (e *Engine) ProductByName(name string) (catalog.Product, bool) {
	for _, p := range e.idx.Load().products {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return catalog.Product{}, false
}

// Brands returns the sorted set of brands present in the catalog.
func (e *Engine) Brands() []string {
	seen := make(map[string]bool)
	var brands []string
	for _, p := range e.idx.Load().products {
		if !seen[p.Brand] {
			seen[p.Brand] = true
			brands = append(brands, p.Brand)
		}
	}
	sort.Strings(brands)
	return brands
}

// PriceRange summarizes the monthly prices found in the catalog.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

func (e *Engine) PriceRange() PriceRange {
	var prices []float64
	for _, p := range e.idx.Load().products {
		if price, ok := monthlyPrice(p); ok {
			prices = append(prices, price)
		}
	}
	if len(prices) == 0 {
		return PriceRange{}
	}
	pr := PriceRange{Min: prices[0], Max: prices[0]}
	var sum float64
	for _, price := range prices {
		if price < pr.Min {
			pr.Min = price
		}
		if price > pr.Max {
			pr.Max = price
		}
		sum += price
	}
	pr.Avg = sum / float64(len(prices))
	return pr
}

// Statistics describes the engine's current capabilities.
type Statistics struct {
	TotalProducts  int        `json:"total_products"`
	Brands         []string   `json:"brands"`
	PriceRange     PriceRange `json:"price_range"`
	SemanticSearch bool       `json:"semantic_search_available"`
}

func (e *Engine) Statistics() Statistics {
	idx := e.idx.Load()
	return Statistics{
		TotalProducts:  len(idx.products),
		Brands:         e.Brands(),
		PriceRange:     e.PriceRange(),
		SemanticSearch: idx.vectors != nil,
	}
}
