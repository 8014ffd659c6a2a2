// Package search implements the Search Pipeline of spec §4.5: it resolves
// a scope to a crate set, runs the similarity engine over every item,
// filters by threshold, sorts, truncates, and renders Hit records.
package search

import (
	"sort"

	"github.com/alpaylan/ruggle/internal/markdown"
	"github.com/alpaylan/ruggle/internal/model"
	"github.com/alpaylan/ruggle/internal/queryparser"
	"github.com/alpaylan/ruggle/internal/registry"
	"github.com/alpaylan/ruggle/internal/similarity"
)

// Hit is one surviving search result, per spec §4.5/§6.2.
type Hit struct {
	ID        int
	Name      string
	Path      string
	Link      string
	Docs      string
	Signature string
	Distance  int
}

// DefaultLimit and MaxLimit are the bounds spec §6.2 fixes for the `limit`
// search-request parameter.
const (
	DefaultLimit = 30
	MaxLimit     = 500
	// DefaultThreshold is the search-request default threshold value. Search
	// does not substitute it: it applies the threshold it is given, so 0
	// admits only distance-0 hits.
	DefaultThreshold = 0.4
)

// scored pairs a candidate item with its distance, retaining the item's
// ingest-order position within its crate for stable tie-breaking (spec
// §4.5 "Sorting").
type scored struct {
	item  model.IndexedItem
	dist  int
	order int
}

// Search runs the full pipeline for one request: parse, resolve scope,
// score every candidate, filter by threshold, stable-sort by distance,
// and truncate to limit.
func Search(idx *registry.Index, queryStr, scopeStr string, limit int, threshold float64) ([]Hit, error) {
	q, err := queryparser.Parse(queryStr)
	if err != nil {
		return nil, err
	}

	crateKeys, err := idx.ResolveScope(scopeStr)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var candidates []scored
	for _, key := range crateKeys {
		for i, item := range idx.Items(key) {
			d, ok := similarity.Distance(q, item)
			if !ok {
				continue // Reject: silent, never surfaced
			}
			if !withinThreshold(d, threshold) {
				continue
			}
			candidates = append(candidates, scored{item: item, dist: d, order: i})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].order < candidates[j].order
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	hits := make([]Hit, len(candidates))
	for i, c := range candidates {
		hits[i] = renderHit(c.item, c.dist)
	}
	return hits, nil
}

// withinThreshold converts a raw distance to the normalised score of spec
// §4.5 (score = d / (d + k)) and compares it against the caller's
// threshold. An item is retained iff score <= threshold.
func withinThreshold(d int, threshold float64) bool {
	score := Score(d)
	return score <= threshold
}

// Score converts a raw distance to a [0,1] score, exposed so callers and
// tests can reason about the threshold mapping directly.
func Score(d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(d) / float64(d+similarity.ScoreConstant)
}

func renderHit(item model.IndexedItem, dist int) Hit {
	return Hit{
		ID:        item.ID,
		Name:      item.Name,
		Path:      item.Breadcrumb(),
		Link:      item.Link,
		Docs:      markdown.RewriteLinks(item.Docs, item.DocLinks),
		Signature: RenderSignature(item.Name, item.Signature),
		Distance:  dist,
	}
}
