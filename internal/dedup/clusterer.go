// Package dedup implements cross-source URL canonicalization and
// MinHash-LSH near-duplicate clustering of Items (spec component E).
package dedup

import (
	"fmt"
	"sort"

	"newsloom/internal/core"
)

const defaultSimilarityThreshold = 0.85

// contentPreviewChars bounds how much body text feeds the clustering key,
// matching the scorer's and the original clusterer's 500-char window.
const contentPreviewChars = 500

// Clusterer groups near-duplicate items by exact canonical-URL match and by
// MinHash-LSH content similarity among URL-cluster representatives.
type Clusterer struct {
	similarityThreshold float64
}

// Option configures a Clusterer.
type Option func(*Clusterer)

// WithSimilarityThreshold overrides the default 0.85 Jaccard threshold used
// to merge content-similar URL clusters.
func WithSimilarityThreshold(t float64) Option {
	return func(c *Clusterer) { c.similarityThreshold = t }
}

// New builds a Clusterer. A fresh instance is expected per digest run; its
// LSH index and union-find state are not meant to be shared across runs.
func New(opts ...Option) *Clusterer {
	c := &Clusterer{similarityThreshold: defaultSimilarityThreshold}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cluster groups items by canonical URL then by content similarity,
// tagging every item's ClusterID and IsRepresentative fields in place.
// It returns the final cluster id -> items mapping.
func (c *Clusterer) Cluster(items []*core.Item) map[string][]*core.Item {
	if len(items) == 0 {
		return map[string][]*core.Item{}
	}

	// Phase A: exact canonical-URL grouping, in first-seen order for
	// determinism.
	var urlOrder []string
	urlGroups := make(map[string][]*core.Item)
	for _, item := range items {
		canon := item.URLCanonical
		if canon == "" {
			canon = CanonicalURL(item.URL)
			item.URLCanonical = canon
		}
		if _, ok := urlGroups[canon]; !ok {
			urlOrder = append(urlOrder, canon)
		}
		urlGroups[canon] = append(urlGroups[canon], item)
	}

	type clusterRep struct {
		clusterID string
		rep       *core.Item
		sig       Signature
	}

	clusters := make(map[string][]*core.Item, len(urlOrder))
	reps := make([]clusterRep, 0, len(urlOrder))
	idxByCluster := make(map[string]int, len(urlOrder))

	for i, canon := range urlOrder {
		cid := fmt.Sprintf("c%06d", i)
		group := urlGroups[canon]
		clusters[cid] = group
		rep := pickRepresentative(group)
		key := clusteringKey(rep)
		reps = append(reps, clusterRep{clusterID: cid, rep: rep, sig: ComputeMinHash(key)})
		idxByCluster[cid] = i
	}

	// Phase B: LSH candidate generation + exact Jaccard verification.
	lsh := NewLSHIndex()
	for _, r := range reps {
		lsh.Insert(r.clusterID, r.sig)
	}

	uf := newUnionFind(len(reps))
	for i, r := range reps {
		candidates := lsh.QueryCandidates(r.sig)
		for otherID := range candidates {
			if otherID == r.clusterID {
				continue
			}
			j := idxByCluster[otherID]
			if uf.find(i) == uf.find(j) {
				continue
			}
			sim := Similarity(r.sig, reps[j].sig)
			if sim >= c.similarityThreshold {
				uf.union(i, j)
			}
		}
	}

	// Merge URL-clusters by union-find root, in first-seen order.
	rootOrder := make([]int, 0, len(reps))
	seenRoot := make(map[int]bool, len(reps))
	mergedByRoot := make(map[int][]*core.Item, len(reps))
	for i, r := range reps {
		root := uf.find(i)
		if !seenRoot[root] {
			seenRoot[root] = true
			rootOrder = append(rootOrder, root)
		}
		mergedByRoot[root] = append(mergedByRoot[root], clusters[r.clusterID]...)
	}

	final := make(map[string][]*core.Item, len(rootOrder))
	for _, root := range rootOrder {
		group := mergedByRoot[root]
		finalID := fmt.Sprintf("c%06d", root)
		rep := pickRepresentative(group)
		for _, item := range group {
			item.ClusterID = finalID
			item.IsRepresentative = item.ID == rep.ID
		}
		final[finalID] = group
	}
	return final
}

// clusteringKey builds the normalized title+content key used as MinHash
// input for a URL-cluster representative.
func clusteringKey(item *core.Item) string {
	return NormalizeText(item.Title + " " + truncateRunes(item.Content, contentPreviewChars))
}

// truncateRunes trims s to at most n runes, never splitting a multi-byte
// UTF-8 sequence the way a byte-index slice would.
func truncateRunes(s string, n int) string {
	if n < 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// pickRepresentative chooses the best item in a group deterministically:
// longest content wins; ties break by earlier published_at, then by id.
// This substitutes for the original's `-hash(published_at)` tie-break,
// which relied on Python's non-portable process-randomized hash() builtin
// and cannot be reproduced identically across runtimes or runs.
func pickRepresentative(group []*core.Item) *core.Item {
	best := group[0]
	for _, item := range group[1:] {
		if better(item, best) {
			best = item
		}
	}
	return best
}

func better(a, b *core.Item) bool {
	if len(a.Content) != len(b.Content) {
		return len(a.Content) > len(b.Content)
	}
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.Before(b.PublishedAt)
	}
	return a.ID < b.ID
}

// sortItemsByID is a small helper used by tests to get a deterministic
// iteration order over a cluster's members.
func sortItemsByID(items []*core.Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
