// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// =============================================================================
// MATCH KINDS
// =============================================================================

// MatchKind identifies which ranking tier matched a candidate.
type MatchKind int

const (
	// MatchNone means no tier matched (or the query was empty).
	MatchNone MatchKind = iota

	// MatchPrefix means the candidate starts with the query.
	MatchPrefix

	// MatchSubsequence means the query occurs in order inside the candidate.
	MatchSubsequence

	// MatchEditDistance means the candidate is within the edit-distance bound.
	MatchEditDistance
)

// String returns the tier name for display and test output.
func (k MatchKind) String() string {
	switch k {
	case MatchPrefix:
		return "prefix"
	case MatchSubsequence:
		return "subsequence"
	case MatchEditDistance:
		return "editdistance"
	default:
		return "none"
	}
}

// CandidateEntry is one scored completion candidate.
type CandidateEntry struct {
	// Text is the candidate string
	Text string

	// Score is the tier score on the 0-100 integer scale
	Score int

	// Kind is the tier that produced the score
	Kind MatchKind

	// Description is the one-line metadata attached by the engine
	Description string
}

// =============================================================================
// RANKER
// =============================================================================

// DefaultThreshold is the minimum score a match must reach to be returned.
const DefaultThreshold = 50

// RankerConfig controls which tiers participate and how results are cached.
// Disabling a tier removes it from the first-applicable chain entirely; the
// remaining tiers are still tried in order.
type RankerConfig struct {
	EnablePrefix      bool
	EnableSubsequence bool
	EnableLevenshtein bool

	// MaxDistance is the largest edit distance the Levenshtein tier accepts.
	MaxDistance int

	// CacheSize bounds the result cache; zero or negative disables caching.
	CacheSize int
}

// DefaultRankerConfig returns the standard three-tier configuration.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		EnablePrefix:      true,
		EnableSubsequence: true,
		EnableLevenshtein: true,
		MaxDistance:       3,
		CacheSize:         256,
	}
}

// Ranker scores query strings against candidate lists using the tiered
// algorithm and memoizes results in a bounded cache.
//
// The cache evicts in insertion order (FIFO), not least-recently-used:
// the keys ring below records insertion order and the oldest key is
// dropped when the cache is full.
type Ranker struct {
	cfg RankerConfig

	mu    sync.Mutex
	cache map[string][]CandidateEntry
	keys  []string
}

// NewRanker creates a ranker with the given configuration.
func NewRanker(cfg RankerConfig) *Ranker {
	return &Ranker{
		cfg:   cfg,
		cache: make(map[string][]CandidateEntry),
	}
}

// Rank scores query against every candidate and returns matches at or
// above threshold, sorted by score descending. Ties keep the candidates'
// original relative order. Entries that no enabled tier matched are
// excluded.
//
// An empty query returns every candidate with score 0 and no tier
// assigned, in input order; this is the "list everything" path and
// bypasses both the threshold and the cache.
func (r *Ranker) Rank(query string, candidates []string, threshold int) []CandidateEntry {
	if query == "" {
		out := make([]CandidateEntry, len(candidates))
		for i, c := range candidates {
			out[i] = CandidateEntry{Text: c, Score: 0, Kind: MatchNone}
		}
		return out
	}

	key := rankCacheKey(query, candidates, threshold)
	if cached, ok := r.cacheGet(key); ok {
		return cached
	}

	results := make([]CandidateEntry, 0, len(candidates))
	for _, candidate := range candidates {
		score, kind := r.matchOne(query, candidate)
		if score <= 0 || score < threshold {
			continue
		}
		results = append(results, CandidateEntry{Text: candidate, Score: score, Kind: kind})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	r.cachePut(key, results)
	return results
}

// matchOne evaluates the tiers in priority order and returns the first
// applicable tier's score. Tiers are never combined.
func (r *Ranker) matchOne(query, candidate string) (int, MatchKind) {
	q := strings.ToLower(query)
	c := strings.ToLower(candidate)

	if r.cfg.EnablePrefix && strings.HasPrefix(c, q) {
		return 100, MatchPrefix
	}

	if r.cfg.EnableSubsequence {
		if score := subsequenceScore([]rune(q), []rune(c)); score > 0 {
			return score, MatchSubsequence
		}
	}

	if r.cfg.EnableLevenshtein {
		distance := levenshtein([]rune(q), []rune(c))
		if distance <= r.cfg.MaxDistance {
			return distanceScore(distance), MatchEditDistance
		}
	}

	return 0, MatchNone
}

// =============================================================================
// SUBSEQUENCE TIER
// =============================================================================

// subsequenceScore returns the subsequence tier score, or 0 when query is
// not an in-order subsequence of candidate. Both inputs are already
// case-folded.
//
// Score = 50 base, plus up to 20 for runs of adjacent matched positions,
// plus 10 when the first characters coincide, plus a length-ratio bonus of
// up to 10; capped at 90.
func subsequenceScore(query, candidate []rune) int {
	if len(query) == 0 || len(candidate) == 0 || len(query) > len(candidate) {
		return 0
	}

	// Greedy left-to-right scan, recording adjacency of matched positions.
	adjacent := 0
	lastPos := -2
	qi := 0
	for ci := 0; ci < len(candidate) && qi < len(query); ci++ {
		if candidate[ci] != query[qi] {
			continue
		}
		if ci == lastPos+1 {
			adjacent++
		}
		lastPos = ci
		qi++
	}
	if qi != len(query) {
		return 0
	}

	score := 50

	runBonus := adjacent * 10
	if runBonus > 20 {
		runBonus = 20
	}
	score += runBonus

	if candidate[0] == query[0] {
		score += 10
	}

	score += int(float64(len(query)) / float64(len(candidate)) * 10)

	if score > 90 {
		score = 90
	}
	return score
}

// =============================================================================
// EDIT-DISTANCE TIER
// =============================================================================

// levenshtein computes the classic unit-cost edit distance with a single
// reused row.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i, ca := range a {
		current := prev[0]
		prev[0] = i + 1
		for j, cb := range b {
			cost := 0
			if ca != cb {
				cost = 1
			}
			next := min3(prev[j+1]+1, prev[j]+1, current+cost)
			current = prev[j+1]
			prev[j+1] = next
		}
	}
	return prev[len(b)]
}

// distanceScore maps an edit distance to its tier score. Distance 0 only
// occurs when the earlier tiers are disabled (equal strings otherwise match
// the prefix tier first); it is clamped to the tier ceiling of 80.
func distanceScore(distance int) int {
	switch distance {
	case 0:
		return 80
	case 1:
		return 80
	case 2:
		return 60
	case 3:
		return 40
	}
	score := 40 - (distance-3)*10
	if score < 0 {
		return 0
	}
	return score
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// =============================================================================
// RESULT CACHE (FIFO)
// =============================================================================

// rankCacheKey builds the cache key from the query, the ordered candidate
// list, and the threshold.
func rankCacheKey(query string, candidates []string, threshold int) string {
	var b strings.Builder
	b.WriteString(query)
	b.WriteByte(0)
	for _, c := range candidates {
		b.WriteString(c)
		b.WriteByte(0x1f)
	}
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(threshold))
	return b.String()
}

func (r *Ranker) cacheGet(key string) ([]CandidateEntry, bool) {
	if r.cfg.CacheSize <= 0 {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, ok := r.cache[key]
	if !ok {
		return nil, false
	}
	out := make([]CandidateEntry, len(entries))
	copy(out, entries)
	return out, true
}

func (r *Ranker) cachePut(key string, entries []CandidateEntry) {
	if r.cfg.CacheSize <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cache[key]; ok {
		return
	}
	if len(r.keys) >= r.cfg.CacheSize {
		oldest := r.keys[0]
		r.keys = r.keys[1:]
		delete(r.cache, oldest)
	}
	stored := make([]CandidateEntry, len(entries))
	copy(stored, entries)
	r.cache[key] = stored
	r.keys = append(r.keys, key)
}

// CacheLen reports the number of cached results; used by tests.
func (r *Ranker) CacheLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
