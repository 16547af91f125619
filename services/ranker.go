package services

import (
	"container/heap"
	"sort"

	"imdb-rank/models"
)

// ranksBefore is the export order: weighted rating descending, then vote
// count descending, then identifier ascending. Identifiers are unique after
// the join, so this is a total order and the export does not depend on input
// order.
func ranksBefore(a, b *models.ScoredRecord) bool {
	if a.WeightedRating != b.WeightedRating {
		return a.WeightedRating > b.WeightedRating
	}
	if a.NumVotes != b.NumVotes {
		return a.NumVotes > b.NumVotes
	}
	return a.TConst < b.TConst
}

// worstFirst is a heap whose root is the lowest-ranked record kept.
type worstFirst []*models.ScoredRecord

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return ranksBefore(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(*models.ScoredRecord)) }
func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Ranker keeps the top N scored records seen so far. Memory is bounded by N
// regardless of how many records are pushed.
type Ranker struct {
	limit int
	heap  worstFirst
	seen  int
}

// NewRanker creates a Ranker retaining at most limit records.
func NewRanker(limit int) *Ranker {
	return &Ranker{limit: limit, heap: make(worstFirst, 0, min(limit, 1024))}
}

// Push offers one record.
func (r *Ranker) Push(rec *models.ScoredRecord) {
	r.seen++
	if r.limit <= 0 {
		return
	}
	if len(r.heap) < r.limit {
		heap.Push(&r.heap, rec)
		return
	}
	if ranksBefore(rec, r.heap[0]) {
		r.heap[0] = rec
		heap.Fix(&r.heap, 0)
	}
}

// Seen returns how many records were offered.
func (r *Ranker) Seen() int {
	return r.seen
}

// Result returns the retained records in export order with 0-based indexes.
// The ranker is left untouched.
func (r *Ranker) Result() []*models.RankedExportRecord {
	sorted := make([]*models.ScoredRecord, len(r.heap))
	copy(sorted, r.heap)
	sort.Slice(sorted, func(i, j int) bool { return ranksBefore(sorted[i], sorted[j]) })

	out := make([]*models.RankedExportRecord, len(sorted))
	for i, s := range sorted {
		out[i] = &models.RankedExportRecord{
			Index:          i,
			TConst:         s.TConst,
			AverageRating:  s.AverageRating,
			NumVotes:       s.NumVotes,
			WeightedRating: s.WeightedRating,
			PrimaryTitle:   s.PrimaryTitle,
			StartYear:      s.StartYear,
			RuntimeMinutes: s.RuntimeMinutes,
		}
	}
	return out
}

// Rank sorts and truncates a scored table in one call.
func Rank(scored []*models.ScoredRecord, limit int) []*models.RankedExportRecord {
	r := NewRanker(limit)
	for _, s := range scored {
		r.Push(s)
	}
	return r.Result()
}
