package indexer

import (
	"math"
	"sort"

	"docrag/internal/chunking"
)

// ChunkStats summarizes a chunk list.
type ChunkStats struct {
	// Count is the number of chunks with text.
	Count int `json:"count"`
	// Sentinels counts placeholder chunks for empty or unreadable documents.
	Sentinels int `json:"sentinels"`
	// ForcedSplits counts chunks produced by splitting an oversized chunk.
	ForcedSplits int `json:"forced_splits"`
	// Size contains statistics about chunk sizes in runes.
	Size SizeStats `json:"size"`
	// Kinds counts how many chunks contain each block kind.
	Kinds map[string]int `json:"kinds"`
	// Types counts chunks by their type label.
	Types map[string]int `json:"types"`
}

// SizeStats contains statistics about chunk sizes.
type SizeStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// ComputeChunkStats computes statistics over chunks. Sentinels are counted but
// excluded from size, kind and type figures.
func ComputeChunkStats(chunks []chunking.Chunk) ChunkStats {
	stats := ChunkStats{
		Kinds: make(map[string]int),
		Types: make(map[string]int),
	}

	sizes := make([]int, 0, len(chunks))
	for _, c := range chunks {
		if c.IsSentinel() {
			stats.Sentinels++
			continue
		}
		stats.Count++
		if c.Note == chunking.NoteForceSplit {
			stats.ForcedSplits++
		}
		for _, k := range c.Kinds {
			stats.Kinds[k.String()]++
		}
		stats.Types[c.Type]++
		sizes = append(sizes, c.Size)
	}

	stats.Size = computeSizeStats(sizes)
	return stats
}

// computeSizeStats computes min, max, mean, and p95 from sizes.
func computeSizeStats(sizes []int) SizeStats {
	if len(sizes) == 0 {
		return SizeStats{}
	}

	// Sort for percentile calculation
	sorted := make([]int, len(sizes))
	copy(sorted, sizes)
	sort.Ints(sorted)

	sum := 0
	for _, s := range sizes {
		sum += s
	}
	mean := float64(sum) / float64(len(sizes))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return SizeStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
