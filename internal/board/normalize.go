package board

import (
	"sort"

	"boardwatch/internal/models"
)

// Normalize groups entries by trading date (newest first), drops duplicate
// stock codes per date, orders by net inflow and assigns dense ranks.
//
// Among duplicates an entry carrying a lower prior rank wins; unranked
// duplicates resolve to the one with the higher net inflow, then arrival order.
// The output is deterministic and Normalize(Normalize(x)) == Normalize(x).
func Normalize(entries []models.BoardEntry, topN int) []models.BoardEntry {
	if len(entries) == 0 {
		return []models.BoardEntry{}
	}

	groups := map[string][]models.BoardEntry{}
	dates := make([]string, 0)
	for _, e := range entries {
		if _, ok := groups[e.TradingDate]; !ok {
			dates = append(dates, e.TradingDate)
		}
		groups[e.TradingDate] = append(groups[e.TradingDate], e)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	out := make([]models.BoardEntry, 0, len(entries))
	for _, date := range dates {
		out = append(out, normalizeDay(groups[date], topN)...)
	}
	return out
}

func normalizeDay(group []models.BoardEntry, topN int) []models.BoardEntry {
	sorted := make([]models.BoardEntry, len(group))
	copy(sorted, group)
	sortByInflow(sorted)

	kept := make([]models.BoardEntry, 0, len(sorted))
	index := map[string]int{}
	for _, e := range sorted {
		i, seen := index[e.StockCode]
		if !seen {
			index[e.StockCode] = len(kept)
			kept = append(kept, e)
			continue
		}
		if betterRank(e, kept[i]) {
			kept[i] = e
		}
	}

	// A replacement can carry a different inflow than the entry it displaced.
	sortByInflow(kept)

	if topN > 0 && len(kept) > topN {
		kept = kept[:topN]
	}
	for i := range kept {
		kept[i].Rank = i + 1
	}
	return kept
}

func sortByInflow(items []models.BoardEntry) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].NetInflow.GreaterThan(items[j].NetInflow)
	})
}

// betterRank reports whether candidate should replace the kept duplicate.
func betterRank(candidate, kept models.BoardEntry) bool {
	if candidate.Rank <= 0 {
		return false
	}
	if kept.Rank <= 0 {
		return true
	}
	return candidate.Rank < kept.Rank
}
