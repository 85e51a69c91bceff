package core

import "sort"

// The aggregation engine. Every function here is pure and total over any
// purchase list, including the empty one; callers hand in the full
// in-memory history of a single user.

type (
	// ComparisonGroup is the price-history view for one item bought more
	// than once.
	ComparisonGroup struct {
		ItemName       string     `json:"itemName"`
		BestPriceCents int64      `json:"bestPriceCents"`
		DistinctStores int        `json:"distinctStores"`
		History        []Purchase `json:"history"`
	}

	// TrendPoint pairs one day's spending with the same calendar day one
	// year earlier.
	TrendPoint struct {
		Day           Date  `json:"day"`
		CurrentCents  int64 `json:"currentCents"`
		PreviousCents int64 `json:"previousCents"`
	}

	// ItemTotal is an item's summed spending within a range.
	ItemTotal struct {
		ItemName   string `json:"itemName"`
		TotalCents int64  `json:"totalCents"`
	}

	// Favorite is a frequently bought item together with its most recent
	// purchase, used to seed quick re-entry defaults.
	Favorite struct {
		ItemName string   `json:"itemName"`
		Count    int      `json:"count"`
		Latest   Purchase `json:"latest"`
	}
)

// Recent returns up to limit purchases sorted by date descending. The sort
// is stable, so same-day purchases keep their original relative order.
func Recent(purchases []Purchase, limit int) []Purchase {
	if limit < 0 {
		limit = 0
	}
	sorted := make([]Purchase, len(purchases))
	copy(sorted, purchases)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.AfterDate(sorted[j].Date)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// RunningTotal sums TotalCents across the whole list.
func RunningTotal(purchases []Purchase) int64 {
	var sum int64
	for _, p := range purchases {
		sum += p.TotalCents
	}
	return sum
}

// CompareByItem partitions purchases by exact item name and reports, per
// item, the minimum unit price seen and the number of distinct stores.
// Items with a single record are dropped: one data point has nothing to
// compare against. Groups come back in first-encountered item order.
func CompareByItem(purchases []Purchase) []ComparisonGroup {
	index := make(map[string]int)
	var groups []ComparisonGroup
	for _, p := range purchases {
		i, ok := index[p.ItemName]
		if !ok {
			i = len(groups)
			index[p.ItemName] = i
			groups = append(groups, ComparisonGroup{ItemName: p.ItemName, BestPriceCents: p.PriceCents})
		}
		g := &groups[i]
		if p.PriceCents < g.BestPriceCents {
			g.BestPriceCents = p.PriceCents
		}
		g.History = append(g.History, p)
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.History) < 2 {
			continue
		}
		stores := make(map[string]struct{}, len(g.History))
		for _, p := range g.History {
			stores[p.StoreName] = struct{}{}
		}
		g.DistinctStores = len(stores)
		out = append(out, g)
	}
	return out
}

// DailyTotals sums spending per requested day key (YYYY-MM-DD), returning
// one entry per key in the same order, zero for days with no purchases.
func DailyTotals(purchases []Purchase, days []string) []int64 {
	byDay := make(map[string]int64, len(days))
	for _, p := range purchases {
		byDay[p.Date.Key()] += p.TotalCents
	}
	totals := make([]int64, len(days))
	for i, day := range days {
		totals[i] = byDay[day]
	}
	return totals
}

// LastNDays returns the day keys for the n days ending at end, oldest
// first, matching the dashboard's activity chart window.
func LastNDays(end Date, n int) []string {
	if n <= 0 {
		return nil
	}
	days := make([]string, n)
	for i := 0; i < n; i++ {
		days[i] = end.AddDays(i - (n - 1)).Key()
	}
	return days
}

// Trend walks every calendar day in [start, end] inclusive and pairs the
// day's total with the total of the same calendar day one year earlier.
// An inverted range yields an empty series.
func Trend(purchases []Purchase, start, end Date) []TrendPoint {
	if start.AfterDate(end) {
		return nil
	}
	byDay := make(map[string]int64)
	for _, p := range purchases {
		byDay[p.Date.Key()] += p.TotalCents
	}
	var series []TrendPoint
	for d := start; !d.AfterDate(end); d = d.AddDays(1) {
		series = append(series, TrendPoint{
			Day:           d,
			CurrentCents:  byDay[d.Key()],
			PreviousCents: byDay[d.YearEarlier().Key()],
		})
	}
	return series
}

// TopItems sums spending per item name for purchases within [start, end]
// inclusive and returns the top limit items by total, descending. Ties
// keep first-encountered order.
func TopItems(purchases []Purchase, start, end Date, limit int) []ItemTotal {
	index := make(map[string]int)
	var totals []ItemTotal
	for _, p := range purchases {
		if p.Date.BeforeDate(start) || p.Date.AfterDate(end) {
			continue
		}
		i, ok := index[p.ItemName]
		if !ok {
			i = len(totals)
			index[p.ItemName] = i
			totals = append(totals, ItemTotal{ItemName: p.ItemName})
		}
		totals[i].TotalCents += p.TotalCents
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].TotalCents > totals[j].TotalCents
	})
	if limit >= 0 && len(totals) > limit {
		totals = totals[:limit]
	}
	return totals
}

// Favorites ranks items by purchase count, descending, ties broken by
// first-encountered order, and pairs each of the top limit items with its
// most recent purchase.
func Favorites(purchases []Purchase, limit int) []Favorite {
	index := make(map[string]int)
	var favs []Favorite
	for _, p := range purchases {
		i, ok := index[p.ItemName]
		if !ok {
			i = len(favs)
			index[p.ItemName] = i
			favs = append(favs, Favorite{ItemName: p.ItemName, Latest: p})
		}
		f := &favs[i]
		f.Count++
		if p.Date.AfterDate(f.Latest.Date) {
			f.Latest = p
		}
	}
	sort.SliceStable(favs, func(i, j int) bool {
		return favs[i].Count > favs[j].Count
	})
	if limit >= 0 && len(favs) > limit {
		favs = favs[:limit]
	}
	return favs
}
