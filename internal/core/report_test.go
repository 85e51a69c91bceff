package core

import "testing"

func purchase(id, item, store string, date Date, priceCents int64, qty float64) Purchase {
	return Purchase{
		ID:         id,
		ItemID:     item,
		ItemName:   item,
		StoreID:    store,
		StoreName:  store,
		Date:       date,
		PriceCents: priceCents,
		Quantity:   qty,
		Unit:       "pcs",
		TotalCents: TotalCents(priceCents, qty),
	}
}

func TestRecent(t *testing.T) {
	var ps []Purchase
	for i := 1; i <= 7; i++ {
		ps = append(ps, purchase("p", "Milk", "Walmart", NewDate(2024, 1, i), 100, 1))
	}
	got := Recent(ps, 5)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for i, want := range []string{"2024-01-07", "2024-01-06", "2024-01-05", "2024-01-04", "2024-01-03"} {
		if got[i].Date.Key() != want {
			t.Fatalf("entry %d = %s, want %s", i, got[i].Date.Key(), want)
		}
	}
}

func TestRecentStableOnTies(t *testing.T) {
	day := NewDate(2024, 1, 1)
	ps := []Purchase{
		purchase("a", "Milk", "Walmart", day, 100, 1),
		purchase("b", "Eggs", "Target", day, 100, 1),
		purchase("c", "Rice", "Costco", day, 100, 1),
	}
	got := Recent(ps, 3)
	for i, id := range []string{"a", "b", "c"} {
		if got[i].ID != id {
			t.Fatalf("entry %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestRecentEmptyAndShort(t *testing.T) {
	if got := Recent(nil, 5); len(got) != 0 {
		t.Fatalf("empty input: len = %d", len(got))
	}
	ps := []Purchase{purchase("a", "Milk", "Walmart", NewDate(2024, 1, 1), 100, 1)}
	if got := Recent(ps, 5); len(got) != 1 {
		t.Fatalf("short input: len = %d", len(got))
	}
}

func TestRunningTotal(t *testing.T) {
	ps := []Purchase{
		purchase("a", "Milk", "Walmart", NewDate(2024, 1, 1), 300, 2),
		purchase("b", "Milk", "Target", NewDate(2024, 2, 1), 400, 1),
	}
	if got := RunningTotal(ps); got != 1000 {
		t.Fatalf("running total = %d, want 1000", got)
	}
	if got := RunningTotal(nil); got != 0 {
		t.Fatalf("empty running total = %d", got)
	}
}

func TestCompareByItem(t *testing.T) {
	ps := []Purchase{
		purchase("a", "Milk", "Walmart", NewDate(2024, 1, 1), 300, 2),
		purchase("b", "Eggs", "Target", NewDate(2024, 1, 2), 250, 1),
		purchase("c", "Milk", "Target", NewDate(2024, 2, 1), 400, 1),
		purchase("d", "Milk", "Walmart", NewDate(2024, 3, 1), 350, 1),
	}
	groups := CompareByItem(ps)
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1 (single-record Eggs excluded)", len(groups))
	}
	g := groups[0]
	if g.ItemName != "Milk" {
		t.Fatalf("item = %q", g.ItemName)
	}
	if g.BestPriceCents != 300 {
		t.Fatalf("best price = %d, want 300", g.BestPriceCents)
	}
	if g.DistinctStores != 2 {
		t.Fatalf("distinct stores = %d, want 2", g.DistinctStores)
	}
	if len(g.History) != 3 {
		t.Fatalf("history len = %d, want 3", len(g.History))
	}
}

func TestCompareByItemEmpty(t *testing.T) {
	if groups := CompareByItem(nil); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

func TestDailyTotals(t *testing.T) {
	ps := []Purchase{
		purchase("a", "Milk", "Walmart", NewDate(2024, 1, 1), 300, 1),
		purchase("b", "Eggs", "Walmart", NewDate(2024, 1, 1), 200, 1),
		purchase("c", "Rice", "Costco", NewDate(2024, 1, 3), 500, 1),
	}
	days := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	got := DailyTotals(ps, days)
	want := []int64{500, 0, 500}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("day %s = %d, want %d", days[i], got[i], want[i])
		}
	}
}

func TestLastNDays(t *testing.T) {
	days := LastNDays(NewDate(2024, 1, 3), 7)
	if len(days) != 7 {
		t.Fatalf("len = %d, want 7", len(days))
	}
	if days[0] != "2023-12-28" || days[6] != "2024-01-03" {
		t.Fatalf("window = %v", days)
	}
}

func TestTrendRangeAndOrder(t *testing.T) {
	ps := []Purchase{
		purchase("a", "Milk", "Walmart", NewDate(2024, 1, 1), 300, 2),
		purchase("b", "Milk", "Target", NewDate(2024, 2, 1), 400, 1),
		purchase("c", "Milk", "Target", NewDate(2023, 1, 15), 250, 1),
	}
	series := Trend(ps, NewDate(2024, 1, 1), NewDate(2024, 2, 1))
	if len(series) != 32 {
		t.Fatalf("series len = %d, want 32", len(series))
	}
	if series[0].Day.Key() != "2024-01-01" || series[31].Day.Key() != "2024-02-01" {
		t.Fatalf("bounds = %s .. %s", series[0].Day.Key(), series[31].Day.Key())
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Day.AfterDate(series[i-1].Day) {
			t.Fatalf("series not ascending at %d", i)
		}
	}
	if series[0].CurrentCents != 600 {
		t.Fatalf("jan 1 current = %d, want 600", series[0].CurrentCents)
	}
	if series[31].CurrentCents != 400 {
		t.Fatalf("feb 1 current = %d, want 400", series[31].CurrentCents)
	}
	// 2024-01-15 pairs with 2023-01-15
	if series[14].PreviousCents != 250 {
		t.Fatalf("jan 15 previous = %d, want 250", series[14].PreviousCents)
	}
}

func TestTrendLeapDayPairsWithFeb28(t *testing.T) {
	ps := []Purchase{
		purchase("a", "Milk", "Walmart", NewDate(2023, 2, 28), 123, 1),
	}
	series := Trend(ps, NewDate(2024, 2, 29), NewDate(2024, 2, 29))
	if len(series) != 1 {
		t.Fatalf("series len = %d, want 1", len(series))
	}
	if series[0].PreviousCents != 123 {
		t.Fatalf("leap day previous = %d, want 123", series[0].PreviousCents)
	}
}

func TestTrendInvertedRange(t *testing.T) {
	if series := Trend(nil, NewDate(2024, 2, 1), NewDate(2024, 1, 1)); len(series) != 0 {
		t.Fatalf("inverted range: len = %d", len(series))
	}
}

func TestTopItems(t *testing.T) {
	ps := []Purchase{
		purchase("a", "Milk", "Walmart", NewDate(2024, 1, 1), 300, 1),
		purchase("b", "Eggs", "Walmart", NewDate(2024, 1, 2), 900, 1),
		purchase("c", "Rice", "Costco", NewDate(2024, 1, 3), 100, 1),
		purchase("d", "Milk", "Target", NewDate(2024, 1, 4), 300, 1),
		purchase("e", "Soap", "Target", NewDate(2024, 3, 1), 5000, 1), // outside range
	}
	top := TopItems(ps, NewDate(2024, 1, 1), NewDate(2024, 1, 31), 2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].ItemName != "Eggs" || top[0].TotalCents != 900 {
		t.Fatalf("top[0] = %+v", top[0])
	}
	if top[1].ItemName != "Milk" || top[1].TotalCents != 600 {
		t.Fatalf("top[1] = %+v", top[1])
	}
}

func TestTopItemsInclusiveBounds(t *testing.T) {
	ps := []Purchase{
		purchase("a", "Milk", "Walmart", NewDate(2024, 1, 1), 100, 1),
		purchase("b", "Eggs", "Walmart", NewDate(2024, 1, 31), 200, 1),
	}
	top := TopItems(ps, NewDate(2024, 1, 1), NewDate(2024, 1, 31), 5)
	if len(top) != 2 {
		t.Fatalf("both boundary days should be included, got %d", len(top))
	}
}

func TestFavoritesRankingAndTies(t *testing.T) {
	day := func(d int) Date { return NewDate(2024, 1, d) }
	var ps []Purchase
	add := func(item string, n int) {
		for i := 0; i < n; i++ {
			ps = append(ps, purchase("p", item, "Walmart", day(i+1), 100, 1))
		}
	}
	add("Milk", 5)
	add("Eggs", 3)
	add("Rice", 3)
	add("Soap", 1)

	favs := Favorites(ps, 4)
	if len(favs) != 4 {
		t.Fatalf("len = %d, want 4", len(favs))
	}
	wantOrder := []string{"Milk", "Eggs", "Rice", "Soap"}
	for i, want := range wantOrder {
		if favs[i].ItemName != want {
			t.Fatalf("rank %d = %q, want %q", i, favs[i].ItemName, want)
		}
	}
	if favs[0].Count != 5 {
		t.Fatalf("milk count = %d, want 5", favs[0].Count)
	}
	if favs[0].Latest.Date.Key() != "2024-01-05" {
		t.Fatalf("milk latest = %s, want 2024-01-05", favs[0].Latest.Date.Key())
	}
}

func TestFavoritesLimit(t *testing.T) {
	ps := []Purchase{
		purchase("a", "Milk", "Walmart", NewDate(2024, 1, 1), 100, 1),
	}
	if favs := Favorites(ps, 4); len(favs) != 1 {
		t.Fatalf("len = %d, want 1", len(favs))
	}
	if favs := Favorites(nil, 4); len(favs) != 0 {
		t.Fatalf("empty: len = %d", len(favs))
	}
}

// End-to-end scenario from the reporting flow: two milk purchases across two
// months.
func TestReportScenario(t *testing.T) {
	ps := []Purchase{
		purchase("a", "Milk", "Walmart", NewDate(2024, 1, 1), 300, 2),
		purchase("b", "Milk", "Target", NewDate(2024, 2, 1), 400, 1),
	}
	if got := RunningTotal(ps); got != 1000 {
		t.Fatalf("running total = %d, want 1000", got)
	}
	groups := CompareByItem(ps)
	if len(groups) != 1 || groups[0].BestPriceCents != 300 || groups[0].DistinctStores != 2 {
		t.Fatalf("comparison = %+v", groups)
	}
	series := Trend(ps, NewDate(2024, 1, 1), NewDate(2024, 2, 1))
	if len(series) != 32 {
		t.Fatalf("trend len = %d, want 32", len(series))
	}
}
