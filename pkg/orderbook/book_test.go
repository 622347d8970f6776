package orderbook

import (
	"errors"
	"fmt"
	"testing"
)

func limit(t *testing.T, id string, side Side, price string, qty int64) *Order {
	t.Helper()
	o, err := NewLimitOrder(id, side, MustParsePrice(price), qty)
	if err != nil {
		t.Fatalf("NewLimitOrder(%s): %v", id, err)
	}
	return o
}

func market(t *testing.T, id string, side Side, qty int64) *Order {
	t.Helper()
	o, err := NewMarketOrder(id, side, qty)
	if err != nil {
		t.Fatalf("NewMarketOrder(%s): %v", id, err)
	}
	return o
}

func mustPlace(t *testing.T, ob *OrderBook, o *Order) FillOutcome {
	t.Helper()
	out, err := ob.Place(o)
	if err != nil {
		t.Fatalf("Place(%s): %v", o.ID, err)
	}
	return out
}

// restingVolume sums both sides of the book.
func restingVolume(ob *OrderBook) int64 {
	var sum int64
	for _, lv := range ob.BidLevels() {
		sum += lv.Qty
	}
	for _, lv := range ob.AskLevels() {
		sum += lv.Qty
	}
	return sum
}

func TestPlace_LimitRestsWhenNotCrossing(t *testing.T) {
	ob := NewOrderBook()

	out := mustPlace(t, ob, limit(t, "b1", Bid, "100", 10))
	if out.FilledQty != 0 || out.RemainingQty != 10 || len(out.Fills) != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	best, ok := ob.BestBid()
	if !ok || best != MustParsePrice("100") {
		t.Fatalf("best bid = %v %v, want 100", best, ok)
	}
	if _, ok := ob.BestAsk(); ok {
		t.Fatalf("ask side should be empty")
	}
}

func TestPlace_FIFOWithinLevel(t *testing.T) {
	ob := NewOrderBook()
	mustPlace(t, ob, limit(t, "o1", Ask, "10", 100))
	mustPlace(t, ob, limit(t, "o2", Ask, "10", 50))
	mustPlace(t, ob, limit(t, "o3", Ask, "10", 30))

	out := mustPlace(t, ob, market(t, "taker", Bid, 120))

	if out.FilledQty != 120 || out.RemainingQty != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	// o1 consumed fully, o2 partially; o3 untouched.
	want := []Fill{
		{TakerID: "taker", MakerID: "o1", Price: MustParsePrice("10"), Qty: 100},
		{TakerID: "taker", MakerID: "o2", Price: MustParsePrice("10"), Qty: 20},
	}
	if len(out.Fills) != len(want) {
		t.Fatalf("fills = %+v, want %+v", out.Fills, want)
	}
	for i := range want {
		if out.Fills[i] != want[i] {
			t.Fatalf("fill[%d] = %+v, want %+v", i, out.Fills[i], want[i])
		}
	}

	levels := ob.AskLevels()
	if len(levels) != 1 || levels[0].Qty != 60 {
		t.Fatalf("ask levels = %+v, want one level with qty 60", levels)
	}
	// o1 is gone from the book, so its cancellation must now fail,
	// while o2 (partially filled) is still cancellable.
	if ob.Cancel("o1") {
		t.Fatalf("cancelled a fully consumed order")
	}
	if !ob.Cancel("o2") {
		t.Fatalf("could not cancel partially filled order")
	}
}

func TestPlace_BestPriceSweep(t *testing.T) {
	ob := NewOrderBook()
	mustPlace(t, ob, limit(t, "a1", Ask, "11", 5))
	mustPlace(t, ob, limit(t, "a2", Ask, "10", 5))

	out := mustPlace(t, ob, market(t, "taker", Bid, 8))

	if out.FilledQty != 8 || out.RemainingQty != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	// All of price 10 before any of price 11.
	if out.Fills[0].Price != MustParsePrice("10") || out.Fills[0].Qty != 5 {
		t.Fatalf("first fill = %+v, want 5 @ 10", out.Fills[0])
	}
	if out.Fills[1].Price != MustParsePrice("11") || out.Fills[1].Qty != 3 {
		t.Fatalf("second fill = %+v, want 3 @ 11", out.Fills[1])
	}
}

func TestPlace_MarketPartialFill(t *testing.T) {
	ob := NewOrderBook()
	mustPlace(t, ob, limit(t, "a1", Ask, "10", 30))

	out := mustPlace(t, ob, market(t, "taker", Bid, 50))

	if out.FilledQty != 30 || out.RemainingQty != 20 {
		t.Fatalf("outcome = %+v, want filled 30 remaining 20", out)
	}
	// The unfilled market remainder never rests.
	if _, ok := ob.BestBid(); ok {
		t.Fatalf("market remainder rested on the book")
	}
	if _, ok := ob.BestAsk(); ok {
		t.Fatalf("ask side should be exhausted")
	}
}

func TestPlace_EmptyLevelPruned(t *testing.T) {
	ob := NewOrderBook()
	mustPlace(t, ob, limit(t, "a1", Ask, "10", 5))
	mustPlace(t, ob, limit(t, "a2", Ask, "12", 5))

	mustPlace(t, ob, market(t, "t1", Bid, 5))

	best, ok := ob.BestAsk()
	if !ok || best != MustParsePrice("12") {
		t.Fatalf("best ask = %v %v, want 12 after pruning 10", best, ok)
	}

	mustPlace(t, ob, market(t, "t2", Bid, 5))
	if _, ok := ob.BestAsk(); ok {
		t.Fatalf("ask side should report empty after both levels drained")
	}
	if len(ob.AskLevels()) != 0 {
		t.Fatalf("ask levels not pruned: %+v", ob.AskLevels())
	}
}

func TestPlace_CrossingLimitMatchesThenRests(t *testing.T) {
	ob := NewOrderBook()
	mustPlace(t, ob, limit(t, "a1", Ask, "10", 5))

	// Bid at 11 crosses the ask at 10: fill 5 at the maker's price,
	// rest the remaining 3 at 11.
	out := mustPlace(t, ob, limit(t, "b1", Bid, "11", 8))

	if out.FilledQty != 5 || out.RemainingQty != 3 {
		t.Fatalf("outcome = %+v, want filled 5 remaining 3", out)
	}
	if out.Fills[0].Price != MustParsePrice("10") {
		t.Fatalf("crossed fill at %s, want maker price 10", out.Fills[0].Price)
	}

	best, ok := ob.BestBid()
	if !ok || best != MustParsePrice("11") {
		t.Fatalf("best bid = %v %v, want remainder resting at 11", best, ok)
	}
	if _, ok := ob.BestAsk(); ok {
		t.Fatalf("ask side should be empty after cross")
	}
}

func TestPlace_NonCrossingLimitDoesNotMatch(t *testing.T) {
	ob := NewOrderBook()
	mustPlace(t, ob, limit(t, "a1", Ask, "10", 5))

	out := mustPlace(t, ob, limit(t, "b1", Bid, "9", 5))
	if out.FilledQty != 0 || len(out.Fills) != 0 {
		t.Fatalf("bid 9 matched against ask 10: %+v", out)
	}

	bb, _ := ob.BestBid()
	ba, _ := ob.BestAsk()
	if bb != MustParsePrice("9") || ba != MustParsePrice("10") {
		t.Fatalf("book state bb=%s ba=%s", bb, ba)
	}
}

func TestPlace_VolumeConservation(t *testing.T) {
	ob := NewOrderBook()
	for i := 0; i < 10; i++ {
		mustPlace(t, ob, limit(t, fmt.Sprintf("a%d", i), Ask, fmt.Sprintf("%d", 100+i), int64(10+i)))
		mustPlace(t, ob, limit(t, fmt.Sprintf("b%d", i), Bid, fmt.Sprintf("%d", 90-i), int64(5+i)))
	}

	before := restingVolume(ob)
	var matched int64

	out := mustPlace(t, ob, market(t, "m1", Bid, 37))
	matched += out.FilledQty
	out = mustPlace(t, ob, market(t, "m2", Ask, 21))
	matched += out.FilledQty
	out = mustPlace(t, ob, limit(t, "x1", Bid, "104", 50)) // crosses several ask levels, remainder rests
	matched += out.FilledQty

	after := restingVolume(ob)
	// The crossing limit's remainder rests, so account for it.
	if before != after+matched-out.RemainingQty {
		t.Fatalf("volume not conserved: before=%d after=%d matched=%d rested=%d",
			before, after, matched, out.RemainingQty)
	}
}

func TestPlace_DuplicateIDRejected(t *testing.T) {
	ob := NewOrderBook()
	mustPlace(t, ob, limit(t, "dup", Bid, "100", 10))

	// A second resting order with the same ID would overwrite the
	// cancel index entry, so it is rejected outright.
	_, err := ob.Place(limit(t, "dup", Bid, "90", 10))
	if !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("duplicate id err = %v, want ErrInvalidOrder", err)
	}

	// The original order is untouched and still cancellable.
	if n := ob.OpenOrders(); n != 1 {
		t.Fatalf("open orders = %d, want 1", n)
	}
	levels := ob.BidLevels()
	if len(levels) != 1 || levels[0].Price != MustParsePrice("100") || levels[0].Qty != 10 {
		t.Fatalf("levels = %+v, want single level 10 @ 100", levels)
	}
	if !ob.Cancel("dup") {
		t.Fatalf("cancel of original order failed")
	}
	if _, ok := ob.BestBid(); ok {
		t.Fatalf("bid side should be empty after cancel")
	}

	// Once the original is gone the ID may be reused.
	mustPlace(t, ob, limit(t, "dup", Bid, "95", 5))
	if !ob.Cancel("dup") {
		t.Fatalf("reused id not cancellable")
	}
}

func TestCancel(t *testing.T) {
	ob := NewOrderBook()
	mustPlace(t, ob, limit(t, "b1", Bid, "100", 10))
	mustPlace(t, ob, limit(t, "b2", Bid, "100", 20))
	mustPlace(t, ob, limit(t, "b3", Bid, "99", 5))

	if !ob.Cancel("b1") {
		t.Fatalf("cancel of resting order failed")
	}
	if ob.Cancel("b1") {
		t.Fatalf("double cancel succeeded")
	}
	if ob.Cancel("nope") {
		t.Fatalf("cancel of unknown id succeeded")
	}

	// b2 keeps its place; level 100 survives with b2 only.
	levels := ob.BidLevels()
	if levels[0].Price != MustParsePrice("100") || levels[0].Qty != 20 {
		t.Fatalf("levels after cancel = %+v", levels)
	}

	// Cancelling the last order at a level prunes it.
	if !ob.Cancel("b2") {
		t.Fatalf("cancel b2 failed")
	}
	best, ok := ob.BestBid()
	if !ok || best != MustParsePrice("99") {
		t.Fatalf("best bid = %v %v, want 99 after level pruned", best, ok)
	}
}

func TestCancelledOrderIsNotMatched(t *testing.T) {
	ob := NewOrderBook()
	mustPlace(t, ob, limit(t, "a1", Ask, "10", 5))
	mustPlace(t, ob, limit(t, "a2", Ask, "10", 5))
	ob.Cancel("a1")

	out := mustPlace(t, ob, market(t, "taker", Bid, 5))
	if len(out.Fills) != 1 || out.Fills[0].MakerID != "a2" {
		t.Fatalf("fills = %+v, want single fill against a2", out.Fills)
	}
}

func TestOpenOrders(t *testing.T) {
	ob := NewOrderBook()
	mustPlace(t, ob, limit(t, "b1", Bid, "100", 10))
	mustPlace(t, ob, limit(t, "a1", Ask, "101", 10))
	if n := ob.OpenOrders(); n != 2 {
		t.Fatalf("open orders = %d, want 2", n)
	}
	mustPlace(t, ob, market(t, "t", Bid, 10))
	if n := ob.OpenOrders(); n != 1 {
		t.Fatalf("open orders = %d, want 1 after ask consumed", n)
	}
}

func TestNewOrder_Validation(t *testing.T) {
	if _, err := NewLimitOrder("x", Bid, MustParsePrice("10"), 0); err == nil {
		t.Fatalf("zero qty accepted")
	}
	if _, err := NewLimitOrder("x", Bid, MustParsePrice("10"), -5); err == nil {
		t.Fatalf("negative qty accepted")
	}
	if _, err := NewMarketOrder("x", Side(3), 5); err == nil {
		t.Fatalf("unknown side accepted")
	}
}
