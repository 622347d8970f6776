// Package journal persists executed trades in a Pebble store and
// serves recent-trade queries for the API. It records trades only -
// resting book state is deliberately not persisted.
package journal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/dkimq/matchbook/pkg/engine"
)

// Store is a trade journal backed by Pebble.
//
// Keys: t:<symbol>:<8-byte big-endian seq>, so trades of one symbol
// are contiguous and ordered by sequence. The last used sequence is
// persisted under a meta key in the same batch as each trade, so the
// counter survives restarts and never depends on the wall clock.
type Store struct {
	db *pebble.DB

	mu  sync.Mutex
	seq uint64
}

var seqMetaKey = []byte("m:seq")

// Open opens (or creates) the journal at path and recovers the last
// used sequence number.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open trade journal: %w", err)
	}
	seq, err := loadSeq(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("recover journal sequence: %w", err)
	}
	return &Store{db: db, seq: seq}, nil
}

func loadSeq(db *pebble.DB) (uint64, error) {
	val, closer, err := db.Get(seqMetaKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	if len(val) != 8 {
		return 0, fmt.Errorf("corrupt sequence record (%d bytes)", len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

func (s *Store) Close() error { return s.db.Close() }

// PublishTrade appends a trade to the journal. Implements
// engine.TradeSink. The trade and the sequence meta key commit in one
// synced batch.
func (s *Store) PublishTrade(t engine.Trade) error {
	val, err := encodeTrade(t)
	if err != nil {
		return fmt.Errorf("encode trade %s: %w", t.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	batch := s.db.NewBatch()
	if err := batch.Set(tradeKey(t.Symbol, s.seq), val, nil); err != nil {
		batch.Close()
		return fmt.Errorf("append trade %s: %w", t.ID, err)
	}
	if err := batch.Set(seqMetaKey, seqKey(s.seq), nil); err != nil {
		batch.Close()
		return fmt.Errorf("append trade %s: %w", t.ID, err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("append trade %s: %w", t.ID, err)
	}
	return nil
}

// RecentTrades returns up to limit trades for a symbol, newest first.
// An unknown symbol yields an empty slice, not an error.
func (s *Store) RecentTrades(symbol string, limit int) ([]engine.Trade, error) {
	if limit <= 0 {
		return nil, nil
	}

	lower := []byte("t:" + symbol + ":")
	upper := []byte("t:" + symbol + ";") // ';' sorts just after ':'

	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, fmt.Errorf("iterate trades for %s: %w", symbol, err)
	}
	defer iter.Close()

	trades := make([]engine.Trade, 0, limit)
	for ok := iter.Last(); ok && len(trades) < limit; ok = iter.Prev() {
		t, err := decodeTrade(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("decode trade at %q: %w", iter.Key(), err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func tradeKey(symbol string, seq uint64) []byte {
	key := make([]byte, 0, 2+len(symbol)+1+8)
	key = append(key, 't', ':')
	key = append(key, symbol...)
	key = append(key, ':')
	return append(key, seqKey(seq)...)
}
