package journal

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"

	"github.com/dkimq/matchbook/pkg/engine"
)

func encodeTrade(t engine.Trade) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeTrade(b []byte) (engine.Trade, error) {
	var t engine.Trade
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(&t)
	return t, err
}

func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}
