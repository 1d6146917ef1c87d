package kv

import (
	"github.com/kelindar/binary"
	"github.com/lintang-b-s/railnav/pkg/datastructure"
)

func encodeStations(sts []datastructure.KVStation) ([]byte, error) {
	encoded, err := binary.Marshal(sts)
	if err != nil {
		return nil, err
	}
	return compress(encoded)
}

func loadStations(bb []byte) ([]datastructure.KVStation, error) {
	raw, err := decompress(bb)
	if err != nil {
		return nil, err
	}
	var sts []datastructure.KVStation
	if err := binary.Unmarshal(raw, &sts); err != nil {
		return nil, err
	}
	return sts, nil
}
