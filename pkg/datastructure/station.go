package datastructure

// KVStation station record as stored in the key-value station directory.
// kept flat and binary-friendly, the kv layer marshals slices of these per
// h3 cell.
type KVStation struct {
	ID             uint16
	Name           string
	CenterLoc      [2]float64 // [lat, lon]
	PlatformLength int32
	TileX          int32
	TileY          int32
	IsWaypoint     bool
}
