package osmparser

import (
	"github.com/lintang-b-s/railnav/pkg/railmap"
)

type NodeType int

const (
	END_NODE NodeType = iota
	BETWEEN_NODE
	JUNCTION_NODE
)

var (
	// railway values that never carry trains.
	skipRailway = map[string]struct{}{
		"abandoned":      {},
		"construction":   {},
		"disused":        {},
		"razed":          {},
		"dismantled":     {},
		"proposed":       {},
		"platform":       {},
		"platform_edge":  {},
		"station":        {},
		"miniature":      {},
		"turntable":      {},
		"traverser":      {},
		"funicular":      {},
		"monorail_track": {},
		"tram":           {},
		"subway":         {},
	}

	// station-like node values. halts get a shorter default platform.
	stationNodeTags = map[string]struct{}{
		"station": {},
		"halt":    {},
	}
)

// RailTypeMaxSpeed fallback line speed (km/h) when the way has no maxspeed.
func RailTypeMaxSpeed(railway string) float64 {
	switch railway {
	case "rail":
		return 120
	case "light_rail":
		return 80
	case "narrow_gauge":
		return 50
	case "preserved":
		return 40
	default:
		return 60
	}
}

// sideTrack[a][b] the track piece connecting tile edges a and b. same edge
// twice is invalid, a rail tile never connects an edge to itself.
var sideTrack = [4][4]railmap.Track{
	railmap.DiagDirNE: {
		railmap.DiagDirNE: railmap.InvalidTrack,
		railmap.DiagDirSE: railmap.TrackRight,
		railmap.DiagDirSW: railmap.TrackX,
		railmap.DiagDirNW: railmap.TrackUpper,
	},
	railmap.DiagDirSE: {
		railmap.DiagDirNE: railmap.TrackRight,
		railmap.DiagDirSE: railmap.InvalidTrack,
		railmap.DiagDirSW: railmap.TrackLower,
		railmap.DiagDirNW: railmap.TrackY,
	},
	railmap.DiagDirSW: {
		railmap.DiagDirNE: railmap.TrackX,
		railmap.DiagDirSE: railmap.TrackLower,
		railmap.DiagDirSW: railmap.InvalidTrack,
		railmap.DiagDirNW: railmap.TrackLeft,
	},
	railmap.DiagDirNW: {
		railmap.DiagDirNE: railmap.TrackUpper,
		railmap.DiagDirSE: railmap.TrackY,
		railmap.DiagDirSW: railmap.TrackLeft,
		railmap.DiagDirNW: railmap.InvalidTrack,
	},
}

// TrackForSides track piece connecting edges a and b of one tile.
func TrackForSides(a, b railmap.DiagDirection) railmap.Track {
	return sideTrack[a][b]
}

// stepDir edge crossed when moving one tile from (x, y) toward (nx, ny).
// only 4-adjacent steps occur after rasterization.
func stepDir(x, y, nx, ny int32) railmap.DiagDirection {
	switch {
	case nx > x:
		return railmap.DiagDirSW
	case nx < x:
		return railmap.DiagDirNE
	case ny > y:
		return railmap.DiagDirSE
	default:
		return railmap.DiagDirNW
	}
}

// RasterizeLine 4-adjacent tile walk from (x0, y0) to (x1, y1). the result
// includes both endpoints. steps alternate between the axes so long diagonals
// become a staircase instead of one long x run followed by one long y run.
func RasterizeLine(x0, y0, x1, y1 int32) [][2]int32 {
	tiles := [][2]int32{{x0, y0}}
	cx, cy := x0, y0
	for cx != x1 || cy != y1 {
		dx := x1 - cx
		dy := y1 - cy
		if abs32(dx) >= abs32(dy) && dx != 0 {
			cx += sign32(dx)
		} else {
			cy += sign32(dy)
		}
		tiles = append(tiles, [2]int32{cx, cy})
	}
	return tiles
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func sign32(v int32) int32 {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}
