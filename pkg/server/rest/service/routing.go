package service

import (
	"context"
	"errors"
	"log"

	"github.com/lintang-b-s/railnav/pkg/datastructure"
	"github.com/lintang-b-s/railnav/pkg/engine/pathfinder"
	"github.com/lintang-b-s/railnav/pkg/geo"
	"github.com/lintang-b-s/railnav/pkg/kv"
	"github.com/lintang-b-s/railnav/pkg/railmap"
	"github.com/lintang-b-s/railnav/pkg/server"
)

type RailNetwork interface {
	TileX(t railmap.TileIndex) int32
	TileY(t railmap.TileIndex) int32
	TileOf(x, y int32) railmap.TileIndex
	TileToLatLon(t railmap.TileIndex) datastructure.Coordinate
	StationByID(id uint16) (*railmap.Station, error)
}

type PathEngine interface {
	FindPath(train *pathfinder.Train, origin pathfinder.Origin) (*pathfinder.Result, error)
}

type StationDirectory interface {
	NearestStationsFromPointCoord(lat, lon float64) ([]datastructure.KVStation, error)
}

type StationSnapper interface {
	StationsNearby(lat, lon, radiusKm float64) []datastructure.KVStation
}

type RouteCache interface {
	Get(fromTile, toTile int32, trainLengthTiles int) (kv.CachedRoute, error)
	Put(fromTile, toTile int32, trainLengthTiles int, route kv.CachedRoute) error
	InvalidateAll() error
}

type RoutingService struct {
	world   RailNetwork
	engine  PathEngine
	kv      StationDirectory
	snapper StationSnapper
	cache   RouteCache
}

func NewRoutingService(world RailNetwork, engine PathEngine, kvDB StationDirectory,
	snapper StationSnapper, cache RouteCache) *RoutingService {
	return &RoutingService{world: world, engine: engine, kv: kvDB, snapper: snapper, cache: cache}
}

type RouteResult struct {
	Polyline      string
	Coords        []datastructure.Coordinate
	Cost          int
	SignalsPassed int

	// the best branch ended on a red two-way signal, the train should wait
	// there instead of being reported unroutable.
	Waiting bool
}

// RouteBetweenStations rail path from the platform of one station to another.
// answers from the route cache when the same query was computed before.
func (uc *RoutingService) RouteBetweenStations(ctx context.Context, fromID, toID uint16,
	trainSpeed, trainLength int) (*RouteResult, error) {

	fromSt, err := uc.world.StationByID(fromID)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrNotFound, "station %d is not on the rail map", fromID)
	}
	toSt, err := uc.world.StationByID(toID)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrNotFound, "station %d is not on the rail map", toID)
	}

	train := &pathfinder.Train{
		MaxSpeed:  trainSpeed,
		Length:    trainLength,
		RailTypes: railmap.RailTypeToRailTypes(railmap.RailTypeNormal) | railmap.RailTypeToRailTypes(railmap.RailTypeElectric),
		DestType:  pathfinder.DestStation,
		DestID:    toID,
	}

	originTile := fromSt.Tiles[0]
	destTile := toSt.Tiles[0]

	if cached, err := uc.cache.Get(int32(originTile), int32(destTile), train.LengthTiles()); err == nil {
		return uc.renderCached(cached), nil
	} else if !errors.Is(err, kv.ErrRouteNotCached) {
		log.Printf("route cache read failed: %v", err)
	}

	td := railmap.Trackdir(fromSt.Axis)
	origin := pathfinder.Origin{
		Tile:        originTile,
		Td:          td,
		HasReverse:  true,
		ReverseTile: originTile,
		ReverseTd:   td.Reverse(),
	}

	res, err := uc.engine.FindPath(train, origin)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}
	if !res.Found {
		if res.StoppedOnFirstTwoWaySignal {
			return &RouteResult{Waiting: true}, nil
		}
		return nil, server.NewErrorf(server.ErrNotFound, "no rail path between station %d and station %d", fromID, toID)
	}

	cached := kv.CachedRoute{
		Cost:          int32(res.Cost),
		SignalsPassed: int32(res.SignalsPassed),
		Tiles:         make([]int32, 0, len(res.Steps)),
		Trackdirs:     make([]uint8, 0, len(res.Steps)),
	}
	for _, step := range res.Steps {
		cached.Tiles = append(cached.Tiles, int32(step.Tile))
		cached.Trackdirs = append(cached.Trackdirs, uint8(step.Td))
	}
	if err := uc.cache.Put(int32(originTile), int32(destTile), train.LengthTiles(), cached); err != nil {
		log.Printf("route cache write failed: %v", err)
	}

	return uc.renderCached(cached), nil
}

// RouteBetweenPoints snaps both coordinates to their nearest station and
// routes between them.
func (uc *RoutingService) RouteBetweenPoints(ctx context.Context, srcLat, srcLon,
	dstLat, dstLon float64, trainSpeed, trainLength int) (*RouteResult, error) {

	fromID, err := uc.snapToStationID(srcLat, srcLon)
	if err != nil {
		return nil, err
	}
	toID, err := uc.snapToStationID(dstLat, dstLon)
	if err != nil {
		return nil, err
	}
	return uc.RouteBetweenStations(ctx, fromID, toID, trainSpeed, trainLength)
}

func (uc *RoutingService) snapToStationID(lat, lon float64) (uint16, error) {
	stations, err := uc.kv.NearestStationsFromPointCoord(lat, lon)
	if err != nil || len(stations) == 0 {
		return 0, server.WrapErrorf(err, server.ErrNotFound, "sorry!! the location you entered is not near any station on my map :(")
	}

	best := stations[0]
	bestDist := geo.CalculateHaversineDistance(lat, lon, best.CenterLoc[0], best.CenterLoc[1])
	for _, st := range stations[1:] {
		d := geo.CalculateHaversineDistance(lat, lon, st.CenterLoc[0], st.CenterLoc[1])
		if d < bestDist {
			best, bestDist = st, d
		}
	}
	return best.ID, nil
}

// NearbyStations stations within radiusKm of the coordinate.
func (uc *RoutingService) NearbyStations(ctx context.Context, lat, lon, radiusKm float64) []datastructure.KVStation {
	return uc.snapper.StationsNearby(lat, lon, radiusKm)
}

// FlushRouteCache drops every cached route. call after track or signal
// layout changes.
func (uc *RoutingService) FlushRouteCache(ctx context.Context) error {
	if err := uc.cache.InvalidateAll(); err != nil {
		return server.WrapErrorf(err, server.ErrInternalServerError, "internal server error")
	}
	return nil
}

func (uc *RoutingService) renderCached(r kv.CachedRoute) *RouteResult {
	coords := make([]datastructure.Coordinate, 0, len(r.Tiles))
	for _, t := range r.Tiles {
		coords = append(coords, uc.world.TileToLatLon(railmap.TileIndex(t)))
	}
	// tile centers along a straight run are collinear, no point sending every
	// one of them to the client.
	coords = geo.RamesDouglasPeucker(coords)
	return &RouteResult{
		Polyline:      datastructure.RenderPath(coords),
		Coords:        coords,
		Cost:          int(r.Cost),
		SignalsPassed: int(r.SignalsPassed),
	}
}
