package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lintang-b-s/railnav/pkg/datastructure"
	"github.com/lintang-b-s/railnav/pkg/engine/pathfinder"
	"github.com/lintang-b-s/railnav/pkg/kv"
	"github.com/lintang-b-s/railnav/pkg/railmap"
	"github.com/lintang-b-s/railnav/pkg/server"

	"github.com/stretchr/testify/assert"
)

type cacheKey struct {
	from, to int32
	length   int
}

type fakeRouteCache struct {
	routes map[cacheKey]kv.CachedRoute
	puts   int
	hits   int
}

func newFakeRouteCache() *fakeRouteCache {
	return &fakeRouteCache{routes: make(map[cacheKey]kv.CachedRoute)}
}

func (c *fakeRouteCache) Get(fromTile, toTile int32, trainLengthTiles int) (kv.CachedRoute, error) {
	r, ok := c.routes[cacheKey{fromTile, toTile, trainLengthTiles}]
	if !ok {
		return kv.CachedRoute{}, kv.ErrRouteNotCached
	}
	c.hits++
	return r, nil
}

func (c *fakeRouteCache) Put(fromTile, toTile int32, trainLengthTiles int, route kv.CachedRoute) error {
	c.routes[cacheKey{fromTile, toTile, trainLengthTiles}] = route
	c.puts++
	return nil
}

func (c *fakeRouteCache) InvalidateAll() error {
	c.routes = make(map[cacheKey]kv.CachedRoute)
	return nil
}

type fakeDirectory struct {
	stations []datastructure.KVStation
	err      error
}

func (d *fakeDirectory) NearestStationsFromPointCoord(lat, lon float64) ([]datastructure.KVStation, error) {
	return d.stations, d.err
}

type fakeSnapper struct {
	stations []datastructure.KVStation
}

func (s *fakeSnapper) StationsNearby(lat, lon, radiusKm float64) []datastructure.KVStation {
	return s.stations
}

type countingEngine struct {
	inner *pathfinder.Search
	calls int
}

func (e *countingEngine) FindPath(train *pathfinder.Train, origin pathfinder.Origin) (*pathfinder.Result, error) {
	e.calls++
	return e.inner.FindPath(train, origin)
}

// two stations joined by a straight run of track.
func twoStationWorld(t *testing.T) *railmap.RailMap {
	m := railmap.NewRailMap(20, 10)
	m.SetGeoAnchor(-7.55, 110.80, 25)
	for x := int32(0); x <= 15; x++ {
		_, err := m.LayTrack(x, 5, railmap.TrackBitX)
		assert.NoError(t, err)
	}
	_, err := m.BuildStation(1, "Purwosari", 1, 5, railmap.DiagDirSW, 2)
	assert.NoError(t, err)
	_, err = m.BuildStation(2, "Balapan", 12, 5, railmap.DiagDirSW, 2)
	assert.NoError(t, err)
	return m
}

func newTestService(t *testing.T) (*RoutingService, *fakeRouteCache, *countingEngine) {
	m := twoStationWorld(t)
	engine := &countingEngine{inner: pathfinder.NewSearch(m, pathfinder.DefaultConfig(), nil, nil)}
	cache := newFakeRouteCache()

	dir := &fakeDirectory{stations: []datastructure.KVStation{
		{ID: 1, Name: "Purwosari", CenterLoc: [2]float64{-7.551, 110.801}},
		{ID: 2, Name: "Balapan", CenterLoc: [2]float64{-7.551, 110.803}},
	}}
	snapper := &fakeSnapper{stations: dir.stations}

	return NewRoutingService(m, engine, dir, snapper, cache), cache, engine
}

func TestRouteBetweenStations(t *testing.T) {
	svc, cache, engine := newTestService(t)

	res, err := svc.RouteBetweenStations(context.Background(), 1, 2, 120, 48)
	assert.NoError(t, err)
	assert.False(t, res.Waiting)
	assert.Greater(t, res.Cost, 0)
	assert.NotEmpty(t, res.Polyline)
	// a straight run of track collapses to its two endpoints
	assert.Equal(t, 2, len(res.Coords))
	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, 1, cache.puts)

	// second identical query is answered from the cache
	res2, err := svc.RouteBetweenStations(context.Background(), 1, 2, 120, 48)
	assert.NoError(t, err)
	assert.Equal(t, res.Cost, res2.Cost)
	assert.Equal(t, res.Polyline, res2.Polyline)
	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, 1, cache.hits)
}

func TestRouteBetweenStationsUnknownStation(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.RouteBetweenStations(context.Background(), 1, 99, 120, 48)
	assert.Error(t, err)

	var svcErr *server.Error
	assert.True(t, errors.As(err, &svcErr))
	assert.Equal(t, server.ErrNotFound, svcErr.Code())
}

func TestRouteBetweenPoints(t *testing.T) {
	svc, _, _ := newTestService(t)

	// source is closest to station 1, destination to station 2
	res, err := svc.RouteBetweenPoints(context.Background(),
		-7.551, 110.801, -7.551, 110.803, 120, 48)
	assert.NoError(t, err)
	assert.Greater(t, res.Cost, 0)
}

func TestRouteBetweenPointsNoStations(t *testing.T) {
	svc, cache, engine := newTestService(t)
	svc.kv = &fakeDirectory{err: kv.ErrStationsNotFound}
	_ = cache
	_ = engine

	_, err := svc.RouteBetweenPoints(context.Background(),
		0, 0, 1, 1, 120, 48)
	assert.Error(t, err)

	var svcErr *server.Error
	assert.True(t, errors.As(err, &svcErr))
	assert.Equal(t, server.ErrNotFound, svcErr.Code())
}

func TestNearbyStationsAndFlush(t *testing.T) {
	svc, cache, _ := newTestService(t)

	stations := svc.NearbyStations(context.Background(), -7.551, 110.802, 2)
	assert.Equal(t, 2, len(stations))

	_, err := svc.RouteBetweenStations(context.Background(), 1, 2, 120, 48)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(cache.routes))

	assert.NoError(t, svc.FlushRouteCache(context.Background()))
	assert.Equal(t, 0, len(cache.routes))
}
