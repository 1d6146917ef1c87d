package kv

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/kelindar/binary"
)

var ErrRouteNotCached = errors.New("route not cached")

const routeKeyPrefix = "route:"

// CachedRoute one finished path query worth keeping. tiles and trackdirs are
// stored as parallel slices, they compress well and decode without
// allocation churn.
type CachedRoute struct {
	Cost          int32
	SignalsPassed int32
	Tiles         []int32
	Trackdirs     []uint8
}

// RouteCache finished route responses on pebble. unlike the in-process
// segment cache this survives restarts; it must be invalidated wholesale
// whenever the rail layout changes.
type RouteCache struct {
	db *pebble.DB
}

func NewRouteCache(dir string) (*RouteCache, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open route cache: %w", err)
	}
	return &RouteCache{db: db}, nil
}

func routeKey(fromTile, toTile int32, trainLengthTiles int) []byte {
	return []byte(fmt.Sprintf("%s%d:%d:%d", routeKeyPrefix, fromTile, toTile, trainLengthTiles))
}

func (c *RouteCache) Put(fromTile, toTile int32, trainLengthTiles int, route CachedRoute) error {
	val, err := binary.Marshal(&route)
	if err != nil {
		return err
	}
	compressed, err := compress(val)
	if err != nil {
		return err
	}
	return c.db.Set(routeKey(fromTile, toTile, trainLengthTiles), compressed, pebble.Sync)
}

func (c *RouteCache) Get(fromTile, toTile int32, trainLengthTiles int) (CachedRoute, error) {
	var route CachedRoute
	val, closer, err := c.db.Get(routeKey(fromTile, toTile, trainLengthTiles))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return route, ErrRouteNotCached
		}
		return route, err
	}
	defer closer.Close()

	raw, err := decompress(val)
	if err != nil {
		return route, err
	}
	if err := binary.Unmarshal(raw, &route); err != nil {
		return route, err
	}
	return route, nil
}

// InvalidateAll drops every cached route. called after any track change.
func (c *RouteCache) InvalidateAll() error {
	return c.db.DeleteRange([]byte(routeKeyPrefix), []byte(routeKeyPrefix+"\xff"), pebble.Sync)
}

func (c *RouteCache) Close() error {
	return c.db.Close()
}
