package kv

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"runtime"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/lintang-b-s/railnav/pkg/concurrent"
	"github.com/lintang-b-s/railnav/pkg/datastructure"
	"github.com/uber/h3-go/v4"
)

var (
	ErrStationsNotFound = errors.New("stations not found")
)

const (
	h3Resolution = 9
	batchSize    = 1000
)

// KVDB station directory on top of badger. stations are bucketed by the h3
// cell of their center so a point query only touches a handful of keys.
type KVDB struct {
	db *badger.DB
}

func NewKVDB(db *badger.DB) *KVDB {
	return &KVDB{db}
}

// BuildH3IndexedStations groups the station records by h3 cell and writes
// them in batches, one worker per core.
func (k *KVDB) BuildH3IndexedStations(ctx context.Context, stations []datastructure.KVStation) error {
	log.Printf("creating & saving h3 indexed stations to key-value db...")

	cells := make(map[string][]datastructure.KVStation)
	for i := range stations {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}

		st := stations[i]
		cell := h3.LatLngToCell(h3.NewLatLng(st.CenterLoc[0], st.CenterLoc[1]), h3Resolution)
		cells[cell.String()] = append(cells[cell.String()], st)
	}

	jobs := make(chan concurrent.Job[concurrent.SaveStationJobItem])
	errCh := make(chan error, runtime.NumCPU())
	var wg sync.WaitGroup
	for w := 0; w < runtime.NumCPU(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := make([]concurrent.SaveStationJobItem, 0, batchSize)
			for job := range jobs {
				batch = append(batch, job.JobItem)
				if len(batch) == batchSize {
					if err := k.saveBatchStations(ctx, batch); err != nil {
						errCh <- err
						return
					}
					batch = batch[:0]
				}
			}
			if len(batch) > 0 {
				if err := k.saveBatchStations(ctx, batch); err != nil {
					errCh <- err
				}
			}
		}()
	}

	id := 0
	for key, value := range cells {
		jobs <- concurrent.Job[concurrent.SaveStationJobItem]{
			ID:      id,
			JobItem: concurrent.SaveStationJobItem{KeyStr: key, ValArr: value},
		}
		id++
	}
	close(jobs)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			return err
		}
	}

	log.Printf("creating & saving h3 indexed stations to key-value db done...")
	return nil
}

func (k *KVDB) saveBatchStations(ctx context.Context, items []concurrent.SaveStationJobItem) error {
	batch := k.db.NewWriteBatch()
	defer batch.Cancel()

	for _, item := range items {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled")
		default:
		}

		val, err := encodeStations(item.ValArr)
		if err != nil {
			return err
		}
		if err := batch.Set([]byte(item.KeyStr), val); err != nil {
			return err
		}
	}

	if err := batch.Flush(); err != nil {
		log.Printf("error saving stations: %v", err)
		return err
	}
	return nil
}

func (k *KVDB) get(key []byte) ([]byte, error) {
	var val []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	return val, err
}

// NearestStationsFromPointCoord stations around (lat, lon), widening the h3
// disk until something is found.
func (k *KVDB) NearestStationsFromPointCoord(lat, lon float64) ([]datastructure.KVStation, error) {
	stations := []datastructure.KVStation{}

	cell := h3.LatLngToCell(h3.NewLatLng(lat, lon), h3Resolution)
	val, err := k.get([]byte(cell.String()))
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return nil, err
	}
	if err == nil {
		found, err := loadStations(val)
		if err != nil {
			return nil, err
		}
		stations = append(stations, found...)
	}

	for _, currCell := range kRingIndexesArea(lat, lon, 1) {
		if len(stations) > 0 {
			break
		}
		if currCell == cell {
			continue
		}
		val, err := k.get([]byte(currCell.String()))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			return nil, err
		}
		found, err := loadStations(val)
		if err != nil {
			return nil, err
		}
		stations = append(stations, found...)
	}

	for lev := 1; lev <= 10 && len(stations) == 0; lev++ {
		for _, currCell := range h3.GridDisk(cell, lev) {
			if currCell == cell {
				continue
			}
			val, err := k.get([]byte(currCell.String()))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return nil, err
			}
			found, err := loadStations(val)
			if err != nil {
				return nil, err
			}
			stations = append(stations, found...)
		}
	}

	if len(stations) == 0 {
		return nil, ErrStationsNotFound
	}
	return stations, nil
}

func kRingIndexesArea(lat, lon, searchRadiusKm float64) []h3.Cell {
	origin := h3.LatLngToCell(h3.NewLatLng(lat, lon), h3Resolution)
	originArea := h3.CellAreaKm2(origin)
	searchArea := math.Pi * searchRadiusKm * searchRadiusKm

	radius := 0
	diskArea := originArea
	for diskArea < searchArea {
		radius++
		cellCount := float64(3*radius*(radius+1) + 1)
		diskArea = cellCount * originArea
	}

	return h3.GridDisk(origin, radius)
}

func (k *KVDB) Close() {
	k.db.Close()
}
