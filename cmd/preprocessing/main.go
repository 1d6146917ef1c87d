package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"
	"sync"

	"github.com/lintang-b-s/railnav/pkg/kv"
	"github.com/lintang-b-s/railnav/pkg/osmparser"

	badger "github.com/dgraph-io/badger/v4"
)

var (
	mapFile    = flag.String("f", "solo_jogja.osm.pbf", "openstreeetmap file buat rail networknya")
	outFile    = flag.String("o", "railnav_map.bin", "output rail map snapshot file")
	kvDir      = flag.String("kvdir", "./railnav-db", "badger directory buat station index")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()
	if *cpuprofile != "" {
		// https://go.dev/blog/pprof
		// ./bin/railnav-preprocessing -cpuprofile=railnavcpu.prof -memprofile=railnavmem.mprof
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	log.Printf("reading osm file %s", *mapFile)
	parser := osmparser.NewRailParser()
	railMap, stations, err := parser.Parse(*mapFile)
	if err != nil {
		log.Fatal(err)
	}

	recordMemProfile(memprofile, "parsing_osm_data")

	db, err := badger.Open(badger.DefaultOptions(*kvDir))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kvDB := kv.NewKVDB(db)
	defer kvDB.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := kvDB.BuildH3IndexedStations(ctx, stations); err != nil {
			log.Printf("error building h3 station index: %v", err)
			panic(err)
		}
	}()

	log.Printf("saving rail map snapshot to %s...", *outFile)
	if err := railMap.SaveToFile(*outFile); err != nil {
		panic(err)
	}

	wg.Wait()
	recordMemProfile(memprofile, "finish_building_rail_map")

	fmt.Printf("\n rail map + station index ready!!\n")
}

func recordMemProfile(memprofile *string, name string) {
	if *memprofile != "" {
		*memprofile = strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
