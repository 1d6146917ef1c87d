package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/lintang-b-s/railnav/pkg/datastructure"
	"github.com/lintang-b-s/railnav/pkg/engine/pathfinder"
	"github.com/lintang-b-s/railnav/pkg/kv"
	"github.com/lintang-b-s/railnav/pkg/railmap"
	"github.com/lintang-b-s/railnav/pkg/server/rest"
	"github.com/lintang-b-s/railnav/pkg/server/rest/service"
	"github.com/lintang-b-s/railnav/pkg/snap"
	"github.com/lintang-b-s/railnav/pkg/tracerestrict"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var (
	listenAddr = flag.String("listenaddr", ":5000", "server listen address")
	mapFile    = flag.String("f", "railnav_map.bin", "rail map snapshot file dari preprocessing")
	kvDir      = flag.String("kvdir", "./railnav-db", "badger directory buat station index")
	cacheDir   = flag.String("cachedir", "./railnav-route-cache", "pebble directory buat route cache")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

func main() {
	flag.Parse()

	railMap, err := railmap.LoadFromFile(*mapFile)
	if err != nil {
		log.Fatal(err)
	}
	recordMemProfile(memprofile, "load_rail_map")

	db, err := badger.Open(badger.DefaultOptions(*kvDir))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	kvDB := kv.NewKVDB(db)
	defer kvDB.Close()

	routeCache, err := kv.NewRouteCache(*cacheDir)
	if err != nil {
		panic(err)
	}
	defer routeCache.Close()

	snapper := snap.NewStationSnapper()
	for _, st := range railMap.Stations() {
		snapper.Insert(datastructure.KVStation{
			ID:             st.ID,
			Name:           st.Name,
			CenterLoc:      [2]float64{st.Center.Lat, st.Center.Lon},
			PlatformLength: int32(len(st.Tiles)),
			TileX:          railMap.TileX(st.Tiles[0]),
			TileY:          railMap.TileY(st.Tiles[0]),
		})
	}

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	engine := pathfinder.NewSearch(railMap, pathfinder.DefaultConfig(),
		tracerestrict.NewRegistry(), pathfinder.NewSegmentCachePool())

	routingSvc := service.NewRoutingService(railMap, engine, kvDB, snapper, routeCache)
	recordMemProfile(memprofile, "service_init")

	rest.RailRouter(r, routingSvc)

	fmt.Printf("\n rail path engine ready!!")
	fmt.Printf("\nserver started at %s\n", *listenAddr)

	log.Fatal(http.ListenAndServe(*listenAddr, r))
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
