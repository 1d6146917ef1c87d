package concurrent

import "github.com/lintang-b-s/railnav/pkg/datastructure"

// SaveStationJobItem one batched write of the station directory: every
// station record falling into one h3 cell.
type SaveStationJobItem struct {
	KeyStr string
	ValArr []datastructure.KVStation
}

type JobI interface {
	[]int32 | SaveStationJobItem | []datastructure.KVStation
}

type Job[T JobI] struct {
	ID      int
	JobItem T
}

type JobFunc[T JobI, G any] func(job T) G
