package monitoring

import (
	"runtime"
	"time"

	"github.com/rakhaaa/todo-breeze-blade/internal/database"
)

// Service holds runtime context for monitoring and reporting.
type Service struct {
	startedAt time.Time
}

type Snapshot struct {
	TimestampUTC       string `json:"timestamp_utc"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
	HTTPActiveRequests int64  `json:"http_active_requests"`
	HTTPTotalRequests  uint64 `json:"http_total_requests"`
	DBOpenConnections  int    `json:"db_open_connections"`
	DBInUseConnections int    `json:"db_in_use_connections"`
	DBWaitCount        int64  `json:"db_wait_count"`
	Goroutines         int    `json:"goroutines"`
	GoMemoryAllocBytes uint64 `json:"go_memory_alloc_bytes"`
	GoHeapInUseBytes   uint64 `json:"go_heap_in_use_bytes"`
	GoGCCount          uint32 `json:"go_gc_count"`
	UsersTotal         int64  `json:"users_total"`
	TodosTotal         int64  `json:"todos_total"`
}

func NewService(startedAt time.Time) *Service {
	return &Service{startedAt: startedAt}
}

// Collect assembles a point-in-time snapshot. Row counts are best
// effort; a failing count query leaves the field at zero rather than
// failing the whole snapshot.
func (s *Service) Collect() Snapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbStats := database.DB.Stats()
	activeHTTP, totalHTTP := getHTTPStats()

	var usersTotal int64
	_ = database.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&usersTotal)

	var todosTotal int64
	_ = database.DB.QueryRow(`SELECT COUNT(*) FROM todos`).Scan(&todosTotal)

	return Snapshot{
		TimestampUTC:       time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds:      int64(time.Since(s.startedAt).Seconds()),
		HTTPActiveRequests: activeHTTP,
		HTTPTotalRequests:  totalHTTP,
		DBOpenConnections:  dbStats.OpenConnections,
		DBInUseConnections: dbStats.InUse,
		DBWaitCount:        dbStats.WaitCount,
		Goroutines:         runtime.NumGoroutine(),
		GoMemoryAllocBytes: memStats.Alloc,
		GoHeapInUseBytes:   memStats.HeapInuse,
		GoGCCount:          memStats.NumGC,
		UsersTotal:         usersTotal,
		TodosTotal:         todosTotal,
	}
}
