package system

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/angelmondragon/adminkit-backend/pkg/logger"
)

type RuntimeStats struct {
	GoVersion      string `json:"goVersion"`
	GOOS           string `json:"goos"`
	GOARCH         string `json:"goarch"`
	NumCPU         int    `json:"numCpu"`
	Goroutines     int    `json:"goroutines"`
	HeapAllocBytes uint64 `json:"heapAllocBytes"`
	HeapSysBytes   uint64 `json:"heapSysBytes"`
	NumGC          uint32 `json:"numGc"`
}

type ProcessStats struct {
	PID           int    `json:"pid"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	RSSBytes      uint64 `json:"rssBytes,omitempty"`
}

type DatabaseStats struct {
	Connected bool    `json:"connected"`
	LatencyMs float64 `json:"latencyMs"`
}

// Stats is the full system snapshot. Host is nil when the host probe fails.
type Stats struct {
	Environment string          `json:"environment"`
	Version     string          `json:"version"`
	Timestamp   time.Time       `json:"timestamp"`
	Runtime     RuntimeStats    `json:"runtime"`
	Process     ProcessStats    `json:"process"`
	Host        *HostStats      `json:"host"`
	Database    DatabaseStats   `json:"database"`
	Providers   map[string]bool `json:"providers"`
}

type Service interface {
	Stats(ctx context.Context) (*Stats, error)
}

type latencyPinger interface {
	PingLatency(ctx context.Context) (time.Duration, error)
}

type ServiceParams struct {
	DB          latencyPinger
	Providers   map[string]bool
	Environment string
	Version     string
	StartedAt   time.Time
	Logger      *logger.Logger
}

type service struct {
	db        latencyPinger
	probe     hostProbe
	providers map[string]bool
	env       string
	version   string
	startedAt time.Time
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("database pinger is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	started := params.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	providers := params.Providers
	if providers == nil {
		providers = map[string]bool{}
	}
	return &service{
		db:        params.DB,
		probe:     gopsutilProbe{},
		providers: providers,
		env:       params.Environment,
		version:   params.Version,
		startedAt: started,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	out := &Stats{
		Environment: s.env,
		Version:     s.version,
		Timestamp:   now.UTC(),
		Runtime:     readRuntime(),
		Process: ProcessStats{
			PID:           os.Getpid(),
			UptimeSeconds: int64(now.Sub(s.startedAt).Seconds()),
		},
		Providers: s.providers,
	}

	host, err := s.probe.Host(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "system.host_probe_failed")
	} else {
		out.Host = host
	}
	if rss, err := s.probe.ProcessRSS(ctx); err == nil {
		out.Process.RSSBytes = rss
	}

	latency, err := s.db.PingLatency(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "system.database_ping_failed")
	} else {
		out.Database = DatabaseStats{
			Connected: true,
			LatencyMs: math.Round(float64(latency.Microseconds())/10) / 100,
		}
	}
	return out, nil
}

func readRuntime() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeStats{
		GoVersion:      runtime.Version(),
		GOOS:           runtime.GOOS,
		GOARCH:         runtime.GOARCH,
		NumCPU:         runtime.NumCPU(),
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocBytes: m.HeapAlloc,
		HeapSysBytes:   m.HeapSys,
		NumGC:          m.NumGC,
	}
}
