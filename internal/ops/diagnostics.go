package ops

import (
	"runtime"
	"time"
)

// SystemStats contains process-level statistics for the status surface.
type SystemStats struct {
	Uptime        string  `json:"uptime"`
	StartTime     string  `json:"start_time"`
	GoVersion     string  `json:"go_version"`
	NumGoroutines int     `json:"goroutines"`
	MemAllocMB    float64 `json:"mem_alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// DiagnosticsCollector collects system diagnostics.
type DiagnosticsCollector struct {
	startTime time.Time
}

// NewDiagnosticsCollector creates a collector anchored at process start.
func NewDiagnosticsCollector() *DiagnosticsCollector {
	return &DiagnosticsCollector{startTime: time.Now()}
}

// CollectSystemStats collects system-level statistics.
func (d *DiagnosticsCollector) CollectSystemStats() SystemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemStats{
		Uptime:        time.Since(d.startTime).Round(time.Second).String(),
		StartTime:     d.startTime.Format(time.RFC3339),
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemAllocMB:    float64(m.Alloc) / 1024 / 1024,
		NumGC:         m.NumGC,
	}
}
