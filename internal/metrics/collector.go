package metrics

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"
)

// Snapshot holds one sample of system and process metrics.
type Snapshot struct {
	CPUPercent    float64 // System-wide CPU usage (0-100%)
	MemoryUsedGB  float64
	MemoryPercent float64
	HeapAllocMB   float64 // Go heap in use by this process
	Timestamp     time.Time
}

// Collector periodically samples and logs system metrics while a
// conversion runs.
type Collector struct {
	interval time.Duration
	logger   *zap.Logger

	mu   sync.RWMutex
	last *Snapshot
}

// NewCollector creates a metrics collector. Intervals below one second are
// clamped to the default.
func NewCollector(interval time.Duration, logger *zap.Logger) *Collector {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	return &Collector{interval: interval, logger: logger}
}

// Start begins periodic collection and returns when ctx is cancelled.
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect()
	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Metrics collection stopped")
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

// Last returns the most recent snapshot, or nil before the first sample.
func (c *Collector) Last() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

func (c *Collector) collect() {
	snapshot := &Snapshot{Timestamp: time.Now()}

	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		snapshot.CPUPercent = cpuPercent[0]
	}
	if vmem, err := mem.VirtualMemory(); err == nil {
		snapshot.MemoryPercent = vmem.UsedPercent
		snapshot.MemoryUsedGB = float64(vmem.Used) / (1024 * 1024 * 1024)
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	snapshot.HeapAllocMB = float64(stats.HeapAlloc) / (1024 * 1024)

	c.mu.Lock()
	c.last = snapshot
	c.mu.Unlock()

	c.logger.Debug("System metrics",
		zap.Float64("cpu_percent", snapshot.CPUPercent),
		zap.Float64("memory_used_gb", snapshot.MemoryUsedGB),
		zap.Float64("memory_percent", snapshot.MemoryPercent),
		zap.Float64("heap_alloc_mb", snapshot.HeapAllocMB),
	)
}
