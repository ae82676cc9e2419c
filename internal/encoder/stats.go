package encoder

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Stats is a point-in-time resource sample of the encoder process.
type Stats struct {
	PID        int           `json:"pid"`
	CPUPercent float64       `json:"cpu_percent"`
	RSSBytes   uint64        `json:"rss_bytes"`
	Nice       int32         `json:"nice"`
	Uptime     time.Duration `json:"uptime"`
}

func sampleStats(ctx context.Context, pid int, started time.Time) (Stats, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return Stats{}, fmt.Errorf("inspect encoder process %d: %w", pid, err)
	}
	stats := Stats{PID: pid, Uptime: time.Since(started).Round(time.Second)}
	if cpu, err := proc.CPUPercentWithContext(ctx); err == nil {
		stats.CPUPercent = cpu
	}
	if mem, err := proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
		stats.RSSBytes = mem.RSS
	}
	if nice, err := proc.NiceWithContext(ctx); err == nil {
		stats.Nice = nice
	}
	return stats, nil
}
