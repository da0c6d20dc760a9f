package services

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type HealthSample struct {
	CapturedAt        time.Time        `json:"capturedAt"`
	Driver            string           `json:"driver"`
	ProcessRSSBytes   int64            `json:"processRssBytes"`
	SystemMemoryTotal int64            `json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64            `json:"systemMemoryUsedBytes"`
	DiskTotalBytes    int64            `json:"diskTotalBytes"`
	DiskUsedBytes     int64            `json:"diskUsedBytes"`
	RowCounts         map[string]int64 `json:"rowCounts"`
}

// CaptureHealth samples process and host resources for the volume holding
// diskPath, plus the row count of every counted table.
func (s *Store) CaptureHealth(ctx context.Context, diskPath string) (HealthSample, error) {
	sample := HealthSample{
		CapturedAt: time.Now().UTC(),
		Driver:     s.DB.DriverName(),
		RowCounts:  map[string]int64{},
	}
	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfoWithContext(ctx); err == nil && info != nil {
			sample.ProcessRSSBytes = int64(info.RSS)
		}
	}
	if memStat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		sample.SystemMemoryTotal = int64(memStat.Total)
		sample.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	diskStat, err := disk.UsageWithContext(ctx, diskPath)
	if err != nil {
		diskStat, err = disk.UsageWithContext(ctx, "/")
	}
	if err == nil {
		sample.DiskTotalBytes = int64(diskStat.Total)
		sample.DiskUsedBytes = int64(diskStat.Used)
	}
	for _, table := range counterTables {
		var count int64
		if err := s.DB.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+table); err != nil {
			return HealthSample{}, WrapError(err, "count "+table)
		}
		sample.RowCounts[table] = count
	}
	return sample, nil
}
