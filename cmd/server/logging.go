package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const logDateLayout = "2006-01-02"

// dailyLog writes to app-YYYY-MM-DD.log in dir, switching files at the first
// write of a new day and pruning files older than the retention window.
type dailyLog struct {
	mu        sync.Mutex
	dir       string
	retention int
	date      string
	file      *os.File
	now       func() time.Time
}

func openDailyLog(dir string, retentionDays int) (*dailyLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	d := &dailyLog{dir: dir, retention: retentionDays, now: time.Now}
	if err := d.rotate(d.now().Format(logDateLayout)); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *dailyLog) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if today := d.now().Format(logDateLayout); today != d.date {
		if err := d.rotate(today); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

func (d *dailyLog) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

func (d *dailyLog) rotate(date string) error {
	name := filepath.Join(d.dir, fmt.Sprintf("app-%s.log", date))
	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file = file
	d.date = date
	d.prune()
	return nil
}

func (d *dailyLog) prune() {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return
	}
	cutoff := d.now().AddDate(0, 0, -(d.retention - 1))
	cutoffDay := cutoff.Format(logDateLayout)
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		day := strings.TrimSuffix(strings.TrimPrefix(name, "app-"), ".log")
		if _, err := time.Parse(logDateLayout, day); err != nil {
			continue
		}
		if day < cutoffDay {
			_ = os.Remove(filepath.Join(d.dir, name))
		}
	}
}
