// Package workers hosts the background maintenance jobs.
package workers

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor prunes stale files from the download directory on a cron schedule:
// harvest diagnostics (screenshots) and any leftover image downloads older
// than the retention window.
type Janitor struct {
	dir    string
	maxAge time.Duration
	cron   *cron.Cron
}

func NewJanitor(dir string, schedule string, maxAge time.Duration) (*Janitor, error) {
	j := &Janitor{
		dir:    dir,
		maxAge: maxAge,
		cron:   cron.New(),
	}
	if _, err := j.cron.AddFunc(schedule, j.Run); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

func (j *Janitor) Stop() {
	j.cron.Stop()
}

// Run removes files older than the retention window. Walk errors are logged
// and skipped so one bad entry never aborts the sweep.
func (j *Janitor) Run() {
	cutoff := time.Now().Add(-j.maxAge)
	removed := 0

	err := filepath.WalkDir(j.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			log.Printf("Janitor: walk %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				log.Printf("Janitor: remove %s: %v", path, err)
				return nil
			}
			removed++
		}
		return nil
	})
	if err != nil {
		log.Printf("Janitor: sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Janitor: removed %d stale files from %s", removed, j.dir)
	}
}
