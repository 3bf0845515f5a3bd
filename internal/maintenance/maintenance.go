// Package maintenance keeps daily backups of the device configuration.
package maintenance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/micro-nova/footswitch-go/internal/models"
)

const (
	backupPrefix = "device-"
	backupSuffix = ".json"

	// DefaultMaxAge is how long backups are kept.
	DefaultMaxAge = 90 * 24 * time.Hour
	backupHour    = 2 // local time of the daily backup
)

// Service writes a snapshot of the device state to dir once a day.
type Service struct {
	dir      string
	snapshot func() models.DeviceState
	maxAge   time.Duration
	now      func() time.Time
}

// New returns a backup service writing snapshot() into dir.
func New(dir string, snapshot func() models.DeviceState) *Service {
	return &Service{
		dir:      dir,
		snapshot: snapshot,
		maxAge:   DefaultMaxAge,
		now:      time.Now,
	}
}

// Start runs the daily backup until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	for {
		now := s.now()
		next := time.Date(now.Year(), now.Month(), now.Day(), backupHour, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
			path, err := s.RunBackupNow()
			if err != nil {
				slog.Error("maintenance: backup failed", "err", err)
			} else {
				slog.Info("maintenance: backup created", "file", path)
			}
		}
	}
}

// RunBackupNow writes today's backup, replacing an earlier one from the same
// day, prunes expired backups and returns the file written.
func (s *Service) RunBackupNow() (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	data, err := json.MarshalIndent(s.snapshot(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}

	dest := filepath.Join(s.dir, backupPrefix+s.now().Format("2006-01-02")+backupSuffix)
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("rename backup: %w", err)
	}

	s.prune()
	return dest, nil
}

// ListBackups returns the backup files in dir, oldest first.
func ListBackups(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if isBackup(e) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func isBackup(e os.DirEntry) bool {
	return !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) && strings.HasSuffix(e.Name(), backupSuffix)
}

// prune deletes backups older than maxAge.
func (s *Service) prune() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}

	cutoff := s.now().Add(-s.maxAge)
	for _, e := range entries {
		if !isBackup(e) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.dir, e.Name())
			if err := os.Remove(path); err != nil {
				slog.Warn("maintenance: failed to prune old backup", "file", path, "err", err)
			} else {
				slog.Info("maintenance: pruned old backup", "file", path)
			}
		}
	}
}
