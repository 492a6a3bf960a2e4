package faultlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vigilsys/vigil/pkg/clock"
	"github.com/vigilsys/vigil/pkg/log"
	"github.com/vigilsys/vigil/pkg/metrics"
)

// Suffix is the fixed filename suffix that identifies a fault record on the
// storage volume. Count and Purge match records by this suffix; external
// tooling relies on it too, so it is part of the on-disk contract.
const Suffix = "-traceback.log"

// DefaultRetentionHours is how long fault records are kept before the
// age-based purge removes them.
const DefaultRetentionHours = 48

// Record describes one persisted fault record.
type Record struct {
	Name    string
	ModTime time.Time
}

// Store is the fault log store: append-only persistence of one record per
// intercepted fault, keyed by its local-time filename.
type Store interface {
	// Record persists detail as a new fault record and returns its name.
	Record(detail string) (string, error)

	// Count returns the number of fault records present. This is the crash
	// counter: storage is the only state that survives a restart.
	Count() (int, error)

	// Purge deletes records older than maxAgeHours and reports how many
	// records were found and how many were deleted.
	Purge(maxAgeHours int) (found, deleted int, err error)

	// List returns all fault records present.
	List() ([]Record, error)

	// Clear deletes every fault record and returns how many were removed.
	Clear() (int, error)
}

// DirStore implements Store on a flat directory, one plain-text file per
// fault. Names are derived from local calendar fields without zero padding,
// e.g. 2023-9-26-5-44-15-traceback.log. Two faults in the same second map
// to the same name and the later write wins; accepted data loss.
type DirStore struct {
	dir    string
	clk    clock.Clock
	logger zerolog.Logger
}

// NewDirStore creates the store directory if needed and returns a DirStore.
func NewDirStore(dir string, clk clock.Clock) (*DirStore, error) {
	if clk == nil {
		clk = clock.System
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create fault log dir: %w", err)
	}
	return &DirStore{
		dir:    dir,
		clk:    clk,
		logger: log.WithComponent("faultlog"),
	}, nil
}

// recordName builds the timestamp-derived record name for t.
func recordName(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d-%d-%d-%d%s",
		t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second(), Suffix)
}

// Record writes detail to a new record named from the current local time.
// The detail is surfaced to the operator console first so forensic data is
// visible even if persistence fails.
func (s *DirStore) Record(detail string) (string, error) {
	name := recordName(s.clk.Now())

	s.logger.Error().Str("record", name).Msg(detail)

	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(detail), 0o644); err != nil {
		return "", fmt.Errorf("write fault record %s: %w", name, err)
	}

	metrics.FaultsRecorded.Inc()
	if n, err := s.Count(); err == nil {
		metrics.FaultRecords.Set(float64(n))
	}
	return name, nil
}

// Count counts records matching the fault suffix. O(files on the volume);
// the volume is small and flat.
func (s *DirStore) Count() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list fault records: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), Suffix) {
			count++
		}
	}
	return count, nil
}

// List returns every fault record with its modification time.
func (s *DirStore) List() ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list fault records: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn().Err(err).Str("record", entry.Name()).Msg("stat failed, skipping")
			continue
		}
		records = append(records, Record{Name: entry.Name(), ModTime: info.ModTime()})
	}
	return records, nil
}

// Purge deletes every record whose modification age exceeds maxAgeHours.
// A listing failure aborts the purge; per-record delete failures are logged
// and skipped so one bad file cannot pin the rest.
func (s *DirStore) Purge(maxAgeHours int) (found, deleted int, err error) {
	records, err := s.List()
	if err != nil {
		return 0, 0, err
	}

	s.logger.Info().Int("max_age_hours", maxAgeHours).Msg("purging stale fault records")

	now := s.clk.Now()
	for _, rec := range records {
		found++
		ageHours := int(now.Sub(rec.ModTime).Hours())
		if ageHours <= maxAgeHours {
			continue
		}
		s.logger.Info().Str("record", rec.Name).Int("age_hours", ageHours).Msg("deleting stale fault record")
		if err := os.Remove(filepath.Join(s.dir, rec.Name)); err != nil {
			s.logger.Warn().Err(err).Str("record", rec.Name).Msg("delete failed, skipping")
			continue
		}
		deleted++
	}

	metrics.PurgedRecords.Add(float64(deleted))
	if n, err := s.Count(); err == nil {
		metrics.FaultRecords.Set(float64(n))
	}

	s.logger.Info().Int("found", found).Int("deleted", deleted).Msg("purge complete")
	return found, deleted, nil
}

// Clear deletes every fault record present.
func (s *DirStore) Clear() (int, error) {
	records, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, rec := range records {
		if err := os.Remove(filepath.Join(s.dir, rec.Name)); err != nil {
			return removed, fmt.Errorf("delete fault record %s: %w", rec.Name, err)
		}
		s.logger.Info().Str("record", rec.Name).Msg("deleted")
		removed++
	}

	metrics.FaultRecords.Set(0)
	return removed, nil
}
