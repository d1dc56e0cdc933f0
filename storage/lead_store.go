package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"turboservis/models"
	"turboservis/utils"
)

const (
	leadsFileName   = "leads.json"
	journalFileName = "leads.ndjson"
)

// document is the on-disk shape of the primary store, kept byte-compatible
// with the files produced by the previous backend.
type document struct {
	Leads []models.Lead `json:"leads"`
}

// DailySummary describes the leads received on a single local calendar day.
type DailySummary struct {
	Count      int
	LatestAt   time.Time
	LatestName string
}

// Store persists leads in a JSON document (newest-first) plus an
// append-only NDJSON journal of every accepted lead in arrival order.
// The journal is a strict superset of the document and is the recovery
// source if the document is ever lost.
type Store struct {
	mu      sync.Mutex
	dataDir string
	loc     *time.Location
	logger  *logrus.Logger
}

// NewStore creates a store rooted at dataDir. loc is the zone used for
// daily sequence numbering on append.
func NewStore(dataDir string, loc *time.Location, logger *logrus.Logger) *Store {
	return &Store{
		dataDir: dataDir,
		loc:     loc,
		logger:  logger,
	}
}

// Append durably persists lead as the newest entry and returns its daily
// sequence number: the 1-based rank among leads created on the same local
// calendar day. Appends are serialized, so racing submissions still get
// consecutive numbers.
func (s *Store) Append(lead models.Lead) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	seq := 1 + s.countForDayLocked(doc, lead.CreatedAtTime(), s.loc)

	doc.Leads = append([]models.Lead{lead}, doc.Leads...)
	if err := s.writeDocument(doc); err != nil {
		return 0, fmt.Errorf("failed to write leads document: %w", err)
	}

	// Journal failure must not fail the accepted lead.
	if err := s.appendJournal(lead); err != nil {
		s.logger.WithError(err).Warn("journal append failed")
	}
	return seq, nil
}

// List returns up to limit most-recent leads, newest-first. limit is
// clamped to [1, 500] regardless of caller input.
func (s *Store) List(limit int) []models.Lead {
	limit = utils.ClampInt(limit, 1, 500)

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if limit > len(doc.Leads) {
		limit = len(doc.Leads)
	}
	out := make([]models.Lead, limit)
	copy(out, doc.Leads[:limit])
	return out
}

// CountForDay counts leads whose local calendar date in loc matches ref's.
func (s *Store) CountForDay(ref time.Time, loc *time.Location) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.countForDayLocked(s.load(), ref, loc)
}

// Summary returns the day count plus the newest matching lead, if any.
func (s *Store) Summary(ref time.Time, loc *time.Location) DailySummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	var summary DailySummary
	for _, lead := range s.load().Leads {
		created := lead.CreatedAtTime()
		if !utils.SameLocalDay(created, ref, loc) {
			continue
		}
		summary.Count++
		// Document is newest-first, so the first match is the latest.
		if summary.Count == 1 {
			summary.LatestAt = created
			summary.LatestName = lead.Name
		}
	}
	return summary
}

func (s *Store) countForDayLocked(doc document, ref time.Time, loc *time.Location) int {
	count := 0
	for _, lead := range doc.Leads {
		if utils.SameLocalDay(lead.CreatedAtTime(), ref, loc) {
			count++
		}
	}
	return count
}

// load reads the primary document. A missing file is lazily initialized to
// an empty collection; a corrupt one is treated as empty so intake stays
// available (the journal still holds every accepted lead for recovery).
func (s *Store) load() document {
	raw, err := os.ReadFile(s.leadsPath())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).Error("failed to read leads document")
		}
		return document{Leads: []models.Lead{}}
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.WithError(err).Error("leads document is corrupt, treating as empty")
		return document{Leads: []models.Lead{}}
	}
	if doc.Leads == nil {
		doc.Leads = []models.Lead{}
	}
	return doc
}

// writeDocument replaces the primary document atomically: the payload goes
// to a temp file in the same directory, is synced, then renamed over the
// old document so readers never observe a truncated file.
func (s *Store) writeDocument(doc document) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return err
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dataDir, leadsFileName+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.leadsPath())
}

func (s *Store) appendJournal(lead models.Lead) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return err
	}
	line, err := json.Marshal(lead)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.journalPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}

func (s *Store) leadsPath() string {
	return filepath.Join(s.dataDir, leadsFileName)
}

func (s *Store) journalPath() string {
	return filepath.Join(s.dataDir, journalFileName)
}
