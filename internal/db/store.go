package db

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/david/ywc-dashboard/internal/models"
)

// Slot keys. Values are camelCase JSON documents.
const (
	IndicatorsKey = "ywc_indicators"
	QuartersKey   = "ywc_quarters"
	SettingsKey   = "ywc_settings"
)

// AllKeys lists every slot owned by the dashboard.
var AllKeys = []string{IndicatorsKey, QuartersKey, SettingsKey}

// Store persists the indicator working set, the quarter history and user
// settings on top of a KV. Backend failures never propagate: loads degrade
// to nil/defaults and writes report false.
type Store struct {
	kv  KV
	log *zap.Logger
	Now func() time.Time

	// guards quarter read-modify-write
	mu sync.Mutex
}

func NewStore(kv KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, log: logger, Now: time.Now}
}

func (s *Store) SaveIndicators(ctx context.Context, indicators []models.Indicator) bool {
	if indicators == nil {
		indicators = []models.Indicator{}
	}
	return s.putJSON(ctx, IndicatorsKey, indicators)
}

// LoadIndicators returns the working set, or nil when none is stored or the
// slot cannot be read.
func (s *Store) LoadIndicators(ctx context.Context) []models.Indicator {
	var out []models.Indicator
	if !s.getJSON(ctx, IndicatorsKey, &out) {
		return nil
	}
	return out
}

// SaveQuarter records data as the snapshot for year-Qquarter, replacing any
// snapshot with the same key, and keeps the history ordered newest first.
func (s *Store) SaveQuarter(ctx context.Context, quarter, year int, data []models.Indicator) bool {
	if quarter < 1 || quarter > 4 {
		s.log.Warn("rejecting snapshot with invalid quarter", zap.Int("quarter", quarter), zap.Int("year", year))
		return false
	}
	if data == nil {
		data = []models.Indicator{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.QuarterKey(year, quarter)
	history, err := s.loadQuarters(ctx)
	if err != nil {
		return false
	}
	kept := make([]models.QuarterSnapshot, 0, len(history)+1)
	for _, snap := range history {
		if snap.Key != key {
			kept = append(kept, snap)
		}
	}
	kept = append(kept, models.QuarterSnapshot{
		Key:            key,
		Quarter:        quarter,
		Year:           year,
		Timestamp:      s.Now().UTC().Format(time.RFC3339Nano),
		Data:           data,
		IndicatorCount: len(data),
	})
	sortQuarters(kept)

	return s.putJSON(ctx, QuartersKey, kept)
}

// Quarters returns the full history, newest first. Empty on failure.
func (s *Store) Quarters(ctx context.Context) []models.QuarterSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, _ := s.loadQuarters(ctx)
	return history
}

func (s *Store) Quarter(ctx context.Context, key string) (*models.QuarterSnapshot, bool) {
	for _, snap := range s.Quarters(ctx) {
		if snap.Key == key {
			snap := snap
			return &snap, true
		}
	}
	return nil, false
}

// QuarterData returns the indicators captured under key, or nil.
func (s *Store) QuarterData(ctx context.Context, key string) []models.Indicator {
	snap, ok := s.Quarter(ctx, key)
	if !ok {
		return nil
	}
	return snap.Data
}

// DeleteQuarter removes the snapshot with key. Missing keys are a no-op
// and report true. A failed history read reports false and writes nothing.
func (s *Store) DeleteQuarter(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadQuarters(ctx)
	if err != nil {
		return false
	}
	kept := history[:0]
	found := false
	for _, snap := range history {
		if snap.Key == key {
			found = true
			continue
		}
		kept = append(kept, snap)
	}
	if !found {
		return true
	}
	return s.putJSON(ctx, QuartersKey, kept)
}

func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) bool {
	return s.putJSON(ctx, SettingsKey, settings)
}

// LoadSettings returns stored settings, or the defaults.
func (s *Store) LoadSettings(ctx context.Context) models.Settings {
	settings := models.DefaultSettings()
	if !s.getJSON(ctx, SettingsKey, &settings) {
		return models.DefaultSettings()
	}
	return settings
}

// ClearAll removes every slot in a single backend call.
func (s *Store) ClearAll(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, AllKeys...); err != nil {
		s.log.Warn("failed to clear storage", zap.Error(err))
		return false
	}
	return true
}

// loadQuarters returns the stored history. Missing or corrupt history is
// empty; only a backend read failure is returned as an error, so callers
// that rewrite the history never replace it on a transient failure.
func (s *Store) loadQuarters(ctx context.Context) ([]models.QuarterSnapshot, error) {
	var out []models.QuarterSnapshot
	ok, err := s.readJSON(ctx, QuartersKey, &out)
	if err != nil {
		return []models.QuarterSnapshot{}, err
	}
	if !ok || out == nil {
		return []models.QuarterSnapshot{}, nil
	}
	return out, nil
}

func (s *Store) putJSON(ctx context.Context, key string, v any) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("failed to encode slot", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := s.kv.Put(ctx, key, string(raw)); err != nil {
		s.log.Warn("failed to write slot", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// getJSON decodes the slot into v. It reports false when the slot is
// missing or cannot be read.
func (s *Store) getJSON(ctx context.Context, key string, v any) bool {
	ok, err := s.readJSON(ctx, key, v)
	return ok && err == nil
}

// readJSON decodes the slot into v. A corrupt value is logged and reported
// as missing; backend failures are returned.
func (s *Store) readJSON(ctx context.Context, key string, v any) (bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn("failed to read slot", zap.String("key", key), zap.Error(err))
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		s.log.Warn("corrupt slot", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func sortQuarters(history []models.QuarterSnapshot) {
	sort.SliceStable(history, func(i, j int) bool {
		if history[i].Year != history[j].Year {
			return history[i].Year > history[j].Year
		}
		return history[i].Quarter > history[j].Quarter
	})
}
