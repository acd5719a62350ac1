// Package session coordinates the per-workspace pipeline: one loaded scan
// log, its ranked statistics, and the latest export bundle.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/beaconbay/backend/internal/analysis"
	"github.com/beaconbay/backend/internal/chart"
	"github.com/beaconbay/backend/internal/chart/svg"
	"github.com/beaconbay/backend/internal/export"
	"github.com/beaconbay/backend/internal/logging"
	"github.com/beaconbay/backend/internal/mapping"
	"github.com/beaconbay/backend/internal/metrics"
	"github.com/beaconbay/backend/internal/models"
	"github.com/beaconbay/backend/internal/parser"
	"github.com/google/uuid"
)

// DefaultMaxSessions limits concurrent sessions to prevent memory exhaustion
const DefaultMaxSessions = 50

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

// Top-N bounds for the timeline.
const (
	DefaultTopN = 6
	MinTopN     = 2
	MaxTopN     = 20
)

// NoAdvertisements is shown for devices without advertisement captures.
const NoAdvertisements = "no advertisement data available"

var (
	ErrNotFound       = errors.New("session not found")
	ErrNoLog          = errors.New("no scan log loaded")
	ErrDeviceNotFound = errors.New("device not found")
	ErrTopNTooSmall   = fmt.Errorf("select at least %d devices", MinTopN)
	ErrInvalidWindow  = errors.New("scan window is not a valid time range")
	ErrExportNotFound = errors.New("no export available")
	ErrExportExpired  = errors.New("export has been superseded")
	ErrNoFloorPlan    = errors.New("no floor plan uploaded")
	ErrLoadSuperseded = errors.New("load superseded by a newer one")
)

// Options configures a Manager. Zero values fall back to defaults.
type Options struct {
	PageSize    int
	MaxSessions int
	DefaultTopN int
	MaxTopN     int
	Theme       svg.Theme
	Location    *time.Location
	Logger      *slog.Logger
}

// Source describes where a loaded log came from.
type Source struct {
	FileName string
	FileID   string
}

// Manager owns all viewer sessions.
type Manager struct {
	sessions map[string]*SessionState
	mu       sync.RWMutex
	mapping  mapping.Store
	renderer *chart.Renderer
	opts     Options
	log      *slog.Logger
}

// SessionState holds a session and everything derived from its loaded log.
type SessionState struct {
	Session      *models.Session
	Log          *models.ScanLog
	Ranked       []models.DeviceStats
	Export       *export.Bundle
	LastAccessed time.Time

	// generation increases on every Load so a slow load cannot overwrite a newer one.
	generation uint64
}

// NewManager creates a session manager reading labels from store.
func NewManager(store mapping.Store, opts Options) *Manager {
	if opts.PageSize < 1 {
		opts.PageSize = analysis.PageSize
	}
	if opts.MaxSessions < 1 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.MaxTopN < MinTopN {
		opts.MaxTopN = MaxTopN
	}
	if opts.DefaultTopN < MinTopN {
		opts.DefaultTopN = DefaultTopN
	}
	opts.DefaultTopN = min(opts.DefaultTopN, opts.MaxTopN)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*SessionState),
		mapping:  store,
		renderer: chart.NewRenderer(opts.Location),
		opts:     opts,
		log:      opts.Logger.With("component", "session"),
	}
}

// Create starts an empty session.
func (m *Manager) Create() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictIfFullLocked()

	s := models.NewSession(uuid.New().String())
	s.PageSize = m.opts.PageSize
	m.sessions[s.ID] = &SessionState{Session: s, LastAccessed: time.Now()}
	m.log.Info("session created", "session", logging.ShortID(s.ID))
	return snapshot(s)
}

// Get returns a copy of the session summary.
func (m *Manager) Get(id string) (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	state.LastAccessed = time.Now()
	return snapshot(state.Session), true
}

// Delete drops a session and everything derived from it.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.log.Info("session deleted", "session", logging.ShortID(id))
	return true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Load replaces the session's log. Previous results are discarded before
// parsing starts, so a failed load leaves the session empty rather than
// showing stale data.
func (m *Manager) Load(id string, src Source, raw []byte) (*models.Session, error) {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	state.generation++
	gen := state.generation
	state.LastAccessed = time.Now()
	state.Log = nil
	state.Ranked = nil
	state.Export = nil
	sess := models.NewSession(id)
	sess.CreatedAt = state.Session.CreatedAt
	sess.PageSize = m.opts.PageSize
	sess.FileName = src.FileName
	sess.FileID = src.FileID
	state.Session = sess
	m.mu.Unlock()

	log := m.log.With("session", logging.ShortID(id))
	log.Info("loading scan log", "file", src.FileName, "bytes", len(raw))

	start := time.Now()
	scanLog, err := parser.ParseScanLog(raw)
	metrics.ObserveStage("parse", start)
	if err != nil {
		code := loadErrorCode(err)
		metrics.LogsLoaded.WithLabelValues(code).Inc()
		log.Warn("scan log rejected", "code", code, "error", err)

		m.mu.Lock()
		defer m.mu.Unlock()
		if state.generation == gen {
			state.Session.Status = models.SessionStatusError
			state.Session.Errors = append(state.Session.Errors, models.LoadError{Code: code, Reason: err.Error()})
		}
		return nil, err
	}

	aggStart := time.Now()
	ranked := analysis.Rank(analysis.Compute(scanLog.Devices))
	events := analysis.TotalEvents(scanLog.Devices)
	metrics.ObserveStage("aggregate", aggStart)
	metrics.DevicesAnalyzed.Add(float64(len(ranked)))

	m.mu.Lock()
	defer m.mu.Unlock()
	if state.generation != gen {
		return nil, ErrLoadSuperseded
	}

	state.Log = scanLog
	state.Ranked = ranked
	info := scanLog.ScanInfo
	sess.Status = models.SessionStatusLoaded
	sess.ScanInfo = &info
	sess.DeviceCount = len(scanLog.Devices)
	sess.RetainedCount = len(ranked)
	sess.EventCount = events
	sess.TotalPages = analysis.Paginate(ranked, m.opts.PageSize, 1).TotalPages
	sess.ProcessingTimeMs = time.Since(start).Milliseconds()

	metrics.LogsLoaded.WithLabelValues("ok").Inc()
	log.Info("scan log loaded",
		"devices", sess.DeviceCount,
		"retained", sess.RetainedCount,
		"events", sess.EventCount,
		"ms", sess.ProcessingTimeMs)
	return snapshot(sess), nil
}

func loadErrorCode(err error) string {
	switch {
	case errors.Is(err, parser.ErrMalformedJSON):
		return "MALFORMED_JSON"
	case errors.Is(err, parser.ErrInvalidSchema):
		return "INVALID_SCHEMA"
	default:
		return "LOAD_FAILED"
	}
}

// loaded returns the state's log and ranking, refreshing its keep-alive.
func (m *Manager) loaded(id string) (*SessionState, *models.ScanLog, []models.DeviceStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, nil, nil, ErrNotFound
	}
	state.LastAccessed = time.Now()
	if state.Log == nil {
		return state, nil, nil, ErrNoLog
	}
	return state, state.Log, state.Ranked, nil
}

// labels reads the mapping once. Failures yield an empty mapping and a warning.
func (m *Manager) labels(ctx context.Context, sessionID string) (models.Mapping, string) {
	if m.mapping == nil {
		return models.Mapping{}, ""
	}
	labels, err := m.mapping.Get(ctx)
	if err != nil {
		metrics.MappingErrors.WithLabelValues("get").Inc()
		m.log.Warn("mapping unavailable", "session", logging.ShortID(sessionID), "error", err)
		return models.Mapping{}, "location mapping unavailable: " + err.Error()
	}
	if labels == nil {
		labels = models.Mapping{}
	}
	return labels, ""
}

// Page returns one page of ranked devices decorated with their labels.
func (m *Manager) Page(ctx context.Context, id string, page int) (*models.DevicePage, error) {
	_, _, ranked, err := m.loaded(id)
	if err != nil {
		return nil, err
	}

	labels, warning := m.labels(ctx, id)
	p := analysis.Paginate(ranked, m.opts.PageSize, page)

	cards := make([]models.DeviceCard, len(p.Items))
	for i, s := range p.Items {
		cards[i] = card(s, labels)
	}
	return &models.DevicePage{
		Items:      cards,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
		Total:      p.Total,
		Warning:    warning,
	}, nil
}

func card(s models.DeviceStats, labels models.Mapping) models.DeviceCard {
	c := models.DeviceCard{DeviceStats: s, DisplayName: s.Name}
	if label, ok := labels[s.ID]; ok && label != "" {
		c.Label = label
		c.DisplayName = label
		c.Mapped = true
	}
	return c
}

// DeviceDetail is the expanded view of one device card.
type DeviceDetail struct {
	Card              models.DeviceCard `json:"card"`
	Advertisements    string            `json:"advertisements"`
	HasAdvertisements bool              `json:"hasAdvertisements"`
	Sparkline         *chart.Chart      `json:"sparkline,omitempty"`
	Outcome           chart.Outcome     `json:"outcome"`
	Notice            string            `json:"notice,omitempty"`
	Warning           string            `json:"warning,omitempty"`
}

// Device returns the advertisement dump and sparkline for one device.
func (m *Manager) Device(ctx context.Context, id, deviceID string) (*DeviceDetail, error) {
	_, scanLog, ranked, err := m.loaded(id)
	if err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(ranked, func(s models.DeviceStats) bool { return s.ID == deviceID })
	d, ok := parser.FindDevice(scanLog, deviceID)
	if idx < 0 || !ok {
		return nil, ErrDeviceNotFound
	}

	labels, warning := m.labels(ctx, id)
	detail := &DeviceDetail{Card: card(ranked[idx], labels), Warning: warning}

	adverts, err := parser.FormatAdvertisements(d.UniqueAdvertisements)
	switch {
	case err != nil:
		detail.Advertisements = "advertisement data could not be formatted"
	case adverts == "":
		detail.Advertisements = NoAdvertisements
	default:
		detail.Advertisements = adverts
		detail.HasAdvertisements = true
	}

	detail.Sparkline, detail.Outcome = m.renderer.Sparkline(d.RssiHistory)
	detail.Notice = detail.Outcome.Notice()
	metrics.ChartsRendered.WithLabelValues(string(chart.KindSparkline), string(detail.Outcome)).Inc()
	return detail, nil
}

// TimelineRequest selects the devices for the timeline.
type TimelineRequest struct {
	// TopN of zero means the configured default.
	TopN                  int  `json:"topN"`
	IncludeAdvertisements bool `json:"includeAdvertisements"`
}

// SeriesInfo summarizes one plotted series.
type SeriesInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Points int    `json:"points"`
}

// TimelineResult is the outcome of a timeline request.
type TimelineResult struct {
	TopN     int           `json:"topN"`
	Chart    *chart.Chart  `json:"chart,omitempty"`
	Outcome  chart.Outcome `json:"outcome"`
	Notice   string        `json:"notice,omitempty"`
	Series   []SeriesInfo  `json:"series"`
	ExportID string        `json:"exportId,omitempty"`
	Warning  string        `json:"warning,omitempty"`
}

// ResolveTopN applies the default and bounds to a requested top-N.
func (m *Manager) ResolveTopN(n int) (int, error) {
	if n == 0 {
		return m.opts.DefaultTopN, nil
	}
	if n < MinTopN {
		return 0, ErrTopNTooSmall
	}
	return min(n, m.opts.MaxTopN), nil
}

// Timeline renders the most talkative devices and packages a fresh export,
// replacing any earlier one.
func (m *Manager) Timeline(ctx context.Context, id string, req TimelineRequest) (*TimelineResult, error) {
	topN, err := m.ResolveTopN(req.TopN)
	if err != nil {
		return nil, err
	}
	state, scanLog, ranked, err := m.loaded(id)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	gen := state.generation
	m.mu.RUnlock()

	window, err := scanLog.ScanInfo.Window()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}

	labels, warning := m.labels(ctx, id)
	start := time.Now()
	series := export.Series(analysis.Top(ranked, topN), scanLog, labels, req.IncludeAdvertisements)
	c, outcome := m.renderer.Timeline(series, window)
	metrics.ObserveStage("timeline", start)
	metrics.ChartsRendered.WithLabelValues(string(chart.KindTimeline), string(outcome)).Inc()

	result := &TimelineResult{
		TopN:    topN,
		Chart:   c,
		Outcome: outcome,
		Notice:  outcome.Notice(),
		Series:  make([]SeriesInfo, len(series)),
		Warning: warning,
	}
	for i, s := range series {
		result.Series[i] = SeriesInfo{ID: s.ID, Name: s.Name, Color: s.Color, Points: len(s.History)}
	}

	var bundle *export.Bundle
	if c != nil {
		exportStart := time.Now()
		bundle, err = export.Package(c, series, scanLog.ScanInfo, m.opts.Theme)
		if err != nil {
			return nil, fmt.Errorf("package export: %w", err)
		}
		metrics.ObserveStage("export", exportStart)
		metrics.ExportsCreated.Inc()
		result.ExportID = bundle.ID
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if state.generation != gen {
		return nil, ErrLoadSuperseded
	}
	state.Export = bundle
	if bundle != nil {
		state.Session.ExportID = bundle.ID
	} else {
		state.Session.ExportID = ""
	}

	m.log.Info("timeline rendered",
		"session", logging.ShortID(id),
		"topN", topN,
		"series", len(series),
		"outcome", outcome)
	return result, nil
}

// Export returns the current bundle when bundleID still names it.
func (m *Manager) Export(id, bundleID string) (*export.Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	state.LastAccessed = time.Now()
	if state.Export == nil {
		if bundleID != "" {
			return nil, ErrExportExpired
		}
		return nil, ErrExportNotFound
	}
	if bundleID != state.Export.ID {
		return nil, ErrExportExpired
	}
	return state.Export, nil
}

// SetFloorPlan attaches an uploaded image to the session.
func (m *Manager) SetFloorPlan(id, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	state.LastAccessed = time.Now()
	state.Session.FloorPlanID = fileID
	return nil
}

// FloorPlan returns the attached image's file id.
func (m *Manager) FloorPlan(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return "", ErrNotFound
	}
	if state.Session.FloorPlanID == "" {
		return "", ErrNoFloorPlan
	}
	return state.Session.FloorPlanID, nil
}

// evictIfFullLocked drops the least recently used sessions until there is room for one more.
func (m *Manager) evictIfFullLocked() {
	for len(m.sessions) >= m.opts.MaxSessions {
		var oldestID string
		var oldest time.Time
		for id, state := range m.sessions {
			if oldestID == "" || state.LastAccessed.Before(oldest) {
				oldestID, oldest = id, state.LastAccessed
			}
		}
		delete(m.sessions, oldestID)
		m.log.Info("evicted session to stay under limit", "session", logging.ShortID(oldestID))
	}
}

// CleanupOldSessions removes sessions idle for longer than maxAge,
// but keeps sessions that have been accessed within SessionKeepAliveWindow.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-max(maxAge, SessionKeepAliveWindow))
	removed := 0
	for id, state := range m.sessions {
		if state.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
			m.log.Info("cleaned up idle session",
				"session", logging.ShortID(id),
				"idle", time.Since(state.LastAccessed).Round(time.Second))
		}
	}
	return removed
}

// StartCleanup sweeps idle sessions every interval until ctx is done.
func (m *Manager) StartCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CleanupOldSessions(maxAge)
			}
		}
	}()
}

func snapshot(s *models.Session) *models.Session {
	cp := *s
	cp.Errors = slices.Clone(s.Errors)
	if s.ScanInfo != nil {
		info := *s.ScanInfo
		cp.ScanInfo = &info
	}
	return &cp
}
