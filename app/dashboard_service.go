package app

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"eformboard/domain/table"
	"eformboard/internal/analysis"
	"eformboard/internal/config"
	"eformboard/internal/errors"
	"eformboard/internal/fleet"
	"eformboard/internal/ingest"
)

// UploadRequest carries one user-initiated upload event. It is the explicit,
// immutable input to the pipeline; there is no ambient upload state.
type UploadRequest struct {
	EFormData     []byte
	EFormFilename string
	Sheet         string // optional sheet for workbook uploads

	FleetData     []byte // optional fleet reference payload
	FleetFilename string
	FleetSheet    string

	Roles config.RoleOverrides
}

// Session owns one enriched table for the duration of dashboard interaction.
// Nothing survives a process restart.
type Session struct {
	ID          string
	CreatedAt   time.Time
	Diagnostics fleet.Diagnostics

	processor *analysis.Processor
	kpis      *analysis.KPICalculator
}

// Table returns the enriched table
func (s *Session) Table() *table.Table {
	return s.processor.Data()
}

// Roles returns the column-role configuration
func (s *Session) Roles() table.RoleConfig {
	return s.processor.Roles()
}

// KPIs returns the KPI calculator bound to this session's table
func (s *Session) KPIs() *analysis.KPICalculator {
	return s.kpis
}

// Processor returns the analysis processor for summaries and filtering
func (s *Session) Processor() *analysis.Processor {
	return s.processor
}

// DashboardService runs the ingestion pipeline and owns live sessions
type DashboardService struct {
	loader     *ingest.Loader
	reconciler *fleet.Reconciler
	defaults   config.RoleOverrides

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewDashboardService creates the upload service
func NewDashboardService(loader *ingest.Loader, reconciler *fleet.Reconciler, defaults config.RoleOverrides) *DashboardService {
	return &DashboardService{
		loader:     loader,
		reconciler: reconciler,
		defaults:   defaults,
		sessions:   make(map[string]*Session),
	}
}

// Upload runs decode, clean, role inference, fleet reconciliation and
// preprocessing for one upload event and registers the resulting session.
func (s *DashboardService) Upload(ctx context.Context, req UploadRequest) (*Session, error) {
	start := time.Now()

	primary, err := s.loader.Load(req.EFormData, req.EFormFilename, req.Sheet)
	if err != nil {
		return nil, err
	}

	overrides := req.Roles
	if overrides == (config.RoleOverrides{}) {
		overrides = s.defaults
	}
	roles, err := s.loader.InferRoles(primary, overrides)
	if err != nil {
		return nil, err
	}

	enriched, diag := s.reconciler.Reconcile(ctx, primary, roles, req.FleetData, req.FleetFilename, req.FleetSheet)

	processor, err := analysis.NewProcessor(enriched, roles)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now(),
		Diagnostics: diag,
		processor:   processor,
		kpis:        analysis.NewKPICalculator(processor),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	log.Printf("[DashboardService] Upload %s processed in %.2fms (%d rows, %d columns, enriched=%v)",
		session.ID, float64(time.Since(start).Nanoseconds())/1e6,
		session.Table().RowCount(), len(session.Table().Columns), diag.Attempted && !diag.Degraded)

	return session, nil
}

// Session looks up a live session by id
func (s *DashboardService) Session(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, errors.NotFound("session " + id)
	}
	return session, nil
}

// Drop discards a session
func (s *DashboardService) Drop(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
