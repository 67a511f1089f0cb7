package service

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/linlihub/linli-backend/internal/domain"
	"github.com/linlihub/linli-backend/internal/repository"
	pkglogger "github.com/linlihub/linli-backend/pkg/logger"
)

var auditLogFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "audit_log_failures_total",
		Help: "Audit log writes that failed and were swallowed",
	},
)

// AuditEntry is the input for one audit record. Before/After/Additional are
// marshaled to JSON snapshots; marshal failures degrade to omitting the field
// rather than losing the whole entry.
type AuditEntry struct {
	OperatorID       string
	OperatorRole     string
	ActionType       string
	TargetType       string
	TargetID         string
	Reason           string
	BeforeState      interface{}
	AfterState       interface{}
	AdditionalData   interface{}
	RelatedRequestID string
}

// AuditService writes the append-only audit trail. Writing is best-effort:
// Record returns false instead of an error so callers never block a primary
// operation on logging.
type AuditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService
func NewAuditService(repo repository.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// Record appends one audit entry. Returns false on storage failure; the
// failure is logged and counted but never propagated.
func (s *AuditService) Record(entry AuditEntry) bool {
	row := s.toRow(entry)
	if err := s.repo.Insert(row); err != nil {
		auditLogFailuresTotal.Inc()
		log := pkglogger.WithComponent("audit")
		log.Error().Err(err).
			Str("action_type", entry.ActionType).
			Str("target_id", entry.TargetID).
			Msg("audit log write failed")
		return false
	}
	return true
}

// RecordBatch appends multiple entries in one insert. Same best-effort
// contract as Record.
func (s *AuditService) RecordBatch(entries []AuditEntry) bool {
	if len(entries) == 0 {
		return true
	}
	rows := make([]*domain.AuditLogEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, s.toRow(e))
	}
	if err := s.repo.InsertBatch(rows); err != nil {
		auditLogFailuresTotal.Inc()
		log := pkglogger.WithComponent("audit")
		log.Error().Err(err).Int("count", len(entries)).Msg("audit log batch write failed")
		return false
	}
	return true
}

// List returns audit entries with optional filters
func (s *AuditService) List(actionType, targetType, targetID string, page, limit int) ([]*domain.AuditLogEntry, int64, error) {
	return s.repo.List(actionType, targetType, targetID, page, limit)
}

// Trail returns the full ordered audit chain for a decryption request
func (s *AuditService) Trail(requestID string) ([]*domain.AuditLogEntry, error) {
	return s.repo.ListByRelatedRequest(requestID)
}

func (s *AuditService) toRow(entry AuditEntry) *domain.AuditLogEntry {
	role := entry.OperatorRole
	if role == "" {
		role = domain.RoleAdmin
	}
	return &domain.AuditLogEntry{
		ID:               uuid.NewString(),
		OperatorID:       entry.OperatorID,
		OperatorRole:     role,
		ActionType:       entry.ActionType,
		TargetType:       entry.TargetType,
		TargetID:         entry.TargetID,
		Reason:           entry.Reason,
		BeforeState:      marshalState(entry.BeforeState),
		AfterState:       marshalState(entry.AfterState),
		AdditionalData:   marshalState(entry.AdditionalData),
		RelatedRequestID: entry.RelatedRequestID,
	}
}

func marshalState(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
