package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prakarsa-dev/hcm-api/internal/models"
	"github.com/prakarsa-dev/hcm-api/pkg/jobs"
)

type auditWriter interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// AuditService appends audit trail entries through the background job queue so
// request latency never waits on the audit table.
type AuditService struct {
	repo   auditWriter
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewAuditService constructs the service and its backing queue. Call Start
// before recording and Stop during shutdown.
func NewAuditService(repo auditWriter, logger *zap.Logger, cfg jobs.QueueConfig) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("audit", s.handle, cfg)
	return s
}

// Start launches the queue workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Record enqueues an audit entry. Failures are logged, never returned; audit
// writes must not block or fail the business operation.
func (s *AuditService) Record(userID *string, action, resource string, resourceID *string, newValues interface{}, ip, userAgent string) {
	var payload []byte
	if newValues != nil {
		raw, err := json.Marshal(newValues)
		if err != nil {
			s.logger.Warn("marshal audit payload failed", zap.String("action", action), zap.Error(err))
		} else {
			payload = raw
		}
	}

	entry := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		NewValues:  payload,
		IPAddress:  ip,
		UserAgent:  userAgent,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: action, Payload: entry}); err != nil {
		s.logger.Warn("enqueue audit entry failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		s.logger.Error("unexpected audit payload type", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Create(ctx, entry)
}
