package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prakarsa-dev/hcm-api/internal/models"
)

// AuditRepository appends audit trail records. Writes are fire-and-forget
// through the background job queue; the approval timeline never reads here.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at)
VALUES (:id, :user_id, :action, :resource, :resource_id, :old_values, :new_values, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByResource returns the audit trail for one resource, newest first.
func (r *AuditRepository) ListByResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `SELECT id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at
FROM audit_logs WHERE resource = $1 AND resource_id = $2 ORDER BY created_at DESC LIMIT $3`
	var entries []models.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, resource, resourceID, limit); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, nil
}
