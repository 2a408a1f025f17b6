package audit

import (
	"time"

	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/storage/models"
	"github.com/agentdesk/backend/internal/storage/sqlite"
	"github.com/agentdesk/backend/pkg/logger"
)

// Recorder writes admin mutations to the audit log. Recording is
// best-effort: a failed write is logged and never fails the mutation.
type Recorder struct {
	db *sqlite.Client
}

func NewRecorder(db *sqlite.Client) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) Record(actor, action, entityType, entityID, detail string) {
	entry := &models.AuditEntry{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  time.Now(),
	}

	if err := r.db.InsertAuditEntry(entry); err != nil {
		logger.Warn("Failed to write audit entry",
			zap.Error(err),
			zap.String("action", action),
			zap.String("entity_id", entityID),
		)
	}
}
