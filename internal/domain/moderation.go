package domain

import "time"

// Queue item types
const (
	QueueItemTypePost    = "post"
	QueueItemTypeComment = "comment"
	QueueItemTypeReport  = "report"
)

// Queue priorities
const (
	QueuePriorityUrgent = "urgent"
	QueuePriorityHigh   = "high"
	QueuePriorityMedium = "medium"
)

// Queue statuses
const (
	QueueStatusOpen     = "open"
	QueueStatusResolved = "resolved"
)

// Moderation actions
const (
	ActionApprove      = "approve"
	ActionRemove       = "remove"
	ActionRedact       = "redact"
	ActionShadow       = "shadow"
	ActionPending      = "pending"
	ActionRejectReport = "reject_report"
)

// ModerationQueueItem represents a unit of pending human-review work.
// The item_id is a weak reference: the queue does not own the target entity.
type ModerationQueueItem struct {
	ID            string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ItemType      string     `gorm:"column:item_type;type:varchar(20)" json:"item_type"`
	ItemID        string     `gorm:"column:item_id;type:uuid;index" json:"item_id"`
	Priority      string     `gorm:"column:priority;type:varchar(10);index" json:"priority"`
	AIRiskSummary string     `gorm:"column:ai_risk_summary;type:text" json:"ai_risk_summary,omitempty"`
	DueAt         *time.Time `gorm:"column:due_at" json:"due_at,omitempty"`
	Status        string     `gorm:"column:status;type:varchar(20);index;default:'open'" json:"status"`
	Resolution    string     `gorm:"column:resolution;type:jsonb" json:"resolution,omitempty"`
	ResolvedAt    *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name
func (ModerationQueueItem) TableName() string { return "moderation_queue" }

// Resolution is the JSON payload stored on a resolved queue item
type Resolution struct {
	Action     string `json:"action"`
	Reason     string `json:"reason,omitempty"`
	ResolvedBy string `json:"resolved_by"`
}

// ResolveRequest represents a moderation resolution submitted by an operator
type ResolveRequest struct {
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

// QueueSummary aggregates open queue items by priority
type QueueSummary struct {
	Open   int64 `json:"open"`
	Urgent int64 `json:"urgent"`
	High   int64 `json:"high"`
	Medium int64 `json:"medium"`
}
