package domain

import "time"

// Report statuses
const (
	ReportStatusOpen      = "open"
	ReportStatusUpheld    = "upheld"
	ReportStatusDismissed = "dismissed"
)

// Report represents a user report against a post or comment
type Report struct {
	ID           string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ReporterID   string     `gorm:"column:reporter_id;type:uuid;index" json:"reporter_id"`
	TargetType   string     `gorm:"column:target_type;type:varchar(20)" json:"target_type"` // post, comment
	TargetID     string     `gorm:"column:target_id;type:uuid;index" json:"target_id"`
	Reason       string     `gorm:"column:reason;type:varchar(100)" json:"reason"`
	Description  string     `gorm:"column:description;type:text" json:"description"`
	AIAssessment string     `gorm:"column:ai_assessment;type:text" json:"ai_assessment,omitempty"`
	Status       string     `gorm:"column:status;type:varchar(20);index;default:'open'" json:"status"`
	ReviewedBy   string     `gorm:"column:reviewed_by;type:uuid" json:"reviewed_by,omitempty"`
	ReviewNotes  string     `gorm:"column:review_notes;type:text" json:"review_notes,omitempty"`
	ActionTaken  string     `gorm:"column:action_taken;type:varchar(50)" json:"action_taken,omitempty"`
	ReviewedAt   *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name
func (Report) TableName() string { return "reports" }

// CreateReportRequest represents a report submission
type CreateReportRequest struct {
	TargetType  string `json:"target_type" binding:"required"`
	TargetID    string `json:"target_id" binding:"required"`
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description"`
}
