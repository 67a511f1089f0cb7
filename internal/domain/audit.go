package domain

import "time"

// AuditLogEntry is an append-only record of a privileged operation.
// Rows are never updated or deleted once written.
type AuditLogEntry struct {
	ID               string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OperatorID       string    `gorm:"column:operator_id;type:uuid;index" json:"operator_id"`
	OperatorRole     string    `gorm:"column:operator_role;type:varchar(20)" json:"operator_role"`
	ActionType       string    `gorm:"column:action_type;type:varchar(50);index" json:"action_type"`
	TargetType       string    `gorm:"column:target_type;type:varchar(20)" json:"target_type"`
	TargetID         string    `gorm:"column:target_id;type:uuid;index" json:"target_id"`
	Reason           string    `gorm:"column:reason;type:text" json:"reason,omitempty"`
	BeforeState      string    `gorm:"column:before_state;type:jsonb" json:"before_state,omitempty"`
	AfterState       string    `gorm:"column:after_state;type:jsonb" json:"after_state,omitempty"`
	AdditionalData   string    `gorm:"column:additional_data;type:jsonb" json:"additional_data,omitempty"`
	RelatedRequestID string    `gorm:"column:related_request_id;type:uuid;index" json:"related_request_id,omitempty"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name
func (AuditLogEntry) TableName() string { return "audit_logs" }

// Profile represents a community member profile (role lookup for operators)
type Profile struct {
	UserID      string    `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	DisplayName string    `gorm:"column:display_name;type:varchar(100)" json:"display_name"`
	Role        string    `gorm:"column:role;type:varchar(20);default:'resident'" json:"role"` // resident, guard, committee, admin
	LineUserID  string    `gorm:"column:line_user_id;type:varchar(100)" json:"line_user_id,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name
func (Profile) TableName() string { return "profiles" }

// Roles
const (
	RoleResident  = "resident"
	RoleGuard     = "guard"
	RoleCommittee = "committee"
	RoleAdmin     = "admin"
)
