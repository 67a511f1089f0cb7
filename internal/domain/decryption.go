package domain

import "time"

// Decryption request statuses. Rejection by either reviewer is terminal.
const (
	DecryptionStatusRequested         = "requested"
	DecryptionStatusCommitteeApproved = "committee_approved"
	DecryptionStatusFullyApproved     = "fully_approved"
	DecryptionStatusRejected          = "rejected"
)

// DecryptionRequest gates reveal of an anonymized author's identity behind a
// two-party approval: committee first, then admin. Both signals must be
// affirmative before RevealPermitted reports true.
type DecryptionRequest struct {
	ID                  string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RequesterLineUserID string     `gorm:"column:requester_line_user_id;type:varchar(100);index" json:"requester_line_user_id"`
	TargetType          string     `gorm:"column:target_type;type:varchar(20)" json:"target_type"`
	TargetID            string     `gorm:"column:target_id;type:uuid;index" json:"target_id"`
	Reason              string     `gorm:"column:reason;type:text" json:"reason"`
	Status              string     `gorm:"column:status;type:varchar(30);index;default:'requested'" json:"status"`
	CommitteeApproverID string     `gorm:"column:committee_approver_id;type:uuid" json:"committee_approver_id,omitempty"`
	CommitteeApproved   *bool      `gorm:"column:committee_approved" json:"committee_approved,omitempty"`
	CommitteeNotes      string     `gorm:"column:committee_notes;type:text" json:"committee_notes,omitempty"`
	CommitteeAt         *time.Time `gorm:"column:committee_at" json:"committee_at,omitempty"`
	AdminApproverID     string     `gorm:"column:admin_approver_id;type:uuid" json:"admin_approver_id,omitempty"`
	AdminApproved       *bool      `gorm:"column:admin_approved" json:"admin_approved,omitempty"`
	AdminNotes          string     `gorm:"column:admin_notes;type:text" json:"admin_notes,omitempty"`
	AdminAt             *time.Time `gorm:"column:admin_at" json:"admin_at,omitempty"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name
func (DecryptionRequest) TableName() string { return "decryption_requests" }

// RevealPermitted reports whether the identity may be revealed. Both approvals
// must be affirmative; an admin approval recorded without a prior committee
// approval does not authorize reveal by itself.
func (r *DecryptionRequest) RevealPermitted() bool {
	return r.Status == DecryptionStatusFullyApproved &&
		r.CommitteeApproved != nil && *r.CommitteeApproved &&
		r.AdminApproved != nil && *r.AdminApproved
}

// IsFinal reports whether the request reached a terminal state
func (r *DecryptionRequest) IsFinal() bool {
	return r.Status == DecryptionStatusFullyApproved || r.Status == DecryptionStatusRejected
}

// CreateDecryptionRequest represents a new reveal request
type CreateDecryptionRequest struct {
	TargetType string `json:"target_type" binding:"required"`
	TargetID   string `json:"target_id" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// ReviewDecryptionRequest represents a committee or admin decision
type ReviewDecryptionRequest struct {
	Approved *bool  `json:"approved" binding:"required"`
	Notes    string `json:"notes"`
}
