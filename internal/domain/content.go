package domain

import "time"

// Content lifecycle statuses. "pending" moves to exactly one of the others
// through moderation; "published" may later be demoted by a resolution.
// "removed" is terminal.
const (
	ContentStatusPending   = "pending"
	ContentStatusPublished = "published"
	ContentStatusRemoved   = "removed"
	ContentStatusRedacted  = "redacted"
	ContentStatusShadow    = "shadow"
)

// Display modes
const (
	DisplayModePublic        = "public"
	DisplayModeSemiAnonymous = "semi_anonymous"
	DisplayModeAnonymous     = "anonymous"
)

// Risk levels
const (
	RiskLevelLow    = "low"
	RiskLevelMedium = "medium"
	RiskLevelHigh   = "high"
)

// Post represents a community post
type Post struct {
	ID              string      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AuthorID        string      `gorm:"column:author_id;type:uuid;index" json:"author_id"`
	Category        string      `gorm:"column:category;type:varchar(50);index" json:"category"`
	DisplayMode     string      `gorm:"column:display_mode;type:varchar(20);default:'public'" json:"display_mode"`
	Title           string      `gorm:"column:title;type:varchar(255)" json:"title"`
	Content         string      `gorm:"column:content;type:text" json:"content"`
	Status          string      `gorm:"column:status;type:varchar(20);index;default:'pending'" json:"status"`
	RiskLevel       string      `gorm:"column:risk_level;type:varchar(10)" json:"risk_level,omitempty"`
	RiskReason      string      `gorm:"column:risk_reason;type:text" json:"risk_reason,omitempty"`
	Suggestions     StringArray `gorm:"column:suggestions;type:jsonb" json:"suggestions,omitempty"`
	RedactedTitle   string      `gorm:"column:redacted_title;type:varchar(255)" json:"-"`
	RedactedContent string      `gorm:"column:redacted_content;type:text" json:"-"`
	RedactedItems   StringArray `gorm:"column:redacted_items;type:jsonb" json:"-"`
	CanEditUntil    *time.Time  `gorm:"column:can_edit_until" json:"can_edit_until,omitempty"`
	CreatedAt       time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name
func (Post) TableName() string { return "community_posts" }

// Comment represents a comment on a post
type Comment struct {
	ID              string      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PostID          string      `gorm:"column:post_id;type:uuid;index" json:"post_id"`
	AuthorID        string      `gorm:"column:author_id;type:uuid;index" json:"author_id"`
	DisplayMode     string      `gorm:"column:display_mode;type:varchar(20);default:'public'" json:"display_mode"`
	Content         string      `gorm:"column:content;type:text" json:"content"`
	Status          string      `gorm:"column:status;type:varchar(20);index;default:'pending'" json:"status"`
	RiskLevel       string      `gorm:"column:risk_level;type:varchar(10)" json:"risk_level,omitempty"`
	RiskReason      string      `gorm:"column:risk_reason;type:text" json:"risk_reason,omitempty"`
	Suggestions     StringArray `gorm:"column:suggestions;type:jsonb" json:"suggestions,omitempty"`
	RedactedContent string      `gorm:"column:redacted_content;type:text" json:"-"`
	RedactedItems   StringArray `gorm:"column:redacted_items;type:jsonb" json:"-"`
	CreatedAt       time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name
func (Comment) TableName() string { return "post_comments" }

// PostView is the externally served shape of a post. For redacted posts the
// redacted copies replace title/content; the raw fields are never serialized.
type PostView struct {
	ID           string      `json:"id"`
	AuthorID     string      `json:"author_id,omitempty"`
	Category     string      `json:"category"`
	DisplayMode  string      `json:"display_mode"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Status       string      `json:"status"`
	RiskLevel    string      `json:"risk_level,omitempty"`
	Suggestions  StringArray `json:"suggestions,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	CommentCount int64       `json:"comment_count,omitempty"`
}

// View returns the status-appropriate external representation.
// Redacted posts serve the redacted copies, never the raw content.
// Anonymous display modes hide the author id.
func (p *Post) View() PostView {
	v := PostView{
		ID:          p.ID,
		AuthorID:    p.AuthorID,
		Category:    p.Category,
		DisplayMode: p.DisplayMode,
		Title:       p.Title,
		Content:     p.Content,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
	}
	if p.Status == ContentStatusRedacted {
		v.Title = p.RedactedTitle
		v.Content = p.RedactedContent
	}
	if p.DisplayMode != DisplayModePublic {
		v.AuthorID = ""
	}
	return v
}

// CommentView is the externally served shape of a comment
type CommentView struct {
	ID          string    `json:"id"`
	PostID      string    `json:"post_id"`
	AuthorID    string    `json:"author_id,omitempty"`
	DisplayMode string    `json:"display_mode"`
	Content     string    `json:"content"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// View returns the status-appropriate external representation
func (c *Comment) View() CommentView {
	v := CommentView{
		ID:          c.ID,
		PostID:      c.PostID,
		AuthorID:    c.AuthorID,
		DisplayMode: c.DisplayMode,
		Content:     c.Content,
		Status:      c.Status,
		CreatedAt:   c.CreatedAt,
	}
	if c.Status == ContentStatusRedacted {
		v.Content = c.RedactedContent
	}
	if c.DisplayMode != DisplayModePublic {
		v.AuthorID = ""
	}
	return v
}

// CreatePostRequest represents a post submission
type CreatePostRequest struct {
	Category    string `json:"category" binding:"required"`
	DisplayMode string `json:"display_mode"`
	Title       string `json:"title" binding:"required"`
	Content     string `json:"content" binding:"required"`
}

// CreateCommentRequest represents a comment submission
type CreateCommentRequest struct {
	DisplayMode string `json:"display_mode"`
	Content     string `json:"content" binding:"required"`
}

// SubmitResult is returned to the caller after a submission is classified
type SubmitResult struct {
	ID          string      `json:"id"`
	Status      string      `json:"status"`
	RiskLevel   string      `json:"risk_level"`
	Risks       StringArray `json:"risks,omitempty"`
	Suggestions StringArray `json:"suggestions,omitempty"`
	NeedsReview bool        `json:"needs_review"`
}
