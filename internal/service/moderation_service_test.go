package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/linlihub/linli-backend/internal/common"
	"github.com/linlihub/linli-backend/internal/config"
	"github.com/linlihub/linli-backend/internal/domain"
	"github.com/linlihub/linli-backend/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	err = db.AutoMigrate(
		&domain.Post{},
		&domain.Comment{},
		&domain.Report{},
		&domain.ModerationQueueItem{},
		&domain.DecryptionRequest{},
		&domain.AuditLogEntry{},
		&domain.Profile{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func setupModerationService(t *testing.T) (*ModerationService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)

	auditSvc := NewAuditService(repository.NewAuditRepository(db))
	classifier := NewClassifier(config.ModerationConfig{Timeout: time.Second})
	indexer := NewIndexer(nil, "")

	svc := NewModerationService(
		db,
		repository.NewPostRepository(db),
		repository.NewCommentRepository(db),
		repository.NewReportRepository(db),
		repository.NewQueueRepository(db),
		repository.NewProfileRepository(db),
		classifier,
		auditSvc,
		indexer,
		nil,
	)
	return svc, db
}

func openQueueItem(t *testing.T, db *gorm.DB, filter string) *domain.ModerationQueueItem {
	t.Helper()
	var item domain.ModerationQueueItem
	query := db.Where("status = ?", domain.QueueStatusOpen)
	if filter != "" {
		query = query.Where("item_type = ?", filter)
	}
	if err := query.First(&item).Error; err != nil {
		t.Fatalf("expected an open queue item: %v", err)
	}
	return &item
}

func auditEntries(t *testing.T, db *gorm.DB, actionType string) []domain.AuditLogEntry {
	t.Helper()
	var entries []domain.AuditLogEntry
	if err := db.Where("action_type = ?", actionType).Find(&entries).Error; err != nil {
		t.Fatalf("failed to query audit log: %v", err)
	}
	return entries
}

func TestSubmitPostCleanPublishesImmediately(t *testing.T) {
	svc, db := setupModerationService(t)

	result, err := svc.SubmitPost(context.Background(), "author-1", domain.CreatePostRequest{
		Category: "general",
		Title:    "下週停水公告",
		Content:  "管委會通知下週二上午停水",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.ContentStatusPublished, result.Status)
	assert.False(t, result.NeedsReview)

	var queueCount int64
	db.Model(&domain.ModerationQueueItem{}).Count(&queueCount)
	assert.Zero(t, queueCount)
}

func TestSubmitPostRiskyGoesPendingAndQueues(t *testing.T) {
	svc, db := setupModerationService(t)

	result, err := svc.SubmitPost(context.Background(), "author-1", domain.CreatePostRequest{
		Category: "general",
		Title:    "投訴",
		Content:  "王小明 住在A棟101, 很吵",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.ContentStatusPending, result.Status)
	assert.Equal(t, "high", result.RiskLevel)
	assert.True(t, result.NeedsReview)

	item := openQueueItem(t, db, domain.QueueItemTypePost)
	assert.Equal(t, result.ID, item.ItemID)
	assert.Equal(t, domain.QueuePriorityUrgent, item.Priority)
	assert.NotNil(t, item.DueAt)
}

func TestSubmitPostStoresRiskAssessment(t *testing.T) {
	svc, db := setupModerationService(t)

	result, err := svc.SubmitPost(context.Background(), "author-1", domain.CreatePostRequest{
		Category: "general",
		Title:    "抱怨",
		Content:  "樓上很吵",
	})
	assert.NoError(t, err)

	var post domain.Post
	assert.NoError(t, db.First(&post, "id = ?", result.ID).Error)
	assert.Equal(t, "medium", post.RiskLevel)
	assert.NotEmpty(t, post.RiskReason)
	assert.NotNil(t, post.CanEditUntil)
}

func TestSubmitCommentOnMissingPost(t *testing.T) {
	svc, _ := setupModerationService(t)

	_, err := svc.SubmitComment(context.Background(), "author-1", "no-such-post", domain.CreateCommentRequest{
		Content: "留言",
	})

	assert.ErrorIs(t, err, common.ErrPostNotFound)
}

func TestSubmitCommentOnRemovedPost(t *testing.T) {
	svc, db := setupModerationService(t)

	post := &domain.Post{ID: "post-1", AuthorID: "a", Category: "general", Status: domain.ContentStatusRemoved}
	assert.NoError(t, db.Create(post).Error)

	_, err := svc.SubmitComment(context.Background(), "author-2", "post-1", domain.CreateCommentRequest{
		Content: "留言",
	})

	assert.ErrorIs(t, err, common.ErrContentRemoved)
}

func TestSubmitReportAlwaysQueues(t *testing.T) {
	svc, db := setupModerationService(t)

	report, err := svc.SubmitReport(context.Background(), "reporter-1", domain.CreateReportRequest{
		TargetType:  domain.QueueItemTypePost,
		TargetID:    "post-1",
		Reason:      "personal_info",
		Description: "貼文洩漏住戶門牌",
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.ReportStatusOpen, report.Status)

	item := openQueueItem(t, db, domain.QueueItemTypeReport)
	assert.Equal(t, report.ID, item.ItemID)
	assert.Equal(t, domain.QueuePriorityHigh, item.Priority)
}

func TestResolveApprovePublishesPost(t *testing.T) {
	svc, db := setupModerationService(t)

	result, err := svc.SubmitPost(context.Background(), "author-1", domain.CreatePostRequest{
		Category: "general",
		Title:    "投訴",
		Content:  "王小明 住在A棟101, 很吵",
	})
	assert.NoError(t, err)
	item := openQueueItem(t, db, domain.QueueItemTypePost)

	err = svc.Resolve(context.Background(), item.ID, "operator-1", domain.ActionApprove, "內容屬實")
	assert.NoError(t, err)

	var post domain.Post
	assert.NoError(t, db.First(&post, "id = ?", result.ID).Error)
	assert.Equal(t, domain.ContentStatusPublished, post.Status)

	var resolved domain.ModerationQueueItem
	assert.NoError(t, db.First(&resolved, "id = ?", item.ID).Error)
	assert.Equal(t, domain.QueueStatusResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)
	assert.Contains(t, resolved.Resolution, domain.ActionApprove)

	entries := auditEntries(t, db, "moderation_approve")
	assert.Len(t, entries, 1)
	assert.Equal(t, result.ID, entries[0].TargetID)
	assert.NotEmpty(t, entries[0].BeforeState)
	assert.NotEmpty(t, entries[0].AfterState)
}

func TestResolveIsSingleShot(t *testing.T) {
	svc, db := setupModerationService(t)

	_, err := svc.SubmitPost(context.Background(), "author-1", domain.CreatePostRequest{
		Category: "general",
		Title:    "投訴",
		Content:  "0912-345-678",
	})
	assert.NoError(t, err)
	item := openQueueItem(t, db, domain.QueueItemTypePost)

	assert.NoError(t, svc.Resolve(context.Background(), item.ID, "op-1", domain.ActionRemove, "含個資"))

	err = svc.Resolve(context.Background(), item.ID, "op-2", domain.ActionApprove, "")
	assert.ErrorIs(t, err, common.ErrAlreadyResolved)

	// Second attempt leaves exactly one rejection entry and no second mutation
	rejections := auditEntries(t, db, "moderation_rejected")
	assert.Len(t, rejections, 1)
	assert.Len(t, auditEntries(t, db, "moderation_remove"), 1)
	assert.Empty(t, auditEntries(t, db, "moderation_approve"))
}

func TestResolveInvalidAction(t *testing.T) {
	svc, db := setupModerationService(t)

	_, err := svc.SubmitPost(context.Background(), "author-1", domain.CreatePostRequest{
		Category: "general",
		Title:    "投訴",
		Content:  "0912-345-678",
	})
	assert.NoError(t, err)
	item := openQueueItem(t, db, domain.QueueItemTypePost)

	err = svc.Resolve(context.Background(), item.ID, "op-1", "obliterate", "")
	assert.ErrorIs(t, err, common.ErrInvalidAction)

	// Queue item stays open, rejection audited
	var current domain.ModerationQueueItem
	assert.NoError(t, db.First(&current, "id = ?", item.ID).Error)
	assert.Equal(t, domain.QueueStatusOpen, current.Status)
	assert.Len(t, auditEntries(t, db, "moderation_rejected"), 1)
}

func TestResolveRedactMasksAndKeepsAssessment(t *testing.T) {
	svc, db := setupModerationService(t)

	result, err := svc.SubmitPost(context.Background(), "author-1", domain.CreatePostRequest{
		Category: "general",
		Title:    "投訴A棟101",
		Content:  "王小明 住在A棟101, 很吵",
	})
	assert.NoError(t, err)
	item := openQueueItem(t, db, domain.QueueItemTypePost)

	assert.NoError(t, svc.Resolve(context.Background(), item.ID, "op-1", domain.ActionRedact, ""))

	var post domain.Post
	assert.NoError(t, db.First(&post, "id = ?", result.ID).Error)
	assert.Equal(t, domain.ContentStatusRedacted, post.Status)
	assert.NotContains(t, post.RedactedContent, "A棟101")
	assert.NotContains(t, post.RedactedTitle, "A棟101")
	assert.NotEmpty(t, post.RedactedItems)
	// Original stays on record for the audit trail
	assert.Contains(t, post.Content, "A棟101")
	// Risk assessment survives redaction
	assert.Equal(t, "high", post.RiskLevel)

	// Readers get the redacted copy
	view, err := svc.GetPost(context.Background(), result.ID, "someone-else")
	assert.NoError(t, err)
	assert.NotContains(t, view.Content, "A棟101")

	entries := auditEntries(t, db, "moderation_redact")
	assert.Len(t, entries, 1)
	assert.Contains(t, entries[0].Reason, "已遮蔽敏感內容")
}

func TestResolveReportUpholdRemovesContent(t *testing.T) {
	svc, db := setupModerationService(t)

	post := &domain.Post{ID: "post-1", AuthorID: "a", Category: "general", Status: domain.ContentStatusPublished}
	assert.NoError(t, db.Create(post).Error)

	report, err := svc.SubmitReport(context.Background(), "reporter-1", domain.CreateReportRequest{
		TargetType: domain.QueueItemTypePost,
		TargetID:   "post-1",
		Reason:     "defamation",
	})
	assert.NoError(t, err)
	item := openQueueItem(t, db, domain.QueueItemTypeReport)

	assert.NoError(t, svc.Resolve(context.Background(), item.ID, "op-1", domain.ActionApprove, "檢舉成立"))

	var updated domain.Report
	assert.NoError(t, db.First(&updated, "id = ?", report.ID).Error)
	assert.Equal(t, domain.ReportStatusUpheld, updated.Status)
	assert.Equal(t, "content_removed", updated.ActionTaken)
	assert.Equal(t, "op-1", updated.ReviewedBy)

	var removed domain.Post
	assert.NoError(t, db.First(&removed, "id = ?", "post-1").Error)
	assert.Equal(t, domain.ContentStatusRemoved, removed.Status)
}

func TestResolveReportRejectsContentActions(t *testing.T) {
	svc, db := setupModerationService(t)

	_, err := svc.SubmitReport(context.Background(), "reporter-1", domain.CreateReportRequest{
		TargetType: domain.QueueItemTypePost,
		TargetID:   "post-1",
		Reason:     "spam",
	})
	assert.NoError(t, err)
	item := openQueueItem(t, db, domain.QueueItemTypeReport)

	err = svc.Resolve(context.Background(), item.ID, "op-1", domain.ActionRedact, "")
	assert.ErrorIs(t, err, common.ErrInvalidAction)
	assert.Len(t, auditEntries(t, db, "moderation_rejected"), 1)
}

func TestResolveStorageFailureLeavesNoAuditEntry(t *testing.T) {
	svc, db := setupModerationService(t)

	// Queue item pointing at a post that no longer exists: the entity
	// mutation fails inside the transaction, before any audit write
	item := &domain.ModerationQueueItem{
		ID:       "q-1",
		ItemType: domain.QueueItemTypePost,
		ItemID:   "ghost-post",
		Priority: domain.QueuePriorityUrgent,
		Status:   domain.QueueStatusOpen,
	}
	assert.NoError(t, db.Create(item).Error)

	err := svc.Resolve(context.Background(), "q-1", "op-1", domain.ActionRemove, "")
	assert.ErrorIs(t, err, common.ErrPostNotFound)

	var current domain.ModerationQueueItem
	assert.NoError(t, db.First(&current, "id = ?", "q-1").Error)
	assert.Equal(t, domain.QueueStatusOpen, current.Status)

	var auditCount int64
	db.Model(&domain.AuditLogEntry{}).Count(&auditCount)
	assert.Zero(t, auditCount)
}

func TestResolveUsesOperatorProfileRole(t *testing.T) {
	svc, db := setupModerationService(t)

	assert.NoError(t, db.Create(&domain.Profile{UserID: "guard-1", DisplayName: "警衛", Role: domain.RoleGuard}).Error)

	_, err := svc.SubmitPost(context.Background(), "author-1", domain.CreatePostRequest{
		Category: "general",
		Title:    "投訴",
		Content:  "0912-345-678",
	})
	assert.NoError(t, err)
	item := openQueueItem(t, db, domain.QueueItemTypePost)

	assert.NoError(t, svc.Resolve(context.Background(), item.ID, "guard-1", domain.ActionRemove, "個資"))

	entries := auditEntries(t, db, "moderation_remove")
	assert.Len(t, entries, 1)
	assert.Equal(t, domain.RoleGuard, entries[0].OperatorRole)
}

func TestGetPostVisibilityRules(t *testing.T) {
	svc, db := setupModerationService(t)

	pending := &domain.Post{ID: "pending-1", AuthorID: "author-1", Category: "general", Status: domain.ContentStatusPending}
	removed := &domain.Post{ID: "removed-1", AuthorID: "author-1", Category: "general", Status: domain.ContentStatusRemoved}
	assert.NoError(t, db.Create(pending).Error)
	assert.NoError(t, db.Create(removed).Error)

	// Pending posts are visible to their author only
	_, err := svc.GetPost(context.Background(), "pending-1", "someone-else")
	assert.ErrorIs(t, err, common.ErrPostNotFound)
	view, err := svc.GetPost(context.Background(), "pending-1", "author-1")
	assert.NoError(t, err)
	assert.Equal(t, domain.ContentStatusPending, view.Status)

	// Removed posts are gone for everyone, author included
	_, err = svc.GetPost(context.Background(), "removed-1", "author-1")
	assert.ErrorIs(t, err, common.ErrPostNotFound)
}

func TestGetPostHidesAuthorForAnonymousModes(t *testing.T) {
	svc, db := setupModerationService(t)

	post := &domain.Post{
		ID:          "anon-1",
		AuthorID:    "author-1",
		Category:    "general",
		DisplayMode: domain.DisplayModeSemiAnonymous,
		Status:      domain.ContentStatusPublished,
	}
	assert.NoError(t, db.Create(post).Error)

	view, err := svc.GetPost(context.Background(), "anon-1", "reader-1")
	assert.NoError(t, err)
	assert.Empty(t, view.AuthorID)
}

func TestListCommentsFiltersByStatusAndViewer(t *testing.T) {
	svc, db := setupModerationService(t)

	post := &domain.Post{ID: "post-1", AuthorID: "a", Category: "general", Status: domain.ContentStatusPublished}
	assert.NoError(t, db.Create(post).Error)

	comments := []*domain.Comment{
		{ID: "c-1", PostID: "post-1", AuthorID: "u1", Content: "ok", Status: domain.ContentStatusPublished},
		{ID: "c-2", PostID: "post-1", AuthorID: "u2", Content: "removed", Status: domain.ContentStatusRemoved},
		{ID: "c-3", PostID: "post-1", AuthorID: "u3", Content: "pending", Status: domain.ContentStatusPending},
	}
	for _, c := range comments {
		assert.NoError(t, db.Create(c).Error)
	}

	// A bystander sees only the published comment
	views, _, err := svc.ListComments("post-1", "bystander", 1, 20)
	assert.NoError(t, err)
	assert.Len(t, views, 1)
	assert.Equal(t, "c-1", views[0].ID)

	// The pending comment's author sees their own
	views, _, err = svc.ListComments("post-1", "u3", 1, 20)
	assert.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestQueueSummaryCounts(t *testing.T) {
	svc, db := setupModerationService(t)

	items := []*domain.ModerationQueueItem{
		{ID: "q-1", ItemType: "post", ItemID: "p1", Priority: domain.QueuePriorityUrgent, Status: domain.QueueStatusOpen},
		{ID: "q-2", ItemType: "post", ItemID: "p2", Priority: domain.QueuePriorityMedium, Status: domain.QueueStatusOpen},
		{ID: "q-3", ItemType: "report", ItemID: "r1", Priority: domain.QueuePriorityHigh, Status: domain.QueueStatusResolved},
	}
	for _, item := range items {
		assert.NoError(t, db.Create(item).Error)
	}

	summary, err := svc.Summary(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(2), summary.Open)
	assert.Equal(t, int64(1), summary.Urgent)
	assert.Equal(t, int64(1), summary.Medium)
	assert.Equal(t, int64(0), summary.High)
}
