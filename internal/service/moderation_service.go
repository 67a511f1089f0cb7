package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linlihub/linli-backend/internal/common"
	"github.com/linlihub/linli-backend/internal/domain"
	"github.com/linlihub/linli-backend/internal/repository"
	pkgcache "github.com/linlihub/linli-backend/pkg/cache"
	pkglogger "github.com/linlihub/linli-backend/pkg/logger"
)

const (
	reviewDueAfter = 24 * time.Hour
	editWindow     = 15 * time.Minute
)

var validResolveActions = map[string]bool{
	domain.ActionApprove:      true,
	domain.ActionRemove:       true,
	domain.ActionRedact:       true,
	domain.ActionShadow:       true,
	domain.ActionPending:      true,
	domain.ActionRejectReport: true,
}

// ModerationService owns the submission pipeline and the human-review queue.
// Resolution ordering is fixed: target entity and queue status commit together
// in one transaction, the audit entry is written afterwards best-effort.
type ModerationService struct {
	db          *gorm.DB
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	reportRepo  repository.ReportRepository
	queueRepo   repository.QueueRepository
	profileRepo repository.ProfileRepository
	classifier  *Classifier
	audit       *AuditService
	indexer     *Indexer
	cache       pkgcache.Service
}

// NewModerationService creates a new ModerationService
func NewModerationService(
	db *gorm.DB,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	reportRepo repository.ReportRepository,
	queueRepo repository.QueueRepository,
	profileRepo repository.ProfileRepository,
	classifier *Classifier,
	audit *AuditService,
	indexer *Indexer,
	cacheService pkgcache.Service,
) *ModerationService {
	return &ModerationService{
		db:          db,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		reportRepo:  reportRepo,
		queueRepo:   queueRepo,
		profileRepo: profileRepo,
		classifier:  classifier,
		audit:       audit,
		indexer:     indexer,
		cache:       cacheService,
	}
}

// SubmitPost classifies and stores a new post. Flagged submissions enter the
// review queue as pending; clean ones publish immediately and are handed to
// the indexer without blocking the response.
func (s *ModerationService) SubmitPost(ctx context.Context, authorID string, req domain.CreatePostRequest) (*domain.SubmitResult, error) {
	displayMode := req.DisplayMode
	if displayMode == "" {
		displayMode = domain.DisplayModePublic
	}

	verdict := s.classifier.Classify(ctx, req.Title+"\n"+req.Content, req.Category, CheckTypePrePost)

	editUntil := time.Now().Add(editWindow)
	post := &domain.Post{
		ID:           uuid.NewString(),
		AuthorID:     authorID,
		Category:     req.Category,
		DisplayMode:  displayMode,
		Title:        req.Title,
		Content:      req.Content,
		RiskLevel:    verdict.RiskLevel,
		RiskReason:   verdict.Reasoning,
		Suggestions:  verdict.Suggestions,
		CanEditUntil: &editUntil,
	}

	if verdict.NeedsReview {
		post.Status = domain.ContentStatusPending
	} else {
		post.Status = domain.ContentStatusPublished
	}

	if err := s.postRepo.Create(post); err != nil {
		return nil, err
	}

	if verdict.NeedsReview {
		if err := s.enqueue(domain.QueueItemTypePost, post.ID, verdict); err != nil {
			return nil, err
		}
	} else {
		s.indexer.EnqueuePublished(post)
		s.invalidatePostCaches(ctx, "", post.Category)
	}

	return &domain.SubmitResult{
		ID:          post.ID,
		Status:      post.Status,
		RiskLevel:   verdict.RiskLevel,
		Risks:       verdict.Risks,
		Suggestions: verdict.Suggestions,
		NeedsReview: verdict.NeedsReview,
	}, nil
}

// SubmitComment classifies and stores a new comment on a published post
func (s *ModerationService) SubmitComment(ctx context.Context, authorID, postID string, req domain.CreateCommentRequest) (*domain.SubmitResult, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrPostNotFound
		}
		return nil, err
	}
	if post.Status == domain.ContentStatusRemoved {
		return nil, common.ErrContentRemoved
	}

	displayMode := req.DisplayMode
	if displayMode == "" {
		displayMode = domain.DisplayModePublic
	}

	verdict := s.classifier.Classify(ctx, req.Content, post.Category, CheckTypePrePost)

	comment := &domain.Comment{
		ID:          uuid.NewString(),
		PostID:      postID,
		AuthorID:    authorID,
		DisplayMode: displayMode,
		Content:     req.Content,
		RiskLevel:   verdict.RiskLevel,
		RiskReason:  verdict.Reasoning,
		Suggestions: verdict.Suggestions,
	}

	if verdict.NeedsReview {
		comment.Status = domain.ContentStatusPending
	} else {
		comment.Status = domain.ContentStatusPublished
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}

	if verdict.NeedsReview {
		if err := s.enqueue(domain.QueueItemTypeComment, comment.ID, verdict); err != nil {
			return nil, err
		}
	} else {
		s.invalidatePostCaches(ctx, postID, post.Category)
	}

	return &domain.SubmitResult{
		ID:          comment.ID,
		Status:      comment.Status,
		RiskLevel:   verdict.RiskLevel,
		Risks:       verdict.Risks,
		Suggestions: verdict.Suggestions,
		NeedsReview: verdict.NeedsReview,
	}, nil
}

// SubmitReport files a user report and always queues it for human review
func (s *ModerationService) SubmitReport(ctx context.Context, reporterID string, req domain.CreateReportRequest) (*domain.Report, error) {
	if req.TargetType != domain.QueueItemTypePost && req.TargetType != domain.QueueItemTypeComment {
		return nil, common.ErrInvalidInput
	}

	verdict := s.classifier.Classify(ctx, req.Description, req.Reason, CheckTypeReport)

	report := &domain.Report{
		ID:           uuid.NewString(),
		ReporterID:   reporterID,
		TargetType:   req.TargetType,
		TargetID:     req.TargetID,
		Reason:       req.Reason,
		Description:  req.Description,
		AIAssessment: verdict.Reasoning,
		Status:       domain.ReportStatusOpen,
	}
	if err := s.reportRepo.Create(report); err != nil {
		return nil, err
	}

	dueAt := time.Now().Add(reviewDueAfter)
	item := &domain.ModerationQueueItem{
		ID:            uuid.NewString(),
		ItemType:      domain.QueueItemTypeReport,
		ItemID:        report.ID,
		Priority:      domain.QueuePriorityHigh,
		AIRiskSummary: verdict.Reasoning,
		DueAt:         &dueAt,
		Status:        domain.QueueStatusOpen,
	}
	if err := s.queueRepo.Create(item); err != nil {
		return nil, err
	}
	s.invalidateQueueSummary(ctx)

	return report, nil
}

// enqueue creates the review queue item for a flagged submission
func (s *ModerationService) enqueue(itemType, itemID string, verdict *ClassifyResult) error {
	priority := domain.QueuePriorityMedium
	if verdict.RiskLevel == domain.RiskLevelHigh {
		priority = domain.QueuePriorityUrgent
	}

	dueAt := time.Now().Add(reviewDueAfter)
	item := &domain.ModerationQueueItem{
		ID:            uuid.NewString(),
		ItemType:      itemType,
		ItemID:        itemID,
		Priority:      priority,
		AIRiskSummary: verdict.Reasoning,
		DueAt:         &dueAt,
		Status:        domain.QueueStatusOpen,
	}
	if err := s.queueRepo.Create(item); err != nil {
		return err
	}
	s.invalidateQueueSummary(context.Background())
	return nil
}

// Resolve applies a terminal disposition to a queued item. The target entity
// mutation and the queue status flip commit in one transaction; a failure
// there aborts before any audit write. The audit entry itself is best-effort.
func (s *ModerationService) Resolve(ctx context.Context, queueItemID, operatorID, action, reason string) error {
	item, err := s.queueRepo.FindByID(queueItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrQueueItemNotFound
		}
		return err
	}

	operatorRole := s.operatorRole(operatorID)

	if item.Status == domain.QueueStatusResolved {
		s.recordRejection(operatorID, operatorRole, item, action, "queue item already resolved")
		return common.ErrAlreadyResolved
	}
	if !validResolveActions[action] {
		s.recordRejection(operatorID, operatorRole, item, action, "invalid action")
		return common.ErrInvalidAction
	}
	if item.ItemType == domain.QueueItemTypeReport &&
		action != domain.ActionApprove && action != domain.ActionRejectReport {
		s.recordRejection(operatorID, operatorRole, item, action, "action not valid for reports")
		return common.ErrInvalidAction
	}

	resolution, err := json.Marshal(domain.Resolution{
		Action:     action,
		Reason:     reason,
		ResolvedBy: operatorID,
	})
	if err != nil {
		return err
	}

	var before, after interface{}
	var finalReason = reason
	var touched resolvedTarget

	err = s.db.Transaction(func(tx *gorm.DB) error {
		switch item.ItemType {
		case domain.QueueItemTypePost:
			before, after, finalReason, touched, err = s.resolvePost(tx, item.ItemID, action, reason)
		case domain.QueueItemTypeComment:
			before, after, finalReason, touched, err = s.resolveComment(tx, item.ItemID, action, reason)
		case domain.QueueItemTypeReport:
			before, after, touched, err = s.resolveReport(tx, item.ItemID, operatorID, action, reason)
		default:
			err = common.ErrInvalidAction
		}
		if err != nil {
			return err
		}

		return s.queueRepo.WithTx(tx).MarkResolved(item.ID, string(resolution), time.Now())
	})
	if err != nil {
		return err
	}

	// Side effects only after the transaction committed
	s.applyResolutionSideEffects(ctx, touched)
	s.invalidateQueueSummary(ctx)

	// Audit after the fact: failure here never rolls back moderation
	s.audit.Record(AuditEntry{
		OperatorID:   operatorID,
		OperatorRole: operatorRole,
		ActionType:   "moderation_" + action,
		TargetType:   item.ItemType,
		TargetID:     item.ItemID,
		Reason:       finalReason,
		BeforeState:  before,
		AfterState:   after,
		AdditionalData: map[string]string{
			"queue_item_id": item.ID,
		},
	})

	return nil
}

// resolvedTarget carries the post-transaction side effects of a resolution
type resolvedTarget struct {
	post          *domain.Post
	publishedPost bool
	removedPostID string
	postID        string // for cache invalidation
	category      string
}

// resolvePost mutates a post per the resolution action
func (s *ModerationService) resolvePost(tx *gorm.DB, postID, action, reason string) (before, after interface{}, finalReason string, touched resolvedTarget, err error) {
	repo := s.postRepo.WithTx(tx)
	post, err := repo.FindByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, reason, touched, common.ErrPostNotFound
		}
		return nil, nil, reason, touched, err
	}

	snapshot := *post
	before = snapshot
	finalReason = reason

	switch action {
	case domain.ActionApprove:
		post.Status = domain.ContentStatusPublished
	case domain.ActionRemove:
		post.Status = domain.ContentStatusRemoved
	case domain.ActionShadow:
		post.Status = domain.ContentStatusShadow
	case domain.ActionPending:
		post.Status = domain.ContentStatusPending
	case domain.ActionRedact:
		titleRes := Redact(post.Title)
		contentRes := Redact(post.Content)
		post.RedactedTitle = titleRes.RedactedText
		post.RedactedContent = contentRes.RedactedText
		post.RedactedItems = append(domain.StringArray{}, titleRes.RedactedItems...)
		post.RedactedItems = append(post.RedactedItems, contentRes.RedactedItems...)
		post.Status = domain.ContentStatusRedacted
		if finalReason == "" {
			finalReason = "已遮蔽敏感內容: " + strings.Join(post.RedactedItems, "; ")
		}
	}

	if err := repo.Save(post); err != nil {
		return nil, nil, finalReason, touched, err
	}

	touched.postID = post.ID
	touched.category = post.Category
	if action == domain.ActionApprove {
		touched.post = post
		touched.publishedPost = true
	} else if snapshot.Status == domain.ContentStatusPublished {
		touched.removedPostID = post.ID
	}

	after = *post
	return before, after, finalReason, touched, nil
}

// resolveComment mutates a comment per the resolution action
func (s *ModerationService) resolveComment(tx *gorm.DB, commentID, action, reason string) (before, after interface{}, finalReason string, touched resolvedTarget, err error) {
	repo := s.commentRepo.WithTx(tx)
	comment, err := repo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, reason, touched, common.ErrCommentNotFound
		}
		return nil, nil, reason, touched, err
	}

	snapshot := *comment
	before = snapshot
	finalReason = reason

	switch action {
	case domain.ActionApprove:
		comment.Status = domain.ContentStatusPublished
	case domain.ActionRemove:
		comment.Status = domain.ContentStatusRemoved
	case domain.ActionShadow:
		comment.Status = domain.ContentStatusShadow
	case domain.ActionPending:
		comment.Status = domain.ContentStatusPending
	case domain.ActionRedact:
		contentRes := Redact(comment.Content)
		comment.RedactedContent = contentRes.RedactedText
		comment.RedactedItems = contentRes.RedactedItems
		comment.Status = domain.ContentStatusRedacted
		if finalReason == "" {
			finalReason = "已遮蔽敏感內容: " + strings.Join(comment.RedactedItems, "; ")
		}
	}

	if err := repo.Save(comment); err != nil {
		return nil, nil, finalReason, touched, err
	}

	touched.postID = comment.PostID
	after = *comment
	return before, after, finalReason, touched, nil
}

// resolveReport settles a user report. Upholding it also removes the reported
// content in the same transaction.
func (s *ModerationService) resolveReport(tx *gorm.DB, reportID, operatorID, action, reason string) (before, after interface{}, touched resolvedTarget, err error) {
	repo := s.reportRepo.WithTx(tx)
	report, err := repo.FindByID(reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, touched, common.ErrNotFound
		}
		return nil, nil, touched, err
	}

	snapshot := *report
	before = snapshot
	now := time.Now()
	report.ReviewedBy = operatorID
	report.ReviewNotes = reason
	report.ReviewedAt = &now

	switch action {
	case domain.ActionApprove:
		report.Status = domain.ReportStatusUpheld
		report.ActionTaken = "content_removed"
		removedID, err := s.removeReportedContent(tx, report)
		if err != nil {
			return nil, nil, touched, err
		}
		if report.TargetType == domain.QueueItemTypePost {
			touched.removedPostID = removedID
			touched.postID = removedID
		}
	case domain.ActionRejectReport:
		report.Status = domain.ReportStatusDismissed
	}

	if err := repo.Save(report); err != nil {
		return nil, nil, touched, err
	}

	after = *report
	return before, after, touched, nil
}

func (s *ModerationService) removeReportedContent(tx *gorm.DB, report *domain.Report) (string, error) {
	switch report.TargetType {
	case domain.QueueItemTypePost:
		repo := s.postRepo.WithTx(tx)
		post, err := repo.FindByID(report.TargetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", nil // already gone, the report can still be upheld
			}
			return "", err
		}
		post.Status = domain.ContentStatusRemoved
		if err := repo.Save(post); err != nil {
			return "", err
		}
		return post.ID, nil
	case domain.QueueItemTypeComment:
		repo := s.commentRepo.WithTx(tx)
		comment, err := repo.FindByID(report.TargetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", nil
			}
			return "", err
		}
		comment.Status = domain.ContentStatusRemoved
		if err := repo.Save(comment); err != nil {
			return "", err
		}
	}
	return "", nil
}

// applyResolutionSideEffects runs indexing and cache invalidation after the
// resolution transaction committed
func (s *ModerationService) applyResolutionSideEffects(ctx context.Context, touched resolvedTarget) {
	if touched.publishedPost && touched.post != nil {
		s.indexer.EnqueuePublished(touched.post)
	}
	if touched.removedPostID != "" {
		s.indexer.EnqueueRemoval(touched.removedPostID)
	}
	if touched.postID != "" || touched.category != "" {
		s.invalidatePostCaches(ctx, touched.postID, touched.category)
	}
}

// recordRejection writes the audit trail for a resolution attempt rejected
// before any entity mutation
func (s *ModerationService) recordRejection(operatorID, operatorRole string, item *domain.ModerationQueueItem, action, cause string) {
	s.audit.Record(AuditEntry{
		OperatorID:   operatorID,
		OperatorRole: operatorRole,
		ActionType:   "moderation_rejected",
		TargetType:   item.ItemType,
		TargetID:     item.ItemID,
		Reason:       cause,
		AdditionalData: map[string]string{
			"queue_item_id":    item.ID,
			"attempted_action": action,
		},
	})
}

// operatorRole resolves the operator's role from their profile, defaulting to
// admin when the profile is missing
func (s *ModerationService) operatorRole(operatorID string) string {
	profile, err := s.profileRepo.FindByUserID(operatorID)
	if err != nil || profile == nil || profile.Role == "" {
		return domain.RoleAdmin
	}
	return profile.Role
}

// ListQueue returns open queue items for review
func (s *ModerationService) ListQueue(priority string, page, limit int) ([]*domain.ModerationQueueItem, int64, error) {
	return s.queueRepo.ListOpen(priority, page, limit)
}

// Summary returns open queue counts, cached briefly
func (s *ModerationService) Summary(ctx context.Context) (*domain.QueueSummary, error) {
	if s.cache != nil && s.cache.IsAvailable() {
		if data, err := s.cache.GetQueueSummary(ctx); err == nil {
			var summary domain.QueueSummary
			if json.Unmarshal(data, &summary) == nil {
				return &summary, nil
			}
		}
	}

	summary, err := s.queueRepo.Summary()
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetQueueSummary(ctx, summary)
	}
	return summary, nil
}

// GetPost serves a post in its status-appropriate form. Removed posts are
// gone for everyone; pending and shadow posts are visible to their author only.
func (s *ModerationService) GetPost(ctx context.Context, postID, viewerID string) (*domain.PostView, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrPostNotFound
		}
		return nil, err
	}

	switch post.Status {
	case domain.ContentStatusRemoved:
		return nil, common.ErrPostNotFound
	case domain.ContentStatusPending, domain.ContentStatusShadow:
		if post.AuthorID != viewerID {
			return nil, common.ErrPostNotFound
		}
	}

	view := post.View()
	if count, err := s.commentRepo.CountByPost(post.ID); err == nil {
		view.CommentCount = count
	}
	return &view, nil
}

// ListPosts returns published posts, optionally filtered by category
func (s *ModerationService) ListPosts(ctx context.Context, category string, page, limit int) ([]domain.PostView, int64, error) {
	posts, total, err := s.postRepo.ListByStatus(domain.ContentStatusPublished, category, page, limit)
	if err != nil {
		return nil, 0, err
	}

	views := make([]domain.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, p.View())
	}
	return views, total, nil
}

// ListComments returns comments on a post, filtering removed ones and
// shadowed ones the viewer did not write
func (s *ModerationService) ListComments(postID, viewerID string, page, limit int) ([]domain.CommentView, int64, error) {
	comments, total, err := s.commentRepo.ListByPost(postID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	views := make([]domain.CommentView, 0, len(comments))
	for _, c := range comments {
		switch c.Status {
		case domain.ContentStatusRemoved:
			continue
		case domain.ContentStatusPending, domain.ContentStatusShadow:
			if c.AuthorID != viewerID {
				continue
			}
		}
		views = append(views, c.View())
	}
	return views, total, nil
}

func (s *ModerationService) invalidatePostCaches(ctx context.Context, postID, category string) {
	if s.cache == nil {
		return
	}
	if postID != "" {
		_ = s.cache.InvalidatePost(ctx, postID)
	}
	_ = s.cache.InvalidatePosts(ctx, category)
}

func (s *ModerationService) invalidateQueueSummary(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateQueueSummary(ctx); err != nil {
		log := pkglogger.WithComponent("moderation")
		log.Debug().Err(err).Msg("queue summary cache invalidation failed")
	}
}
