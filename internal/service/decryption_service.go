package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linlihub/linli-backend/internal/common"
	"github.com/linlihub/linli-backend/internal/domain"
	"github.com/linlihub/linli-backend/internal/repository"
)

// RevealedIdentity is returned once a request is fully approved
type RevealedIdentity struct {
	RequestID   string `json:"request_id"`
	TargetType  string `json:"target_type"`
	TargetID    string `json:"target_id"`
	AuthorID    string `json:"author_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// DecryptionService runs the two-party approval protocol that gates reveal of
// a semi-anonymous author's identity: committee first, then admin. Either
// party declining finalizes the request as rejected. Every decision writes
// one audit entry keyed by related_request_id so the approval chain can be
// replayed in full.
type DecryptionService struct {
	repo        repository.DecryptionRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	profileRepo repository.ProfileRepository
	audit       *AuditService
}

// NewDecryptionService creates a new DecryptionService
func NewDecryptionService(
	repo repository.DecryptionRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	profileRepo repository.ProfileRepository,
	audit *AuditService,
) *DecryptionService {
	return &DecryptionService{
		repo:        repo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		profileRepo: profileRepo,
		audit:       audit,
	}
}

// Create files a new decryption request in the requested state
func (s *DecryptionService) Create(requesterLineUserID string, req domain.CreateDecryptionRequest) (*domain.DecryptionRequest, error) {
	if requesterLineUserID == "" || req.TargetType == "" || req.TargetID == "" || req.Reason == "" {
		return nil, common.ErrInvalidInput
	}
	if req.TargetType != domain.QueueItemTypePost && req.TargetType != domain.QueueItemTypeComment {
		return nil, common.ErrInvalidInput
	}

	request := &domain.DecryptionRequest{
		ID:                  uuid.NewString(),
		RequesterLineUserID: requesterLineUserID,
		TargetType:          req.TargetType,
		TargetID:            req.TargetID,
		Reason:              req.Reason,
		Status:              domain.DecryptionStatusRequested,
	}
	if err := s.repo.Create(request); err != nil {
		return nil, err
	}

	s.audit.Record(AuditEntry{
		OperatorID:       requesterLineUserID,
		OperatorRole:     domain.RoleResident,
		ActionType:       "decryption_requested",
		TargetType:       req.TargetType,
		TargetID:         req.TargetID,
		Reason:           req.Reason,
		AfterState:       request,
		RelatedRequestID: request.ID,
	})

	return request, nil
}

// Get returns a decryption request by id
func (s *DecryptionService) Get(requestID string) (*domain.DecryptionRequest, error) {
	request, err := s.repo.FindByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

// List returns decryption requests, optionally filtered by status
func (s *DecryptionService) List(status string, page, limit int) ([]*domain.DecryptionRequest, int64, error) {
	return s.repo.ListByStatus(status, page, limit)
}

// CommitteeReview records the committee's decision. Only valid while the
// request is still in the requested state.
func (s *DecryptionService) CommitteeReview(requestID, committeeID string, approved bool, notes string) (*domain.DecryptionRequest, error) {
	request, err := s.repo.FindByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrRequestNotFound
		}
		return nil, err
	}

	role := s.reviewerRole(committeeID, domain.RoleCommittee)

	if request.Status != domain.DecryptionStatusRequested {
		s.recordReviewRejection(committeeID, role, request, "committee_review", "request not in requested state")
		if request.IsFinal() {
			return nil, common.ErrRequestFinalized
		}
		return nil, common.ErrAlreadyReviewed
	}

	snapshot := *request
	now := time.Now()
	request.CommitteeApproverID = committeeID
	request.CommitteeApproved = &approved
	request.CommitteeNotes = notes
	request.CommitteeAt = &now

	if approved {
		request.Status = domain.DecryptionStatusCommitteeApproved
	} else {
		request.Status = domain.DecryptionStatusRejected
	}

	if err := s.repo.Save(request); err != nil {
		return nil, err
	}

	s.audit.Record(AuditEntry{
		OperatorID:       committeeID,
		OperatorRole:     role,
		ActionType:       "decryption_committee_review",
		TargetType:       request.TargetType,
		TargetID:         request.TargetID,
		Reason:           notes,
		BeforeState:      snapshot,
		AfterState:       request,
		AdditionalData:   map[string]bool{"approved": approved},
		RelatedRequestID: request.ID,
	})

	return request, nil
}

// AdminReview records the admin's decision. An admin may act while the
// request is requested or committee-approved; an approval recorded before the
// committee has approved is logged but leaves the request short of
// fully_approved, so reveal stays locked.
func (s *DecryptionService) AdminReview(requestID, adminID string, approved bool, notes string) (*domain.DecryptionRequest, error) {
	request, err := s.repo.FindByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrRequestNotFound
		}
		return nil, err
	}

	role := s.reviewerRole(adminID, domain.RoleAdmin)

	if request.Status != domain.DecryptionStatusRequested &&
		request.Status != domain.DecryptionStatusCommitteeApproved {
		s.recordReviewRejection(adminID, role, request, "admin_review", "request already finalized")
		return nil, common.ErrRequestFinalized
	}

	snapshot := *request
	now := time.Now()
	request.AdminApproverID = adminID
	request.AdminApproved = &approved
	request.AdminNotes = notes
	request.AdminAt = &now

	switch {
	case !approved:
		// Rejection by either party is final regardless of prior state
		request.Status = domain.DecryptionStatusRejected
	case request.CommitteeApproved != nil && *request.CommitteeApproved:
		request.Status = domain.DecryptionStatusFullyApproved
	default:
		// Admin approved before the committee: decision recorded, status
		// unchanged; both signals are required to unlock the identity
	}

	if err := s.repo.Save(request); err != nil {
		return nil, err
	}

	s.audit.Record(AuditEntry{
		OperatorID:       adminID,
		OperatorRole:     role,
		ActionType:       "decryption_admin_review",
		TargetType:       request.TargetType,
		TargetID:         request.TargetID,
		Reason:           notes,
		BeforeState:      snapshot,
		AfterState:       request,
		AdditionalData:   map[string]bool{"approved": approved},
		RelatedRequestID: request.ID,
	})

	return request, nil
}

// Reveal returns the de-anonymized author identity for a fully approved
// request. Access to the identity is itself audited.
func (s *DecryptionService) Reveal(requestID, callerID string) (*RevealedIdentity, error) {
	request, err := s.repo.FindByID(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrRequestNotFound
		}
		return nil, err
	}

	if !request.RevealPermitted() {
		return nil, common.ErrRevealNotAllowed
	}

	authorID, err := s.lookupAuthor(request.TargetType, request.TargetID)
	if err != nil {
		return nil, err
	}

	identity := &RevealedIdentity{
		RequestID:  request.ID,
		TargetType: request.TargetType,
		TargetID:   request.TargetID,
		AuthorID:   authorID,
	}
	if profile, err := s.profileRepo.FindByUserID(authorID); err == nil {
		identity.DisplayName = profile.DisplayName
	}

	s.audit.Record(AuditEntry{
		OperatorID:       callerID,
		OperatorRole:     s.reviewerRole(callerID, domain.RoleAdmin),
		ActionType:       "decryption_reveal_accessed",
		TargetType:       request.TargetType,
		TargetID:         request.TargetID,
		RelatedRequestID: request.ID,
	})

	return identity, nil
}

// AuditTrail returns the ordered audit chain for a request
func (s *DecryptionService) AuditTrail(requestID string) ([]*domain.AuditLogEntry, error) {
	return s.audit.Trail(requestID)
}

func (s *DecryptionService) lookupAuthor(targetType, targetID string) (string, error) {
	switch targetType {
	case domain.QueueItemTypePost:
		post, err := s.postRepo.FindByID(targetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", common.ErrPostNotFound
			}
			return "", err
		}
		return post.AuthorID, nil
	case domain.QueueItemTypeComment:
		comment, err := s.commentRepo.FindByID(targetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", common.ErrCommentNotFound
			}
			return "", err
		}
		return comment.AuthorID, nil
	}
	return "", common.ErrInvalidInput
}

func (s *DecryptionService) reviewerRole(userID, fallback string) string {
	profile, err := s.profileRepo.FindByUserID(userID)
	if err != nil || profile == nil || profile.Role == "" {
		return fallback
	}
	return profile.Role
}

func (s *DecryptionService) recordReviewRejection(operatorID, role string, request *domain.DecryptionRequest, stage, cause string) {
	s.audit.Record(AuditEntry{
		OperatorID:       operatorID,
		OperatorRole:     role,
		ActionType:       "decryption_review_rejected",
		TargetType:       request.TargetType,
		TargetID:         request.TargetID,
		Reason:           cause,
		AdditionalData:   map[string]string{"stage": stage, "status": request.Status},
		RelatedRequestID: request.ID,
	})
}
