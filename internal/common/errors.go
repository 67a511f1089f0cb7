package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Content errors
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrContentRemoved  = errors.New("content has been removed")

	// Moderation errors
	ErrQueueItemNotFound = errors.New("moderation queue item not found")
	ErrAlreadyResolved   = errors.New("moderation queue item already resolved")
	ErrInvalidAction     = errors.New("invalid moderation action")

	// Decryption workflow errors
	ErrRequestNotFound  = errors.New("decryption request not found")
	ErrAlreadyReviewed  = errors.New("decryption request already reviewed at this stage")
	ErrRequestFinalized = errors.New("decryption request already finalized")
	ErrRevealNotAllowed = errors.New("identity reveal not permitted")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrUserNotFound = errors.New("user not found")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)
