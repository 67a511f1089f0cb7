package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linlihub/linli-backend/internal/domain"
	"github.com/linlihub/linli-backend/internal/repository"
)

func TestAuditRecordPersistsSnapshots(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(repository.NewAuditRepository(db))

	ok := svc.Record(AuditEntry{
		OperatorID:   "op-1",
		OperatorRole: domain.RoleCommittee,
		ActionType:   "moderation_remove",
		TargetType:   "post",
		TargetID:     "post-1",
		Reason:       "個資外洩",
		BeforeState:  map[string]string{"status": "pending"},
		AfterState:   map[string]string{"status": "removed"},
	})
	assert.True(t, ok)

	var entry domain.AuditLogEntry
	assert.NoError(t, db.First(&entry).Error)
	assert.Equal(t, domain.RoleCommittee, entry.OperatorRole)
	assert.JSONEq(t, `{"status":"pending"}`, entry.BeforeState)
	assert.JSONEq(t, `{"status":"removed"}`, entry.AfterState)
	assert.Empty(t, entry.AdditionalData)
}

func TestAuditRecordDefaultsRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(repository.NewAuditRepository(db))

	svc.Record(AuditEntry{OperatorID: "op-1", ActionType: "x", TargetType: "post", TargetID: "p"})

	var entry domain.AuditLogEntry
	assert.NoError(t, db.First(&entry).Error)
	assert.Equal(t, domain.RoleAdmin, entry.OperatorRole)
}

func TestAuditRecordFailureReturnsFalse(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(repository.NewAuditRepository(db))

	// Simulate a storage failure
	assert.NoError(t, db.Migrator().DropTable(&domain.AuditLogEntry{}))

	ok := svc.Record(AuditEntry{OperatorID: "op-1", ActionType: "x", TargetType: "post", TargetID: "p"})
	assert.False(t, ok)
}

func TestAuditRecordBatch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(repository.NewAuditRepository(db))

	ok := svc.RecordBatch([]AuditEntry{
		{OperatorID: "op-1", ActionType: "a", TargetType: "post", TargetID: "p1"},
		{OperatorID: "op-1", ActionType: "b", TargetType: "post", TargetID: "p2"},
	})
	assert.True(t, ok)
	assert.True(t, svc.RecordBatch(nil))

	var count int64
	db.Model(&domain.AuditLogEntry{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestAuditListFilters(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(repository.NewAuditRepository(db))

	svc.Record(AuditEntry{OperatorID: "op-1", ActionType: "moderation_remove", TargetType: "post", TargetID: "p1"})
	svc.Record(AuditEntry{OperatorID: "op-1", ActionType: "moderation_approve", TargetType: "post", TargetID: "p2"})
	svc.Record(AuditEntry{OperatorID: "op-1", ActionType: "moderation_remove", TargetType: "comment", TargetID: "c1"})

	entries, total, err := svc.List("moderation_remove", "", "", 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, entries, 2)

	entries, total, err = svc.List("moderation_remove", "comment", "", 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "c1", entries[0].TargetID)
}
