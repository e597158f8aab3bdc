package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/dto"
	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/repository"
)

func setupAuditService(t *testing.T) (*gorm.DB, AuditService) {
	t.Helper()

	dsn := fmt.Sprintf("file:audit_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditLog{}))

	return db, NewAuditService(repository.NewAuditLogRepository(db), zerolog.Nop())
}

func TestAuditServiceRecordSanitizesMetadata(t *testing.T) {
	db, svc := setupAuditService(t)
	ctx := context.Background()

	entityID := uint(7)
	err := svc.Record(ctx, AuditEntry{
		ActorID:    1,
		ActorRole:  "ADMIN",
		Action:     "Update",
		EntityType: "Student",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"email":      "secret@example.com",
			"auth_token": "abc",
			"niveau":     "M1",
		},
	})
	require.NoError(t, err)

	var stored models.AuditLog
	require.NoError(t, db.First(&stored).Error)
	require.Equal(t, "admin", stored.ActorRole)
	require.Equal(t, "update", stored.Action)
	require.Equal(t, "student", stored.EntityType)
	require.Equal(t, "***", stored.Metadata["email"])
	require.Equal(t, "***", stored.Metadata["auth_token"])
	require.Equal(t, "M1", stored.Metadata["niveau"])
}

func TestAuditServiceRecordRequiresAction(t *testing.T) {
	_, svc := setupAuditService(t)

	err := svc.Record(context.Background(), AuditEntry{EntityType: "student"})
	require.Error(t, err)
}

func TestAuditServiceListFilters(t *testing.T) {
	_, svc := setupAuditService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(ctx, AuditEntry{
			ActorID:    uint(i%2 + 1),
			ActorRole:  "admin",
			Action:     "create",
			EntityType: "competence",
		}))
	}

	all, err := svc.List(ctx, dto.AuditListRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 3, all.Pagination.TotalItems)

	filtered, err := svc.List(ctx, dto.AuditListRequest{ActorID: 1})
	require.NoError(t, err)
	require.Len(t, filtered.Items, 2)
	for _, item := range filtered.Items {
		require.EqualValues(t, 1, item.ActorID)
	}
}
