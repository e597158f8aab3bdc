package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/dto"
	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/repository"
)

func setupAdminCompetenceService(t *testing.T) (*gorm.DB, AdminCompetenceService, *stubAuditRecorder) {
	t.Helper()

	dsn := fmt.Sprintf("file:admin_competence_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Track{},
		&models.Student{},
		&models.Competence{},
		&models.StudentCompetence{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	audit := &stubAuditRecorder{}

	svc := NewAdminCompetenceService(
		repository.NewCompetenceRepository(db),
		repository.NewStudentCompetenceRepository(db),
		audit,
		validate,
		zerolog.Nop(),
	)

	return db, svc, audit
}

func createCompetencePayload(code string) dto.AdminCompetenceCreateRequest {
	return dto.AdminCompetenceCreateRequest{
		Code:          code,
		InstitutionID: 1,
		Name:          "Go Fundamentals",
		Description:   "Core language skills",
		Category:      "Programming",
		Domain:        "Backend",
		Level:         "DEBUTANT",
		Tags:          []string{"go", "backend"},
	}
}

func TestAdminCompetenceServiceCreate(t *testing.T) {
	_, svc, audit := setupAdminCompetenceService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createCompetencePayload("go101"), AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, "GO101", created.Code)
	require.Equal(t, []string{"go", "backend"}, created.Tags)
	require.NotNil(t, created.Statistics)
	require.Zero(t, created.Statistics.TotalStudents)

	require.Len(t, audit.entries, 1)
	require.Equal(t, "competence", audit.entries[0].EntityType)
}

func TestAdminCompetenceServiceCreateRejectsDuplicateCode(t *testing.T) {
	_, svc, _ := setupAdminCompetenceService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createCompetencePayload("GO101"), AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, createCompetencePayload("go101"), AuditActor{ID: 9, Role: "admin"})
	require.ErrorIs(t, err, ErrCompetenceCodeTaken)

	// Same code under another institution is allowed.
	other := createCompetencePayload("GO101")
	other.InstitutionID = 2
	_, err = svc.Create(ctx, other, AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)
}

func TestAdminCompetenceServicePrerequisites(t *testing.T) {
	_, svc, _ := setupAdminCompetenceService(t)
	ctx := context.Background()

	base, err := svc.Create(ctx, createCompetencePayload("GO101"), AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)

	advanced := createCompetencePayload("GO201")
	advanced.Prerequisites = []uint{base.ID}
	createdAdvanced, err := svc.Create(ctx, advanced, AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)
	require.Len(t, createdAdvanced.Prerequisites, 1)
	require.Equal(t, base.ID, createdAdvanced.Prerequisites[0].ID)

	refreshed, err := svc.Get(ctx, base.ID)
	require.NoError(t, err)
	require.Len(t, refreshed.NextCompetences, 1)
	require.Equal(t, createdAdvanced.ID, refreshed.NextCompetences[0].ID)

	missing := createCompetencePayload("GO301")
	missing.Prerequisites = []uint{999}
	_, err = svc.Create(ctx, missing, AuditActor{ID: 9, Role: "admin"})
	require.ErrorIs(t, err, ErrPrerequisiteNotFound)
}

func TestAdminCompetenceServiceDeleteBlockedWhenInUse(t *testing.T) {
	db, svc, _ := setupAdminCompetenceService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createCompetencePayload("GO101"), AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.StudentCompetence{StudentID: 1, CompetenceID: created.ID, Status: models.CompetenceStatusInProgress}).Error)

	err = svc.Delete(ctx, created.ID, AuditActor{ID: 9, Role: "admin"})
	var inUse *repository.CompetenceInUseError
	require.ErrorAs(t, err, &inUse)
	require.EqualValues(t, 1, inUse.StudentCount)
}

func TestAdminCompetenceServiceDeleteBlockedWhenPrerequisite(t *testing.T) {
	_, svc, _ := setupAdminCompetenceService(t)
	ctx := context.Background()

	base, err := svc.Create(ctx, createCompetencePayload("GO101"), AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)

	advanced := createCompetencePayload("GO201")
	advanced.Prerequisites = []uint{base.ID}
	_, err = svc.Create(ctx, advanced, AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)

	err = svc.Delete(ctx, base.ID, AuditActor{ID: 9, Role: "admin"})
	var inUse *repository.CompetenceInUseError
	require.ErrorAs(t, err, &inUse)
	require.EqualValues(t, 1, inUse.DependentCount)
}

func TestAdminCompetenceServiceUpdate(t *testing.T) {
	_, svc, _ := setupAdminCompetenceService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createCompetencePayload("GO101"), AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)

	name := "Go Fundamentals v2"
	hours := 42.0
	updated, err := svc.Update(ctx, created.ID, dto.AdminCompetenceUpdateRequest{
		Name:           &name,
		EstimatedHours: &hours,
	}, AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, "Go Fundamentals v2", updated.Name)
	require.InDelta(t, 42.0, updated.EstimatedHours, 0.001)
	// Code stays immutable through updates.
	require.Equal(t, "GO101", updated.Code)
}

func TestAdminCompetenceServicePopularity(t *testing.T) {
	db, svc, _ := setupAdminCompetenceService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, createCompetencePayload("GO101"), AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)

	require.NoError(t, db.Create(&models.StudentCompetence{StudentID: 1, CompetenceID: created.ID, Status: models.CompetenceStatusInProgress}).Error)
	require.NoError(t, db.Create(&models.StudentCompetence{StudentID: 2, CompetenceID: created.ID, Status: models.CompetenceStatusValidated}).Error)

	popularity, err := svc.RecalculatePopularity(ctx, created.ID, AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)
	require.EqualValues(t, 2, popularity.StudentsCount)
	require.EqualValues(t, 1, popularity.AcquiredCount)
	require.Equal(t, 4, popularity.PopularityScore)

	refreshed, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 4, refreshed.PopularityScore)
}

func TestAdminCompetenceServiceCategories(t *testing.T) {
	_, svc, _ := setupAdminCompetenceService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createCompetencePayload("GO101"), AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)

	other := createCompetencePayload("SQL101")
	other.Category = "Databases"
	other.Domain = "Data"
	_, err = svc.Create(ctx, other, AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories.Categories, 2)
	require.Len(t, categories.Domains, 2)
}
