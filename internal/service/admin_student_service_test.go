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

type stubAuditRecorder struct {
	entries []AuditEntry
}

func (s *stubAuditRecorder) Record(_ context.Context, entry AuditEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func setupAdminStudentService(t *testing.T) (*gorm.DB, AdminStudentService, *stubAuditRecorder) {
	t.Helper()

	dsn := fmt.Sprintf("file:admin_student_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Track{},
		&models.Student{},
		&models.ActivityProfile{},
		&models.ActivitySession{},
		&models.Competence{},
		&models.StudentCompetence{},
		&models.Goal{},
		&models.Achievement{},
	))

	require.NoError(t, db.Create(&models.Track{Title: "Software Engineering"}).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	audit := &stubAuditRecorder{}

	svc := NewAdminStudentService(
		repository.NewStudentRepository(db),
		repository.NewUserRepository(db),
		repository.NewTrackRepository(db),
		repository.NewActivityProfileRepository(db),
		repository.NewStudentCompetenceRepository(db),
		audit,
		validate,
		4,
		zerolog.Nop(),
	)

	return db, svc, audit
}

func createTestStudent(t *testing.T, svc AdminStudentService, email string) dto.AdminStudentResponse {
	t.Helper()

	created, err := svc.Create(context.Background(), dto.AdminStudentCreateRequest{
		Email:     email,
		Password:  "secret1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		TrackID:   1,
		Niveau:    models.NiveauL3,
		Promotion: 2026,
	}, AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)
	return created
}

func TestAdminStudentServiceCreate(t *testing.T) {
	db, svc, audit := setupAdminStudentService(t)

	created := createTestStudent(t, svc, "Ada@Example.com")
	require.Equal(t, "ada@example.com", created.Email)
	require.Equal(t, models.NiveauL3, created.Niveau)
	require.True(t, created.IsActive)
	require.NotNil(t, created.Statistics)
	require.Equal(t, 1, created.Statistics.Level)

	var profile models.ActivityProfile
	require.NoError(t, db.Where("student_id = ?", created.ID).First(&profile).Error)

	require.Len(t, audit.entries, 1)
	require.Equal(t, "create", audit.entries[0].Action)
	require.Equal(t, "student", audit.entries[0].EntityType)
}

func TestAdminStudentServiceCreateRejectsDuplicateEmail(t *testing.T) {
	_, svc, _ := setupAdminStudentService(t)

	createTestStudent(t, svc, "dup@example.com")

	_, err := svc.Create(context.Background(), dto.AdminStudentCreateRequest{
		Email:     "dup@example.com",
		Password:  "secret1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		TrackID:   1,
		Niveau:    models.NiveauL3,
		Promotion: 2026,
	}, AuditActor{ID: 9, Role: "admin"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAdminStudentServiceCreateRejectsUnknownTrack(t *testing.T) {
	_, svc, _ := setupAdminStudentService(t)

	_, err := svc.Create(context.Background(), dto.AdminStudentCreateRequest{
		Email:     "orphan@example.com",
		Password:  "secret1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		TrackID:   42,
		Niveau:    models.NiveauL3,
		Promotion: 2026,
	}, AuditActor{ID: 9, Role: "admin"})
	require.ErrorIs(t, err, ErrTrackNotFound)
}

func TestAdminStudentServiceUpdate(t *testing.T) {
	_, svc, audit := setupAdminStudentService(t)

	created := createTestStudent(t, svc, "update@example.com")

	firstName := "Grace"
	niveau := models.NiveauM1
	updated, err := svc.Update(context.Background(), created.ID, dto.AdminStudentUpdateRequest{
		FirstName: &firstName,
		Niveau:    &niveau,
	}, AuditActor{ID: 9, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, "Grace", updated.FirstName)
	require.Equal(t, models.NiveauM1, updated.Niveau)

	last := audit.entries[len(audit.entries)-1]
	require.Equal(t, "update", last.Action)
	require.ElementsMatch(t, []string{"first_name", "niveau"}, last.Metadata["changed_fields"])
}

func TestAdminStudentServiceUpdateRejectsTakenEmail(t *testing.T) {
	_, svc, _ := setupAdminStudentService(t)

	createTestStudent(t, svc, "first@example.com")
	second := createTestStudent(t, svc, "second@example.com")

	email := "first@example.com"
	_, err := svc.Update(context.Background(), second.ID, dto.AdminStudentUpdateRequest{Email: &email}, AuditActor{ID: 9, Role: "admin"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAdminStudentServiceDeleteDeactivatesByDefault(t *testing.T) {
	db, svc, _ := setupAdminStudentService(t)

	created := createTestStudent(t, svc, "soft@example.com")

	require.NoError(t, svc.Delete(context.Background(), created.ID, false, AuditActor{ID: 9, Role: "admin"}))

	var user models.User
	require.NoError(t, db.First(&user, created.UserID).Error)
	require.False(t, user.IsActive)

	var count int64
	require.NoError(t, db.Model(&models.Student{}).Where("id = ?", created.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAdminStudentServiceDeletePermanentlyCascades(t *testing.T) {
	db, svc, _ := setupAdminStudentService(t)

	created := createTestStudent(t, svc, "hard@example.com")
	require.NoError(t, db.Create(&models.Goal{
		StudentID:   created.ID,
		Title:       "Finish course",
		Type:        models.GoalTypeLearningHours,
		Status:      models.GoalStatusActive,
		Priority:    models.GoalPriorityMedium,
		TargetValue: 10,
		Unit:        "hours",
		Deadline:    time.Now().Add(24 * time.Hour),
	}).Error)

	require.NoError(t, svc.Delete(context.Background(), created.ID, true, AuditActor{ID: 9, Role: "admin"}))

	for _, model := range []interface{}{&models.Student{}, &models.ActivityProfile{}, &models.Goal{}} {
		var count int64
		require.NoError(t, db.Model(model).Where("student_id = ?", created.ID).Count(&count).Error)
		require.Zero(t, count)
	}

	var users int64
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", created.UserID).Count(&users).Error)
	require.Zero(t, users)
}

func TestAdminStudentServiceResetPassword(t *testing.T) {
	db, svc, audit := setupAdminStudentService(t)

	created := createTestStudent(t, svc, "reset@example.com")

	var before models.User
	require.NoError(t, db.First(&before, created.UserID).Error)

	require.NoError(t, svc.ResetPassword(context.Background(), created.ID, dto.ResetPasswordRequest{NewPassword: "newsecret"}, AuditActor{ID: 9, Role: "admin"}))

	var after models.User
	require.NoError(t, db.First(&after, created.UserID).Error)
	require.NotEqual(t, before.PasswordHash, after.PasswordHash)

	last := audit.entries[len(audit.entries)-1]
	require.Equal(t, "reset_password", last.Action)
}

func TestAdminStudentServiceStatistics(t *testing.T) {
	db, svc, _ := setupAdminStudentService(t)

	created := createTestStudent(t, svc, "stats@example.com")

	competence := models.Competence{Code: "GO101", InstitutionID: 1, Name: "Go Basics", Description: "d", Category: "Programming", Domain: "Backend", Level: "DEBUTANT"}
	require.NoError(t, db.Create(&competence).Error)
	require.NoError(t, db.Create(&models.StudentCompetence{
		StudentID:       created.ID,
		CompetenceID:    competence.ID,
		Status:          models.CompetenceStatusAcquired,
		ConfidenceScore: 80,
		HoursInvested:   12.5,
	}).Error)

	stats, err := svc.Statistics(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, stats.Student.ID)
	require.Equal(t, 1, stats.Competences.Total)
	require.Equal(t, 1, stats.Competences.ByStatus[models.CompetenceStatusAcquired])
	require.Equal(t, 80, stats.Competences.AverageConfidence)
	require.InDelta(t, 12.5, stats.Competences.TotalHoursInvested, 0.001)
	require.Equal(t, 1, stats.Activity.Level)
}

func TestAdminStudentServiceGetNotFound(t *testing.T) {
	_, svc, _ := setupAdminStudentService(t)

	_, err := svc.Get(context.Background(), 999)
	require.ErrorIs(t, err, ErrStudentNotFound)
}
