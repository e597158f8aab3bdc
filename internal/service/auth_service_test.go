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

func setupAuthService(t *testing.T) (*gorm.DB, AuthService) {
	t.Helper()

	dsn := fmt.Sprintf("file:auth_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Track{}, &models.Student{}, &models.ActivityProfile{}, &models.ActivitySession{}))

	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	validate := validator.New(validator.WithRequiredStructEnabled())
	cfg := AuthConfig{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4}

	return db, NewAuthService(users, students, cfg, validate, zerolog.Nop())
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	db, svc := setupAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, dto.RegisterRequest{
		Email:     "Marie.Curie@Example.com",
		Password:  "radium1898",
		FirstName: "Marie",
		LastName:  "Curie",
	})
	require.NoError(t, err)
	require.NotEmpty(t, registered.Token)
	require.Equal(t, "marie.curie@example.com", registered.User.Email)
	require.Equal(t, models.RoleStudent, registered.User.Role)

	var student models.Student
	require.NoError(t, db.Where("user_id = ?", registered.User.ID).First(&student).Error)

	var profile models.ActivityProfile
	require.NoError(t, db.Where("student_id = ?", student.ID).First(&profile).Error)
	require.Equal(t, 1, profile.Level)
	require.Equal(t, 0, profile.ExperiencePoints)

	logged, err := svc.Login(ctx, dto.LoginRequest{Email: "marie.curie@example.com", Password: "radium1898"})
	require.NoError(t, err)
	require.NotEmpty(t, logged.Token)
	require.Equal(t, registered.User.ID, logged.User.ID)

	var user models.User
	require.NoError(t, db.First(&user, registered.User.ID).Error)
	require.NotNil(t, user.LastLogin)
}

func TestAuthServiceRejectsDuplicateEmail(t *testing.T) {
	_, svc := setupAuthService(t)
	ctx := context.Background()

	payload := dto.RegisterRequest{
		Email:     "dup@example.com",
		Password:  "secret1",
		FirstName: "A",
		LastName:  "B",
	}
	_, err := svc.Register(ctx, payload)
	require.NoError(t, err)

	_, err = svc.Register(ctx, payload)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthServiceRejectsBadCredentials(t *testing.T) {
	_, svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterRequest{
		Email:     "login@example.com",
		Password:  "correct-horse",
		FirstName: "A",
		LastName:  "B",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "login@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceRejectsDisabledAccount(t *testing.T) {
	db, svc := setupAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, dto.RegisterRequest{
		Email:     "inactive@example.com",
		Password:  "secret1",
		FirstName: "A",
		LastName:  "B",
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", registered.User.ID).Update("is_active", false).Error)

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "inactive@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrAccountDisabled)
}
