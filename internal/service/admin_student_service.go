package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/meryam27/skilltrack-api/internal/dto"
	"github.com/meryam27/skilltrack-api/internal/models"
	"github.com/meryam27/skilltrack-api/internal/repository"
)

// Admin student failure modes.
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrTrackNotFound   = errors.New("track not found")
)

// AdminStudentService orchestrates admin student management use cases.
type AdminStudentService interface {
	List(ctx context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error)
	Get(ctx context.Context, id uint) (dto.AdminStudentResponse, error)
	Create(ctx context.Context, payload dto.AdminStudentCreateRequest, actor AuditActor) (dto.AdminStudentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AdminStudentUpdateRequest, actor AuditActor) (dto.AdminStudentResponse, error)
	Delete(ctx context.Context, id uint, permanent bool, actor AuditActor) error
	SetActive(ctx context.Context, id uint, active bool, actor AuditActor) (dto.AdminStudentResponse, error)
	ResetPassword(ctx context.Context, id uint, payload dto.ResetPasswordRequest, actor AuditActor) error
	Statistics(ctx context.Context, id uint) (dto.StudentStatisticsResponse, error)
}

type adminStudentService struct {
	students    repository.StudentRepository
	users       repository.UserRepository
	tracks      repository.TrackRepository
	profiles    repository.ActivityProfileRepository
	competences repository.StudentCompetenceRepository
	audit       AuditRecorder
	validator   *validator.Validate
	bcryptCost  int
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAdminStudentService constructs the admin student service.
func NewAdminStudentService(
	students repository.StudentRepository,
	users repository.UserRepository,
	tracks repository.TrackRepository,
	profiles repository.ActivityProfileRepository,
	competences repository.StudentCompetenceRepository,
	audit AuditRecorder,
	validate *validator.Validate,
	bcryptCost int,
	logger zerolog.Logger,
) AdminStudentService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	return &adminStudentService{
		students:    students,
		users:       users,
		tracks:      tracks,
		profiles:    profiles,
		competences: competences,
		audit:       audit,
		validator:   validate,
		bcryptCost:  bcryptCost,
		logger:      logger.With().Str("component", "admin_student_service").Logger(),
		now:         time.Now,
	}
}

func (s *adminStudentService) List(ctx context.Context, req dto.AdminStudentListRequest) (dto.AdminStudentListResponse, error) {
	filter := repository.StudentFilter{
		Search:    strings.TrimSpace(req.Search),
		Niveau:    strings.TrimSpace(req.Niveau),
		TrackID:   req.TrackID,
		Promotion: req.Promotion,
		IsActive:  req.IsActive,
		Page:      maxInt(req.Page, 1),
		PageSize:  clampPageSize(req.PageSize),
	}

	students, total, err := s.students.List(ctx, filter)
	if err != nil {
		return dto.AdminStudentListResponse{}, err
	}

	items := make([]dto.AdminStudentResponse, 0, len(students))
	for _, student := range students {
		items = append(items, dto.NewAdminStudentResponse(student))
	}

	return dto.AdminStudentListResponse{
		Items:      items,
		Pagination: paginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *adminStudentService) Get(ctx context.Context, id uint) (dto.AdminStudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminStudentResponse{}, ErrStudentNotFound
		}
		return dto.AdminStudentResponse{}, err
	}

	response := dto.NewAdminStudentResponse(student)
	response.Statistics = s.briefStatistics(ctx, student.ID)

	return response, nil
}

func (s *adminStudentService) briefStatistics(ctx context.Context, studentID uint) *dto.StudentStatisticsBrief {
	profile, err := s.profiles.GetByStudentID(ctx, studentID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to load activity profile")
		}
		return nil
	}

	total, err := s.competences.CountByStudent(ctx, studentID)
	if err != nil {
		return nil
	}
	validated, err := s.competences.CountByStudent(ctx, studentID, models.CompetenceStatusValidated)
	if err != nil {
		return nil
	}

	return &dto.StudentStatisticsBrief{
		TotalHours:           profile.TotalHours,
		Level:                profile.Level,
		ExperiencePoints:     profile.ExperiencePoints,
		CompetencesCount:     total,
		CompetencesValidated: validated,
		CurrentStreak:        profile.CurrentStreakDays,
	}
}

func (s *adminStudentService) Create(ctx context.Context, payload dto.AdminStudentCreateRequest, actor AuditActor) (dto.AdminStudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AdminStudentResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	taken, err := s.users.EmailTaken(ctx, email, 0)
	if err != nil {
		return dto.AdminStudentResponse{}, err
	}
	if taken {
		return dto.AdminStudentResponse{}, ErrEmailTaken
	}

	if _, err := s.tracks.GetByID(ctx, payload.TrackID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminStudentResponse{}, ErrTrackNotFound
		}
		return dto.AdminStudentResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.bcryptCost)
	if err != nil {
		return dto.AdminStudentResponse{}, err
	}

	now := s.now()
	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(payload.FirstName),
		LastName:     strings.TrimSpace(payload.LastName),
		PhoneNumber:  strings.TrimSpace(payload.PhoneNumber),
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	trackID := payload.TrackID
	student := models.Student{
		TrackID:            &trackID,
		Niveau:             payload.Niveau,
		Promotion:          payload.Promotion,
		AcademicEmail:      strings.ToLower(strings.TrimSpace(payload.AcademicEmail)),
		InscriptionDate:    now,
		ExpectedGraduation: payload.ExpectedGraduation,
	}
	profile := models.NewActivityProfile(0, now)

	if err := s.students.Create(ctx, &user, &student, &profile); err != nil {
		return dto.AdminStudentResponse{}, err
	}

	s.recordAudit(ctx, actor, "create", student.ID, map[string]interface{}{
		"email":  email,
		"niveau": payload.Niveau,
	})

	return s.Get(ctx, student.ID)
}

func (s *adminStudentService) Update(ctx context.Context, id uint, payload dto.AdminStudentUpdateRequest, actor AuditActor) (dto.AdminStudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AdminStudentResponse{}, err
	}

	current, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminStudentResponse{}, ErrStudentNotFound
		}
		return dto.AdminStudentResponse{}, err
	}

	userUpdates := make(map[string]interface{})
	studentUpdates := make(map[string]interface{})
	changedFields := make([]string, 0)

	if payload.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*payload.Email))
		taken, err := s.users.EmailTaken(ctx, email, current.UserID)
		if err != nil {
			return dto.AdminStudentResponse{}, err
		}
		if taken {
			return dto.AdminStudentResponse{}, ErrEmailTaken
		}
		userUpdates["email"] = email
		changedFields = append(changedFields, "email")
	}
	if payload.FirstName != nil {
		userUpdates["first_name"] = strings.TrimSpace(*payload.FirstName)
		changedFields = append(changedFields, "first_name")
	}
	if payload.LastName != nil {
		userUpdates["last_name"] = strings.TrimSpace(*payload.LastName)
		changedFields = append(changedFields, "last_name")
	}
	if payload.PhoneNumber != nil {
		userUpdates["phone_number"] = strings.TrimSpace(*payload.PhoneNumber)
		changedFields = append(changedFields, "phone_number")
	}
	if payload.Bio != nil {
		userUpdates["bio"] = strings.TrimSpace(*payload.Bio)
		changedFields = append(changedFields, "bio")
	}
	if payload.TrackID != nil {
		if _, err := s.tracks.GetByID(ctx, *payload.TrackID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.AdminStudentResponse{}, ErrTrackNotFound
			}
			return dto.AdminStudentResponse{}, err
		}
		studentUpdates["track_id"] = *payload.TrackID
		changedFields = append(changedFields, "track_id")
	}
	if payload.Niveau != nil {
		studentUpdates["niveau"] = *payload.Niveau
		changedFields = append(changedFields, "niveau")
	}
	if payload.Promotion != nil {
		studentUpdates["promotion"] = *payload.Promotion
		changedFields = append(changedFields, "promotion")
	}
	if payload.AcademicEmail != nil {
		studentUpdates["academic_email"] = strings.ToLower(strings.TrimSpace(*payload.AcademicEmail))
		changedFields = append(changedFields, "academic_email")
	}
	if payload.ExpectedGraduation != nil {
		studentUpdates["expected_graduation"] = *payload.ExpectedGraduation
		changedFields = append(changedFields, "expected_graduation")
	}

	if len(userUpdates) == 0 && len(studentUpdates) == 0 {
		return dto.NewAdminStudentResponse(current), nil
	}

	student, err := s.students.Update(ctx, id, userUpdates, studentUpdates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminStudentResponse{}, ErrStudentNotFound
		}
		return dto.AdminStudentResponse{}, err
	}

	s.recordAudit(ctx, actor, "update", id, map[string]interface{}{
		"changed_fields": changedFields,
	})

	return dto.NewAdminStudentResponse(student), nil
}

// Delete deactivates by default. Permanent deletion removes the student and
// every dependent record.
func (s *adminStudentService) Delete(ctx context.Context, id uint, permanent bool, actor AuditActor) error {
	if !permanent {
		if _, err := s.students.Deactivate(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStudentNotFound
			}
			return err
		}

		s.recordAudit(ctx, actor, "deactivate", id, nil)
		return nil
	}

	if err := s.students.DeletePermanently(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	s.recordAudit(ctx, actor, "delete", id, map[string]interface{}{"permanent": true})
	return nil
}

func (s *adminStudentService) SetActive(ctx context.Context, id uint, active bool, actor AuditActor) (dto.AdminStudentResponse, error) {
	student, err := s.students.SetActive(ctx, id, active)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminStudentResponse{}, ErrStudentNotFound
		}
		return dto.AdminStudentResponse{}, err
	}

	action := "deactivate"
	if active {
		action = "activate"
	}
	s.recordAudit(ctx, actor, action, id, nil)

	return dto.NewAdminStudentResponse(student), nil
}

func (s *adminStudentService) ResetPassword(ctx context.Context, id uint, payload dto.ResetPasswordRequest, actor AuditActor) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), s.bcryptCost)
	if err != nil {
		return err
	}

	if err := s.users.Update(ctx, student.UserID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return err
	}

	s.recordAudit(ctx, actor, "reset_password", id, nil)
	return nil
}

func (s *adminStudentService) Statistics(ctx context.Context, id uint) (dto.StudentStatisticsResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentStatisticsResponse{}, ErrStudentNotFound
		}
		return dto.StudentStatisticsResponse{}, err
	}

	response := dto.StudentStatisticsResponse{
		Student: dto.StudentStatisticsIdentity{
			ID:        student.ID,
			Name:      student.User.FullName(),
			Niveau:    student.Niveau,
			Promotion: student.Promotion,
		},
		Competences: dto.StudentCompetenceStats{ByStatus: map[string]int{}},
	}

	profile, err := s.profiles.GetByStudentID(ctx, id)
	if err == nil {
		response.Activity = dto.StudentActivityStats{
			TotalHours:       profile.TotalHours,
			WeeklyHours:      profile.WeeklyTotalHours,
			CurrentStreak:    profile.CurrentStreakDays,
			LongestStreak:    profile.LongestStreakDays,
			Level:            profile.Level,
			ExperiencePoints: profile.ExperiencePoints,
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StudentStatisticsResponse{}, err
	}

	competences, err := s.competences.ListByStudent(ctx, id)
	if err != nil {
		return dto.StudentStatisticsResponse{}, err
	}

	var confidenceSum float64
	for _, sc := range competences {
		response.Competences.Total++
		response.Competences.ByStatus[sc.Status]++
		response.Competences.TotalHoursInvested += sc.HoursInvested
		response.Competences.TotalProjectsCompleted += sc.ProjectsCompleted
		confidenceSum += sc.ConfidenceScore
	}
	if len(competences) > 0 {
		response.Competences.AverageConfidence = int(confidenceSum / float64(len(competences)))
	}

	return response, nil
}

func (s *adminStudentService) recordAudit(ctx context.Context, actor AuditActor, action string, studentID uint, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}

	entityID := studentID
	entry := AuditEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "student",
		EntityID:   &entityID,
		Metadata:   metadata,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}
