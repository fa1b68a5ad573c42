package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/unexca/student-docs-api/internal/models"
	appErrors "github.com/unexca/student-docs-api/pkg/errors"
)

type studentRepository interface {
	FindByCedula(ctx context.Context, cedula string) (*models.Student, error)
}

type roleRepository interface {
	FindRole(ctx context.Context, cedula string) (string, error)
}

// StudentService resolves student records and roles.
type StudentService struct {
	students studentRepository
	roles    roleRepository
	defaults DefaultProvider
	cache    *CacheService
	logger   *zap.Logger
}

// NewStudentService constructs the student service. cache may be nil.
func NewStudentService(students studentRepository, roles roleRepository, defaults DefaultProvider, cache *CacheService, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, roles: roles, defaults: defaults, cache: cache, logger: logger}
}

// Find returns the student record or a not found error. It always hits storage.
func (s *StudentService) Find(ctx context.Context, cedula string) (*models.Student, error) {
	student, err := s.students.FindByCedula(ctx, cedula)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Role returns the stored role, or the default role when none is recorded.
// A lookup miss never fails.
func (s *StudentService) Role(ctx context.Context, cedula string) string {
	role, err := s.roles.FindRole(ctx, cedula)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("role lookup failed, using default", zap.String("cedula", cedula), zap.Error(err))
		}
		return s.defaults.Role()
	}
	if role = strings.TrimSpace(role); role == "" {
		return s.defaults.Role()
	}
	return role
}

// Profile returns the student with its role, served from cache when enabled.
func (s *StudentService) Profile(ctx context.Context, cedula string) (*models.StudentProfile, error) {
	key := profileCacheKey(cedula)
	var cached models.StudentProfile
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	student, err := s.Find(ctx, cedula)
	if err != nil {
		return nil, err
	}
	profile := &models.StudentProfile{Student: *student, Rol: s.Role(ctx, cedula)}
	s.cache.Set(ctx, key, profile, 0)
	return profile, nil
}

func profileCacheKey(cedula string) string {
	return "profile:" + cedula
}
