package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-sync/internal/models"
	"github.com/noah-isme/sma-timetable-sync/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-sync/pkg/errors"
)

type personnelRepository interface {
	FindByID(ctx context.Context, id string) (*models.PersonnelIdentity, error)
	FindByCode(ctx context.Context, code string) (*models.PersonnelIdentity, error)
	List(ctx context.Context) ([]models.PersonnelIdentity, error)
	Save(ctx context.Context, identity *models.PersonnelIdentity) error
}

// RegisterPersonnelRequest is the payload for adding or updating a directory entry.
type RegisterPersonnelRequest struct {
	ID               string `json:"id"`
	PersonnelCode    string `json:"personnelCode" validate:"required,personnelcode"`
	FullName         string `json:"fullName" validate:"required,max=200"`
	MainPosition     string `json:"mainPosition" validate:"max=100"`
	EmploymentStatus string `json:"employmentStatus" validate:"max=50"`
}

// PersonnelService is the personnel directory: lookup and registration by code.
type PersonnelService struct {
	repo      personnelRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPersonnelService instantiates PersonnelService.
func NewPersonnelService(repo personnelRepository, validate *validator.Validate, logger *zap.Logger) *PersonnelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersonnelService{repo: repo, validator: registerValidations(validate), logger: logger}
}

// FindByCode returns the identity owning code, or nil when the code is unknown.
func (s *PersonnelService) FindByCode(ctx context.Context, code string) (*models.PersonnelIdentity, error) {
	code = strings.TrimSpace(code)
	if !models.ValidPersonnelCode(code) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "personnel code must be exactly 8 digits")
	}
	identity, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, appErrors.WrapAs(appErrors.ErrStorageUnavailable, err, "failed to load personnel")
	}
	return identity, nil
}

// Prepare validates a registration and returns the record to store together
// with the record currently stored under the same id, if any. A missing id is
// left empty for the writer to assign; registering a known code without an id
// targets the existing record. Nothing is written here: SyncService.RegisterPersonnel
// commits the record so that schedule copies follow code and name changes.
func (s *PersonnelService) Prepare(ctx context.Context, req RegisterPersonnelRequest) (next, previous *models.PersonnelIdentity, err error) {
	req.PersonnelCode = strings.TrimSpace(req.PersonnelCode)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid personnel payload")
	}

	identity := models.PersonnelIdentity{
		ID:               strings.TrimSpace(req.ID),
		PersonnelCode:    req.PersonnelCode,
		FullName:         req.FullName,
		MainPosition:     strings.TrimSpace(req.MainPosition),
		EmploymentStatus: strings.TrimSpace(req.EmploymentStatus),
	}

	owner, err := s.FindByCode(ctx, identity.PersonnelCode)
	if err != nil {
		return nil, nil, err
	}
	if owner != nil {
		if identity.ID != "" && identity.ID != owner.ID {
			return nil, nil, appErrors.Clone(appErrors.ErrConflict, "personnel code already registered")
		}
		identity.ID = owner.ID
		previous = owner
	} else if identity.ID != "" {
		existing, err := s.repo.FindByID(ctx, identity.ID)
		switch {
		case err == nil:
			previous = existing
		case !errors.Is(err, repository.ErrNotFound):
			return nil, nil, appErrors.WrapAs(appErrors.ErrStorageUnavailable, err, "failed to load personnel")
		}
	}
	if previous != nil {
		identity.CreatedAt = previous.CreatedAt
	}
	return &identity, previous, nil
}

// Resolve returns the identity for code, registering a bare one when the code is new.
func (s *PersonnelService) Resolve(ctx context.Context, code string) (*models.PersonnelIdentity, error) {
	identity, err := s.FindByCode(ctx, code)
	if err != nil || identity != nil {
		return identity, err
	}
	identity = &models.PersonnelIdentity{PersonnelCode: strings.TrimSpace(code)}
	if err := s.repo.Save(ctx, identity); err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrStorageWrite, err, "failed to register personnel")
	}
	s.logger.Info("personnel registered from schedule entry", zap.String("personnel_code", identity.PersonnelCode), zap.String("personnel_id", identity.ID))
	return identity, nil
}

// SearchByNameOrCode matches query case-insensitively against names and codes.
// An empty query returns the whole directory.
func (s *PersonnelService) SearchByNameOrCode(ctx context.Context, query string) ([]models.PersonnelIdentity, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrStorageUnavailable, err, "failed to list personnel")
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return all, nil
	}
	matches := make([]models.PersonnelIdentity, 0)
	for _, identity := range all {
		if strings.Contains(strings.ToLower(identity.FullName), needle) || strings.Contains(identity.PersonnelCode, needle) {
			matches = append(matches, identity)
		}
	}
	return matches, nil
}
