package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

type SpecialtyService struct {
	repo ports.SpecialtyRepository
	log  zerolog.Logger
}

func NewSpecialtyService(repo ports.SpecialtyRepository, log zerolog.Logger) *SpecialtyService {
	return &SpecialtyService{repo: repo, log: log}
}

func (s *SpecialtyService) List(ctx context.Context) ([]domain.Specialty, error) {
	return s.repo.List(ctx)
}

func (s *SpecialtyService) Create(ctx context.Context, name string) (*domain.Specialty, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.MissingFieldError{Field: "name"}
	}
	sp, err := s.repo.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("specialty_id", sp.ID).Str("name", sp.Name).Msg("specialty created")
	return sp, nil
}
