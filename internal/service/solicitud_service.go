package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/domain"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/repository"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/signature"
)

// ErrNoFields indica un PATCH sin campos reconocidos.
var ErrNoFields = errors.New("no hay campos para actualizar")

// ErrEstadoInvalido indica un estado fuera del conjunto permitido.
var ErrEstadoInvalido = errors.New("estado inválido")

// SolicitudService aplica las reglas de ciclo de vida sobre el repositorio.
type SolicitudService struct {
	repo   repository.SolicitudesRepository
	logger *zap.Logger
}

func NewSolicitudService(repo repository.SolicitudesRepository, logger *zap.Logger) *SolicitudService {
	return &SolicitudService{repo: repo, logger: logger}
}

// Create registra una solicitud nueva. Defaults: estado pendiente y
// fecha_solicitud ahora.
func (s *SolicitudService) Create(ctx context.Context, sol *domain.Solicitud) error {
	if sol.ID == "" {
		return fmt.Errorf("id is required")
	}
	if sol.Estado == "" {
		sol.Estado = domain.EstadoPendiente
	}
	if !sol.Estado.IsValid() {
		return fmt.Errorf("%w: %q", ErrEstadoInvalido, sol.Estado)
	}
	if sol.FechaSolicitud.IsZero() {
		sol.FechaSolicitud = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, sol); err != nil {
		return err
	}
	s.logger.Info("Solicitud created",
		zap.String("ref_id", sol.ID),
		zap.String("tipo", sol.TipoSolicitud),
	)
	return nil
}

// List devuelve las solicitudes filtradas, más recientes primero.
func (s *SolicitudService) List(ctx context.Context, filters repository.SolicitudFilters) ([]*domain.Solicitud, error) {
	return s.repo.List(ctx, filters)
}

// Get devuelve una solicitud por su identificador público.
func (s *SolicitudService) Get(ctx context.Context, refID string) (*domain.Solicitud, error) {
	return s.repo.Get(ctx, refID)
}

// Update aplica una actualización parcial. Any estado is reachable from
// any estado by direct administrator selection. A blank staff signature
// never overwrites a previously stored one: the field is dropped from the
// update instead.
func (s *SolicitudService) Update(ctx context.Context, refID string, upd domain.SolicitudUpdate) (*domain.Solicitud, error) {
	if upd.Estado != nil && !upd.Estado.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrEstadoInvalido, *upd.Estado)
	}

	if upd.FirmaFuncionario != nil {
		blank, err := signature.IsBlankImage(*upd.FirmaFuncionario)
		if err != nil {
			return nil, fmt.Errorf("firma de funcionario inválida: %w", err)
		}
		if blank {
			upd.FirmaFuncionario = nil
		}
	}

	if upd.IsEmpty() {
		return nil, ErrNoFields
	}

	updated, err := s.repo.Update(ctx, refID, upd)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Solicitud updated", zap.String("ref_id", refID))
	return updated, nil
}
