package repository

import (
	"context"
	"errors"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/domain"
)

// ErrNotFound indica que la solicitud no existe.
var ErrNotFound = errors.New("solicitud not found")

// SolicitudFilters filtros de listado del panel de administración.
type SolicitudFilters struct {
	Estado string // exact estado match
	Search string // matches nombre_paciente, no_documento, ref_id, correo
}

// SolicitudesRepository acceso a la tabla solicitudes.
// Repository层只负责数据访问; lifecycle rules live in the service layer.
type SolicitudesRepository interface {
	Create(ctx context.Context, s *domain.Solicitud) error
	Get(ctx context.Context, refID string) (*domain.Solicitud, error)
	// List returns every stored record matching the filters in descending
	// creation-time order.
	List(ctx context.Context, filters SolicitudFilters) ([]*domain.Solicitud, error)
	// Update applies a partial field set as a single atomic row update
	// keyed by ref_id and returns the updated record. Fields omitted from
	// the update are left untouched.
	Update(ctx context.Context, refID string, upd domain.SolicitudUpdate) (*domain.Solicitud, error)
}
