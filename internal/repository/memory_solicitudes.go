package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/domain"
)

// MemorySolicitudesRepository supports running the intake service when the
// DB is disabled (local dev and tests).
type MemorySolicitudesRepository struct {
	mu          sync.RWMutex
	solicitudes map[string]domain.Solicitud // ref_id -> Solicitud
}

func NewMemorySolicitudesRepository() *MemorySolicitudesRepository {
	return &MemorySolicitudesRepository{
		solicitudes: map[string]domain.Solicitud{},
	}
}

var _ SolicitudesRepository = (*MemorySolicitudesRepository)(nil)

func (r *MemorySolicitudesRepository) Create(_ context.Context, s *domain.Solicitud) error {
	if s.ID == "" {
		return fmt.Errorf("ref_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.solicitudes[s.ID]; exists {
		return fmt.Errorf("duplicate ref_id %q", s.ID)
	}
	r.solicitudes[s.ID] = *s
	return nil
}

func (r *MemorySolicitudesRepository) Get(_ context.Context, refID string) (*domain.Solicitud, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.solicitudes[refID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemorySolicitudesRepository) List(_ context.Context, filters SolicitudFilters) ([]*domain.Solicitud, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := []*domain.Solicitud{}
	for _, s := range r.solicitudes {
		if filters.Estado != "" && string(s.Estado) != filters.Estado {
			continue
		}
		if filters.Search != "" && !matchesSearch(&s, filters.Search) {
			continue
		}
		s := s
		all = append(all, &s)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].FechaSolicitud.After(all[j].FechaSolicitud)
	})
	return all, nil
}

func (r *MemorySolicitudesRepository) Update(_ context.Context, refID string, upd domain.SolicitudUpdate) (*domain.Solicitud, error) {
	if upd.IsEmpty() {
		return nil, fmt.Errorf("no fields to update")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.solicitudes[refID]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Estado != nil {
		s.Estado = *upd.Estado
	}
	if upd.TraeCarta != nil {
		s.TraeCarta = *upd.TraeCarta
	}
	if upd.TraeCopiaDocs != nil {
		s.TraeCopiaDocs = *upd.TraeCopiaDocs
	}
	if upd.NombreFuncionario != nil {
		s.NombreFuncionario = *upd.NombreFuncionario
	}
	if upd.FechaEntrega != nil {
		s.FechaEntrega = *upd.FechaEntrega
	}
	if upd.FirmaFuncionario != nil {
		s.FirmaFuncionario = *upd.FirmaFuncionario
	}
	r.solicitudes[refID] = s
	return &s, nil
}

func matchesSearch(s *domain.Solicitud, search string) bool {
	needle := strings.ToLower(search)
	haystack := strings.ToLower(strings.Join([]string{
		s.NombrePaciente, s.NoDocumento, s.ID, s.Correo,
	}, " "))
	return strings.Contains(haystack, needle)
}
