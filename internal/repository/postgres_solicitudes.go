package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/domain"
)

// PostgresSolicitudesRepository implementación PostgreSQL.
type PostgresSolicitudesRepository struct {
	db *sql.DB
}

func NewPostgresSolicitudesRepository(db *sql.DB) *PostgresSolicitudesRepository {
	return &PostgresSolicitudesRepository{db: db}
}

var _ SolicitudesRepository = (*PostgresSolicitudesRepository)(nil)

const solicitudColumns = `
	ref_id,
	fecha_solicitud,
	COALESCE(tipo_solicitud, ''),
	COALESCE(fecha, ''),
	COALESCE(nombre_paciente, ''),
	COALESCE(no_documento, ''),
	COALESCE(tipo_documento, ''),
	COALESCE(entidad_aseguradora, ''),
	COALESCE(fecha_ultima_atencion, ''),
	COALESCE(correo, ''),
	COALESCE(telefonos, ''),
	COALESCE(documentos_solicitados, '[]'::jsonb)::text,
	COALESCE(especifique_partes, ''),
	COALESCE(motivos_solicitud, '[]'::jsonb)::text,
	COALESCE(cual_otro, ''),
	COALESCE(nombre_firma, ''),
	COALESCE(firma_paciente, ''),
	COALESCE(cedula_paciente, ''),
	COALESCE(estado, 'pendiente'),
	COALESCE(nombre_solicitante, ''),
	COALESCE(trae_carta, ''),
	COALESCE(trae_copia_docs, ''),
	COALESCE(nombre_funcionario, ''),
	COALESCE(firma_funcionario, ''),
	COALESCE(nombre_paciente_tercero, ''),
	COALESCE(fecha_entrega, ''),
	COALESCE(cedula_tercero, '')`

func scanSolicitud(row interface{ Scan(dest ...any) error }) (*domain.Solicitud, error) {
	var s domain.Solicitud
	var documentosRaw, motivosRaw string
	err := row.Scan(
		&s.ID,
		&s.FechaSolicitud,
		&s.TipoSolicitud,
		&s.Fecha,
		&s.NombrePaciente,
		&s.NoDocumento,
		&s.TipoDocumento,
		&s.EntidadAseguradora,
		&s.FechaUltimaAtencion,
		&s.Correo,
		&s.Telefonos,
		&documentosRaw,
		&s.EspecifiquePartes,
		&motivosRaw,
		&s.CualOtro,
		&s.NombreFirma,
		&s.FirmaPaciente,
		&s.CedulaPaciente,
		&s.Estado,
		&s.NombreSolicitante,
		&s.TraeCarta,
		&s.TraeCopiaDocs,
		&s.NombreFuncionario,
		&s.FirmaFuncionario,
		&s.NombrePacienteTercero,
		&s.FechaEntrega,
		&s.CedulaTercero,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(documentosRaw), &s.DocumentosSolicitados); err != nil {
		return nil, fmt.Errorf("failed to decode documentos_solicitados: %w", err)
	}
	if err := json.Unmarshal([]byte(motivosRaw), &s.MotivosSolicitud); err != nil {
		return nil, fmt.Errorf("failed to decode motivos_solicitud: %w", err)
	}
	return &s, nil
}

// Create inserta una nueva solicitud.
func (r *PostgresSolicitudesRepository) Create(ctx context.Context, s *domain.Solicitud) error {
	if s.ID == "" {
		return fmt.Errorf("ref_id is required")
	}
	documentos, err := json.Marshal(orEmptySlice(s.DocumentosSolicitados))
	if err != nil {
		return fmt.Errorf("failed to encode documentos_solicitados: %w", err)
	}
	motivos, err := json.Marshal(orEmptySlice(s.MotivosSolicitud))
	if err != nil {
		return fmt.Errorf("failed to encode motivos_solicitud: %w", err)
	}

	query := `
		INSERT INTO solicitudes (
			ref_id, fecha_solicitud, tipo_solicitud, fecha, nombre_paciente, no_documento,
			tipo_documento, entidad_aseguradora, fecha_ultima_atencion, correo, telefonos,
			documentos_solicitados, especifique_partes, motivos_solicitud, cual_otro,
			nombre_firma, firma_paciente, cedula_paciente, estado,
			nombre_solicitante, trae_carta, trae_copia_docs, nombre_funcionario, firma_funcionario,
			nombre_paciente_tercero, fecha_entrega, cedula_tercero
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`

	_, err = r.db.ExecContext(ctx, query,
		s.ID,
		s.FechaSolicitud,
		s.TipoSolicitud,
		nullable(s.Fecha),
		nullable(s.NombrePaciente),
		nullable(s.NoDocumento),
		nullable(s.TipoDocumento),
		nullable(s.EntidadAseguradora),
		nullable(s.FechaUltimaAtencion),
		nullable(s.Correo),
		nullable(s.Telefonos),
		string(documentos),
		nullable(s.EspecifiquePartes),
		string(motivos),
		nullable(s.CualOtro),
		nullable(s.NombreFirma),
		nullable(s.FirmaPaciente),
		nullable(s.CedulaPaciente),
		string(s.Estado),
		nullable(s.NombreSolicitante),
		nullable(s.TraeCarta),
		nullable(s.TraeCopiaDocs),
		nullable(s.NombreFuncionario),
		nullable(s.FirmaFuncionario),
		nullable(s.NombrePacienteTercero),
		nullable(s.FechaEntrega),
		nullable(s.CedulaTercero),
	)
	if err != nil {
		return fmt.Errorf("failed to insert solicitud: %w", err)
	}
	return nil
}

// Get obtiene una solicitud por ref_id.
func (r *PostgresSolicitudesRepository) Get(ctx context.Context, refID string) (*domain.Solicitud, error) {
	query := `SELECT ` + solicitudColumns + ` FROM solicitudes WHERE ref_id = $1`
	s, err := scanSolicitud(r.db.QueryRowContext(ctx, query, refID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get solicitud: %w", err)
	}
	return s, nil
}

// List lista solicitudes en orden descendente de fecha_solicitud.
func (r *PostgresSolicitudesRepository) List(ctx context.Context, filters SolicitudFilters) ([]*domain.Solicitud, error) {
	query := `SELECT ` + solicitudColumns + ` FROM solicitudes`
	var conditions []string
	var args []any

	if filters.Estado != "" {
		args = append(args, filters.Estado)
		conditions = append(conditions, fmt.Sprintf("estado = $%d", len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(nombre_paciente ILIKE $%d OR no_documento ILIKE $%d OR ref_id ILIKE $%d OR correo ILIKE $%d)",
			n, n, n, n))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY fecha_solicitud DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list solicitudes: %w", err)
	}
	defer rows.Close()

	solicitudes := []*domain.Solicitud{}
	for rows.Next() {
		s, err := scanSolicitud(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan solicitud: %w", err)
		}
		solicitudes = append(solicitudes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate solicitudes: %w", err)
	}
	return solicitudes, nil
}

// Update actualiza solo los campos presentes (partial update) y devuelve
// la solicitud actualizada.
func (r *PostgresSolicitudesRepository) Update(ctx context.Context, refID string, upd domain.SolicitudUpdate) (*domain.Solicitud, error) {
	var updates []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		updates = append(updates, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Estado != nil {
		add("estado", string(*upd.Estado))
	}
	if upd.TraeCarta != nil {
		add("trae_carta", *upd.TraeCarta)
	}
	if upd.TraeCopiaDocs != nil {
		add("trae_copia_docs", *upd.TraeCopiaDocs)
	}
	if upd.NombreFuncionario != nil {
		add("nombre_funcionario", *upd.NombreFuncionario)
	}
	if upd.FechaEntrega != nil {
		add("fecha_entrega", nullable(*upd.FechaEntrega))
	}
	if upd.FirmaFuncionario != nil {
		add("firma_funcionario", *upd.FirmaFuncionario)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	args = append(args, refID)
	query := fmt.Sprintf(
		`UPDATE solicitudes SET %s WHERE ref_id = $%d RETURNING %s`,
		strings.Join(updates, ", "), len(args), solicitudColumns,
	)

	s, err := scanSolicitud(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update solicitud: %w", err)
	}
	return s, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orEmptySlice(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
