package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/domain"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/export"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/repository"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/service"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/upload"
)

const uploadsPublicPrefix = "/uploads/cedulas/"

// SolicitudesHandler CRUD de solicitudes de copia de historia clínica.
type SolicitudesHandler struct {
	svc     *service.SolicitudService
	auth    *service.AuthService
	uploads *upload.DiskStore
	logger  *zap.Logger
}

func NewSolicitudesHandler(svc *service.SolicitudService, auth *service.AuthService, uploads *upload.DiskStore, logger *zap.Logger) *SolicitudesHandler {
	return &SolicitudesHandler{svc: svc, auth: auth, uploads: uploads, logger: logger}
}

// requireSession gates the admin operations. A failed check yields 401 so
// admin views redirect to login instead of showing an inline error.
func (h *SolicitudesHandler) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.auth.Check(r.Context(), sessionToken(r)) {
			writeJSON(w, http.StatusUnauthorized, fail("Debes iniciar sesión"))
			return
		}
		next(w, r)
	}
}

// Create recibe la solicitud como multipart: parte "data" (JSON) más los
// PDF opcionales cedulaPaciente y cedulaTercero.
func (h *SolicitudesHandler) Create(w http.ResponseWriter, r *http.Request) {
	// Cap the body before parsing so an oversized upload is cut off
	// mid-stream instead of being spooled to disk first.
	maxBody := int64(2*upload.MaxFileSize + (1 << 20))
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(maxBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusBadRequest, fail("El archivo supera el tamaño máximo de 5MB"))
			return
		}
		writeJSON(w, http.StatusBadRequest, fail("Error al subir archivo"))
		return
	}

	var s domain.Solicitud
	if err := json.Unmarshal([]byte(r.FormValue("data")), &s); err != nil {
		writeJSON(w, http.StatusBadRequest, fail("Datos de solicitud inválidos"))
		return
	}
	if s.ID == "" {
		// The form normally supplies a collision-resistant id; cover
		// direct API clients too.
		s.ID = "sol_" + uuid.NewString()
	}

	cedulaPaciente, err := h.storeAttachment(r, "cedulaPaciente")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, fail(err.Error()))
		return
	}
	if cedulaPaciente != "" {
		s.CedulaPaciente = cedulaPaciente
	}

	cedulaTercero, err := h.storeAttachment(r, "cedulaTercero")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, fail(err.Error()))
		return
	}
	if cedulaTercero != "" {
		s.CedulaTercero = cedulaTercero
	}

	if err := h.svc.Create(r.Context(), &s); err != nil {
		h.logger.Error("Error guardando solicitud", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("Error al guardar la solicitud"))
		return
	}
	writeJSON(w, http.StatusCreated, CreateResult{OK: true, ID: s.ID})
}

// storeAttachment validates and persists one uploaded PDF, returning its
// public /uploads/... path ("" when the field is absent).
func (h *SolicitudesHandler) storeAttachment(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("Error al subir archivo")
	}
	defer file.Close()

	if !upload.IsPDF(contentType(header), header.Filename) {
		return "", fmt.Errorf("Solo se permiten archivos PDF")
	}
	if header.Size > upload.MaxFileSize {
		return "", fmt.Errorf("El archivo supera el tamaño máximo de 5MB")
	}

	data, err := io.ReadAll(io.LimitReader(file, upload.MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("Error al subir archivo")
	}
	if len(data) > upload.MaxFileSize {
		return "", fmt.Errorf("El archivo supera el tamaño máximo de 5MB")
	}

	name, err := h.uploads.Save(header.Filename, data)
	if err != nil {
		h.logger.Error("Error almacenando adjunto", zap.String("field", field), zap.Error(err))
		return "", fmt.Errorf("Error al subir archivo")
	}
	return uploadsPublicPrefix + name, nil
}

func contentType(header *multipart.FileHeader) string {
	ct := header.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

// List devuelve todas las solicitudes, más recientes primero. Admite los
// filtros estado y q del panel.
func (h *SolicitudesHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := repository.SolicitudFilters{
		Estado: r.URL.Query().Get("estado"),
		Search: r.URL.Query().Get("q"),
	}
	solicitudes, err := h.svc.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("Error listando solicitudes", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("Error al listar solicitudes"))
		return
	}
	writeJSON(w, http.StatusOK, solicitudes)
}

// Export descarga el listado filtrado como archivo XLSX.
func (h *SolicitudesHandler) Export(w http.ResponseWriter, r *http.Request) {
	filters := repository.SolicitudFilters{
		Estado: r.URL.Query().Get("estado"),
		Search: r.URL.Query().Get("q"),
	}
	solicitudes, err := h.svc.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("Error listando solicitudes para exportar", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("Error al exportar solicitudes"))
		return
	}

	data, err := export.GenerateSolicitudesExport(solicitudes)
	if err != nil {
		h.logger.Error("Error generando export", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, fail("Error al exportar solicitudes"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="solicitudes.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Update aplica una actualización parcial de estado y datos de clínica.
func (h *SolicitudesHandler) Update(w http.ResponseWriter, r *http.Request) {
	refID := strings.TrimPrefix(r.URL.Path, "/api/solicitudes/")
	if refID == "" || strings.Contains(refID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var upd domain.SolicitudUpdate
	if err := readBodyJSON(r, 10<<20, &upd); err != nil {
		writeJSON(w, http.StatusBadRequest, fail("Cuerpo de petición inválido"))
		return
	}

	updated, err := h.svc.Update(r.Context(), refID, upd)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoFields):
			writeJSON(w, http.StatusBadRequest, fail("No hay campos para actualizar"))
		case errors.Is(err, service.ErrEstadoInvalido):
			writeJSON(w, http.StatusBadRequest, fail("Estado inválido"))
		case errors.Is(err, repository.ErrNotFound):
			writeJSON(w, http.StatusNotFound, fail("Solicitud no encontrada"))
		default:
			h.logger.Error("Error actualizando solicitud", zap.String("ref_id", refID), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, fail("Error al actualizar"))
		}
		return
	}
	writeJSON(w, http.StatusOK, UpdateResult{OK: true, Solicitud: updated})
}
