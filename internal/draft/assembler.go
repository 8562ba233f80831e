package draft

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/domain"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/signature"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/upload"
)

// ErrSubmissionInFlight means a submission is already outstanding for this
// form instance. The submit control stays disabled until it settles.
var ErrSubmissionInFlight = errors.New("draft: submission already in flight")

// ValidationError is a required-field or attachment-type violation. It is
// reported immediately and locally; no transmission is attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Attachment is a candidate PDF upload with its raw byte stream.
type Attachment struct {
	Filename  string
	MediaType string
	Data      []byte
}

// Transport is the external collaborator that carries an assembled draft
// plus its binary attachments as a single multi-part submission. It returns
// the accepted request's public identifier.
type Transport interface {
	Crear(ctx context.Context, s domain.Solicitud, cedulaPaciente, cedulaTercero *Attachment) (string, error)
}

// FormInput gathers the form field values plus the patient signature
// surface for one submission attempt.
type FormInput struct {
	TipoSolicitud         string
	Fecha                 string
	NombrePaciente        string
	NoDocumento           string
	TipoDocumento         string
	EntidadAseguradora    string
	FechaUltimaAtencion   string
	Correo                string
	Telefonos             string
	DocumentosSolicitados []string
	EspecifiquePartes     string
	MotivosSolicitud      []string
	CualOtro              string
	FirmaPaciente         *signature.Surface
	CedulaPaciente        *Attachment

	// Solo para solicitudes por tercero.
	NombreSolicitante string
	CedulaTercero     *Attachment
}

// Assembler builds one immutable submission payload from form field values
// plus the signature surface export, applies the client-side required-field
// checks, and hands the payload to the transport collaborator. One
// submission may be outstanding at a time per assembler.
type Assembler struct {
	transport Transport
	logger    *zap.Logger

	mu   sync.Mutex
	busy bool
}

func NewAssembler(transport Transport, logger *zap.Logger) *Assembler {
	return &Assembler{transport: transport, logger: logger}
}

// Busy reports whether a submission is outstanding; the submit control is
// disabled exactly while Busy is true.
func (a *Assembler) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// Submit validates in, transmits it exactly once and returns the accepted
// identifier. On success the patient signature raster is cleared; on any
// failure all local state is left untouched so the user can retry by
// resubmitting. Retries are never automatic.
func (a *Assembler) Submit(ctx context.Context, in FormInput) (string, error) {
	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return "", ErrSubmissionInFlight
	}
	a.busy = true
	a.mu.Unlock()

	// Re-enabled unconditionally when the attempt settles.
	defer func() {
		a.mu.Lock()
		a.busy = false
		a.mu.Unlock()
	}()

	if err := validate(in); err != nil {
		return "", err
	}

	s := domain.Solicitud{
		ID:                    "sol_" + uuid.NewString(),
		FechaSolicitud:        time.Now().UTC(),
		TipoSolicitud:         in.TipoSolicitud,
		Fecha:                 in.Fecha,
		NombrePaciente:        in.NombrePaciente,
		NoDocumento:           in.NoDocumento,
		TipoDocumento:         in.TipoDocumento,
		EntidadAseguradora:    in.EntidadAseguradora,
		FechaUltimaAtencion:   in.FechaUltimaAtencion,
		Correo:                in.Correo,
		Telefonos:             in.Telefonos,
		DocumentosSolicitados: in.DocumentosSolicitados,
		EspecifiquePartes:     in.EspecifiquePartes,
		MotivosSolicitud:      in.MotivosSolicitud,
		CualOtro:              in.CualOtro,
		FirmaPaciente:         in.FirmaPaciente.Export(),
		CedulaPaciente:        in.CedulaPaciente.Filename,
		Estado:                domain.EstadoPendiente,
	}
	var cedulaTercero *Attachment
	if in.TipoSolicitud == domain.TipoTercero {
		s.NombreSolicitante = in.NombreSolicitante
		s.CedulaTercero = in.CedulaTercero.Filename
		cedulaTercero = in.CedulaTercero
	}

	id, err := a.transport.Crear(ctx, s, in.CedulaPaciente, cedulaTercero)
	if err != nil {
		a.logger.Warn("Solicitud submission failed", zap.String("id", s.ID), zap.Error(err))
		return "", err
	}

	// Clear only after the transport confirmed acceptance, never
	// optimistically.
	in.FirmaPaciente.Clear()
	a.logger.Info("Solicitud submitted", zap.String("id", id))
	return id, nil
}

func validate(in FormInput) error {
	if isBlankString(in.NombrePaciente) {
		return &ValidationError{Reason: "Por favor ingresa el nombre del paciente."}
	}
	if !isPDFAttachment(in.CedulaPaciente) {
		return &ValidationError{Reason: "Por favor adjunta la cédula del paciente en formato PDF."}
	}
	if isBlankString(in.Correo) {
		return &ValidationError{Reason: "Por favor ingresa tu correo electrónico."}
	}
	if isBlankString(in.Telefonos) {
		return &ValidationError{Reason: "Por favor ingresa tu número de teléfono."}
	}
	if in.TipoSolicitud == domain.TipoTercero && !isPDFAttachment(in.CedulaTercero) {
		return &ValidationError{Reason: "Por favor adjunta la cédula del tercero en formato PDF."}
	}
	if in.FirmaPaciente == nil {
		return &ValidationError{Reason: "Por favor firma la solicitud."}
	}
	return nil
}

func isBlankString(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

func isPDFAttachment(att *Attachment) bool {
	return att != nil && len(att.Data) > 0 && upload.IsPDF(att.MediaType, att.Filename)
}
