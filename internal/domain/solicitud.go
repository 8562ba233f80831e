package domain

import "time"

// Estado de una solicitud. El panel de administración puede mover una
// solicitud a cualquier estado (la revisión humana puede necesitar revertir).
type Estado string

const (
	EstadoPendiente  Estado = "pendiente"
	EstadoEnProceso  Estado = "en_proceso"
	EstadoCompletada Estado = "completada"
	EstadoRechazada  Estado = "rechazada"
)

// IsValid reports whether e is one of the known estados.
func (e Estado) IsValid() bool {
	switch e {
	case EstadoPendiente, EstadoEnProceso, EstadoCompletada, EstadoRechazada:
		return true
	}
	return false
}

// Tipo de solicitud: a nombre propio o por tercero.
const (
	TipoPropio  = "propio"
	TipoTercero = "tercero"
)

// Solicitud es el registro persistido de una solicitud de copia de
// historia clínica. Field names follow the public wire contract of the
// intake form. Signatures are embedded PNG data URLs; cédulas are
// /uploads/... path references to the stored PDF files.
type Solicitud struct {
	ID                    string    `json:"id"`
	FechaSolicitud        time.Time `json:"fechaSolicitud"`
	TipoSolicitud         string    `json:"tipoSolicitud"`
	Fecha                 string    `json:"fecha"`
	NombrePaciente        string    `json:"nombrePaciente"`
	NoDocumento           string    `json:"noDocumento"`
	TipoDocumento         string    `json:"tipoDocumento"`
	EntidadAseguradora    string    `json:"entidadAseguradora"`
	FechaUltimaAtencion   string    `json:"fechaUltimaAtencion"`
	Correo                string    `json:"correo"`
	Telefonos             string    `json:"telefonos"`
	DocumentosSolicitados []string  `json:"documentosSolicitados"`
	EspecifiquePartes     string    `json:"especifiquePartes"`
	MotivosSolicitud      []string  `json:"motivosSolicitud"`
	CualOtro              string    `json:"cualOtro"`
	NombreFirma           string    `json:"nombreFirma"`
	FirmaPaciente         string    `json:"firmaPaciente"`
	CedulaPaciente        string    `json:"cedulaPaciente"`
	Estado                Estado    `json:"estado"`

	// Campos presentes solo cuando TipoSolicitud == TipoTercero.
	NombreSolicitante     string `json:"nombreSolicitante,omitempty"`
	TraeCarta             string `json:"traeCarta,omitempty"`
	TraeCopiaDocs         string `json:"traeCopiaDocs,omitempty"`
	NombreFuncionario     string `json:"nombreFuncionario,omitempty"`
	FirmaFuncionario      string `json:"firmaFuncionario,omitempty"`
	NombrePacienteTercero string `json:"nombrePacienteTercero,omitempty"`
	FechaEntrega          string `json:"fechaEntrega,omitempty"`
	CedulaTercero         string `json:"cedulaTercero,omitempty"`
}

// SolicitudUpdate is the mutable subset an administrator may change after
// creation. Nil pointers mean "leave untouched" (partial update semantics,
// not replace-whole-record).
type SolicitudUpdate struct {
	Estado            *Estado `json:"estado,omitempty"`
	TraeCarta         *string `json:"traeCarta,omitempty"`
	TraeCopiaDocs     *string `json:"traeCopiaDocs,omitempty"`
	NombreFuncionario *string `json:"nombreFuncionario,omitempty"`
	FechaEntrega      *string `json:"fechaEntrega,omitempty"`
	FirmaFuncionario  *string `json:"firmaFuncionario,omitempty"`
}

// IsEmpty reports whether the update carries no field at all.
func (u SolicitudUpdate) IsEmpty() bool {
	return u.Estado == nil && u.TraeCarta == nil && u.TraeCopiaDocs == nil &&
		u.NombreFuncionario == nil && u.FechaEntrega == nil && u.FirmaFuncionario == nil
}
