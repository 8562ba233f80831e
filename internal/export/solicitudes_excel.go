package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/domain"
)

// SolicitudesExportHeader columnas del export del panel de administración.
var SolicitudesExportHeader = []string{
	"Ref",
	"Fecha Solicitud",
	"Tipo",
	"Nombre Paciente",
	"No. Documento",
	"Tipo Documento",
	"Entidad Aseguradora",
	"Correo",
	"Teléfonos",
	"Documentos Solicitados",
	"Motivos",
	"Estado",
	"Nombre Solicitante",
	"Nombre Funcionario",
	"Fecha Entrega",
}

// GenerateSolicitudesExport builds the XLSX workbook of the request list.
// An empty list yields a workbook with the header row only.
func GenerateSolicitudesExport(solicitudes []*domain.Solicitud) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Solicitudes"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, title := range SolicitudesExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to resolve header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	for i, s := range solicitudes {
		values := []any{
			s.ID,
			s.FechaSolicitud.Format(time.RFC3339),
			s.TipoSolicitud,
			s.NombrePaciente,
			s.NoDocumento,
			s.TipoDocumento,
			s.EntidadAseguradora,
			s.Correo,
			s.Telefonos,
			strings.Join(s.DocumentosSolicitados, ", "),
			strings.Join(s.MotivosSolicitud, ", "),
			string(s.Estado),
			s.NombreSolicitante,
			s.NombreFuncionario,
			s.FechaEntrega,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to resolve cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "B", 24); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
