package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/domain"
)

func TestGenerateSolicitudesExport(t *testing.T) {
	solicitudes := []*domain.Solicitud{
		{
			ID:                    "sol_1",
			FechaSolicitud:        time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
			TipoSolicitud:         domain.TipoTercero,
			NombrePaciente:        "Ana María Rojas",
			NoDocumento:           "1020304050",
			DocumentosSolicitados: []string{"historia_completa", "laboratorios"},
			MotivosSolicitud:      []string{"personal"},
			Estado:                domain.EstadoEnProceso,
			NombreSolicitante:     "Carlos Pérez",
		},
	}

	data, err := GenerateSolicitudesExport(solicitudes)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Solicitudes")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, SolicitudesExportHeader, rows[0][:len(SolicitudesExportHeader)])
	assert.Equal(t, "sol_1", rows[1][0])
	assert.Equal(t, "Ana María Rojas", rows[1][3])
	assert.Equal(t, "historia_completa, laboratorios", rows[1][9])
	assert.Equal(t, "en_proceso", rows[1][11])
}

func TestGenerateSolicitudesExport_EmptyListHasHeaderOnly(t *testing.T) {
	data, err := GenerateSolicitudesExport(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Solicitudes")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
