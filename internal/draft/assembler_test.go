package draft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/domain"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/signature"
)

type fakeTransport struct {
	calls   int
	fail    error
	block   chan struct{} // when set, Crear blocks until closed
	lastSol domain.Solicitud
}

func (f *fakeTransport) Crear(_ context.Context, s domain.Solicitud, _, _ *Attachment) (string, error) {
	f.calls++
	f.lastSol = s
	if f.block != nil {
		<-f.block
	}
	if f.fail != nil {
		return "", f.fail
	}
	return s.ID, nil
}

func signedSurface(t *testing.T) *signature.Surface {
	t.Helper()
	s, err := signature.NewSurface(400, 150)
	require.NoError(t, err)
	s.Recorder().Down(signature.Point{X: 20, Y: 40})
	s.Recorder().Move(signature.Point{X: 120, Y: 60})
	s.Recorder().Up()
	return s
}

func pdf(name string) *Attachment {
	return &Attachment{Filename: name, MediaType: "application/pdf", Data: []byte("%PDF-1.4")}
}

func validSelfInput(t *testing.T) FormInput {
	t.Helper()
	return FormInput{
		TipoSolicitud:         domain.TipoPropio,
		Fecha:                 "2026-08-27",
		NombrePaciente:        "Ana María Rojas",
		NoDocumento:           "1020304050",
		TipoDocumento:         "CC",
		Correo:                "ana@example.com",
		Telefonos:             "3001234567",
		DocumentosSolicitados: []string{"historia_completa"},
		MotivosSolicitud:      []string{"personal"},
		FirmaPaciente:         signedSurface(t),
		CedulaPaciente:        pdf("cedula_ana.pdf"),
	}
}

func TestSubmit_SelfDraftAccepted(t *testing.T) {
	tr := &fakeTransport{}
	a := NewAssembler(tr, zap.NewNop())
	in := validSelfInput(t)

	id, err := a.Submit(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, 1, tr.calls)
	assert.NotEmpty(t, id)
	assert.Equal(t, domain.EstadoPendiente, tr.lastSol.Estado)
	assert.Equal(t, "Ana María Rojas", tr.lastSol.NombrePaciente)
	// Signature raster is cleared only after confirmed acceptance.
	assert.True(t, in.FirmaPaciente.IsBlank())
}

func TestSubmit_GeneratedIDsAreUnique(t *testing.T) {
	tr := &fakeTransport{}
	a := NewAssembler(tr, zap.NewNop())

	id1, err := a.Submit(context.Background(), validSelfInput(t))
	require.NoError(t, err)
	id2, err := a.Submit(context.Background(), validSelfInput(t))
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
}

func TestSubmit_ValidationFailuresNeverTransmit(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*FormInput)
		reason string
	}{
		{
			name:   "missing patient name",
			mutate: func(in *FormInput) { in.NombrePaciente = "   " },
			reason: "Por favor ingresa el nombre del paciente.",
		},
		{
			name:   "missing patient cedula",
			mutate: func(in *FormInput) { in.CedulaPaciente = nil },
			reason: "Por favor adjunta la cédula del paciente en formato PDF.",
		},
		{
			name: "patient cedula is not a PDF",
			mutate: func(in *FormInput) {
				in.CedulaPaciente = &Attachment{Filename: "foto.png", MediaType: "image/png", Data: []byte{1}}
			},
			reason: "Por favor adjunta la cédula del paciente en formato PDF.",
		},
		{
			name:   "missing email",
			mutate: func(in *FormInput) { in.Correo = "" },
			reason: "Por favor ingresa tu correo electrónico.",
		},
		{
			name:   "missing phone",
			mutate: func(in *FormInput) { in.Telefonos = "" },
			reason: "Por favor ingresa tu número de teléfono.",
		},
		{
			name: "tercero without third-party cedula",
			mutate: func(in *FormInput) {
				in.TipoSolicitud = domain.TipoTercero
				in.NombreSolicitante = "Carlos Pérez"
				in.CedulaTercero = nil
			},
			reason: "Por favor adjunta la cédula del tercero en formato PDF.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := &fakeTransport{}
			a := NewAssembler(tr, zap.NewNop())
			in := validSelfInput(t)
			tc.mutate(&in)

			_, err := a.Submit(context.Background(), in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.reason, verr.Reason)
			assert.Zero(t, tr.calls)
		})
	}
}

func TestSubmit_TerceroDraftCarriesThirdPartyFields(t *testing.T) {
	tr := &fakeTransport{}
	a := NewAssembler(tr, zap.NewNop())
	in := validSelfInput(t)
	in.TipoSolicitud = domain.TipoTercero
	in.NombreSolicitante = "Carlos Pérez"
	in.CedulaTercero = pdf("cedula_carlos.pdf")

	_, err := a.Submit(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "Carlos Pérez", tr.lastSol.NombreSolicitante)
	assert.Equal(t, "cedula_carlos.pdf", tr.lastSol.CedulaTercero)
}

func TestSubmit_BusyWhileInFlightAndReenabledAfterFailure(t *testing.T) {
	tr := &fakeTransport{fail: errors.New("network unreachable"), block: make(chan struct{})}
	a := NewAssembler(tr, zap.NewNop())
	in := validSelfInput(t)

	done := make(chan error, 1)
	go func() {
		_, err := a.Submit(context.Background(), in)
		done <- err
	}()

	// Submit control is disabled while the submission is outstanding.
	require.Eventually(t, a.Busy, time.Second, time.Millisecond)

	// A second submission attempt is rejected while one is in flight.
	_, err := a.Submit(context.Background(), validSelfInput(t))
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(tr.block)
	err = <-done
	require.Error(t, err)
	assert.Equal(t, 1, tr.calls)

	// Re-enabled unconditionally once the attempt settles, and local
	// draft state is preserved for a user-initiated retry.
	assert.False(t, a.Busy())
	assert.False(t, in.FirmaPaciente.IsBlank())
}
