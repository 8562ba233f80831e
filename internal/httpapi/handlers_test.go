package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/domain"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/repository"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/service"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/store"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/upload"
)

type testEnv struct {
	server *httptest.Server
	repo   *repository.MemorySolicitudesRepository
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := store.NewRedisKV(redisClient)

	auth := service.NewAuthService("admin", "s3cret", kv, 24*time.Hour, logger)
	repo := repository.NewMemorySolicitudesRepository()
	svc := service.NewSolicitudService(repo, logger)

	uploads, err := upload.NewDiskStore(filepath.Join(t.TempDir(), "cedulas"))
	require.NoError(t, err)

	router := NewRouter(logger)
	router.RegisterAuthRoutes(NewAuthHandler(auth, logger))
	router.RegisterSolicitudesRoutes(NewSolicitudesHandler(svc, auth, uploads, logger))
	router.RegisterUploadsRoutes(uploads.Dir())

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, repo: repo}
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "s3cret"})
	resp, err := http.Post(e.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func multipartSolicitud(t *testing.T, s domain.Solicitud, pdfField, pdfName, pdfType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("data", string(data)))

	if pdfField != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, pdfField, pdfName))
		h.Set("Content-Type", pdfType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 test"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestLogin_BadCredentials(t *testing.T) {
	env := setupTestEnv(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, err := http.Post(env.server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthCheck(t *testing.T) {
	env := setupTestEnv(t)

	// Without a session.
	resp, err := http.Get(env.server.URL + "/api/auth/check")
	require.NoError(t, err)
	var r Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	resp.Body.Close()
	assert.False(t, r.OK)

	// With one.
	cookie := env.login(t)
	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/auth/check", nil)
	req.AddCookie(cookie)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	resp.Body.Close()
	assert.True(t, r.OK)
}

func TestListRequiresSession(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/solicitudes")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var r Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	assert.Equal(t, "Debes iniciar sesión", r.Message)
}

func TestCreateSolicitud_WithPDF(t *testing.T) {
	env := setupTestEnv(t)

	body, contentType := multipartSolicitud(t, domain.Solicitud{
		ID:             "sol_test",
		TipoSolicitud:  domain.TipoPropio,
		NombrePaciente: "Ana María Rojas",
		Correo:         "ana@example.com",
		Telefonos:      "3001234567",
	}, "cedulaPaciente", "cedula.pdf", "application/pdf")

	resp, err := http.Post(env.server.URL+"/api/solicitudes", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cr CreateResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cr))
	assert.True(t, cr.OK)
	assert.Equal(t, "sol_test", cr.ID)

	stored, err := env.repo.Get(context.Background(), "sol_test")
	require.NoError(t, err)
	assert.Equal(t, domain.EstadoPendiente, stored.Estado)
	assert.Contains(t, stored.CedulaPaciente, "/uploads/cedulas/")

	// The stored PDF is served back.
	resp, err = http.Get(env.server.URL + stored.CedulaPaciente)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateSolicitud_RejectsNonPDF(t *testing.T) {
	env := setupTestEnv(t)

	body, contentType := multipartSolicitud(t, domain.Solicitud{
		NombrePaciente: "Ana",
	}, "cedulaPaciente", "foto.png", "image/png")

	resp, err := http.Post(env.server.URL+"/api/solicitudes", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var r Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	assert.Equal(t, "Solo se permiten archivos PDF", r.Message)
}

func TestCreateSolicitud_RejectsOversizedBody(t *testing.T) {
	env := setupTestEnv(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("data", `{"nombrePaciente":"Ana"}`))
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="cedulaPaciente"; filename="cedula.pdf"`)
	h.Set("Content-Type", "application/pdf")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	// Well past the body cap (2×5MB for the PDFs plus 1MB of form slack).
	_, err = part.Write(bytes.Repeat([]byte("a"), 12<<20))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// The server stops reading at the cap, so the client either gets the
	// 400 or sees the connection cut while still sending.
	resp, err := http.Post(env.server.URL+"/api/solicitudes", w.FormDataContentType(), &buf)
	if err == nil {
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	}

	list, err := env.repo.List(context.Background(), repository.SolicitudFilters{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUnknownSolicitudSubRoute_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/solicitudes/sol_x")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSolicitud_GeneratesIDWhenMissing(t *testing.T) {
	env := setupTestEnv(t)

	body, contentType := multipartSolicitud(t, domain.Solicitud{
		NombrePaciente: "Ana",
	}, "", "", "")

	resp, err := http.Post(env.server.URL+"/api/solicitudes", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cr CreateResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cr))
	assert.Contains(t, cr.ID, "sol_")
}

func TestListAndFilter(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.repo.Create(ctx, &domain.Solicitud{
		ID: "sol_a", NombrePaciente: "Ana", Estado: domain.EstadoPendiente,
		FechaSolicitud: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, env.repo.Create(ctx, &domain.Solicitud{
		ID: "sol_b", NombrePaciente: "Carlos", Estado: domain.EstadoCompletada,
		FechaSolicitud: time.Now(),
	}))

	cookie := env.login(t)
	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/solicitudes", nil)
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var list []domain.Solicitud
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list, 2)
	assert.Equal(t, "sol_b", list[0].ID) // descending fecha_solicitud

	req, _ = http.NewRequest(http.MethodGet, env.server.URL+"/api/solicitudes?estado=completada", nil)
	req.AddCookie(cookie)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	resp.Body.Close()
	require.Len(t, list, 1)
	assert.Equal(t, "sol_b", list[0].ID)
}

func TestPatch_PartialUpdate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.repo.Create(ctx, &domain.Solicitud{
		ID:                "sol_p",
		TipoSolicitud:     domain.TipoTercero,
		Estado:            domain.EstadoEnProceso,
		NombreFuncionario: "Marta Gómez",
		FechaEntrega:      "2026-09-01",
		FechaSolicitud:    time.Now(),
	}))

	cookie := env.login(t)
	body := bytes.NewBufferString(`{"estado":"completada"}`)
	req, _ := http.NewRequest(http.MethodPatch, env.server.URL+"/api/solicitudes/sol_p", body)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := env.repo.Get(ctx, "sol_p")
	require.NoError(t, err)
	assert.Equal(t, domain.EstadoCompletada, stored.Estado)
	// Previously stored fulfillment fields are untouched.
	assert.Equal(t, "Marta Gómez", stored.NombreFuncionario)
	assert.Equal(t, "2026-09-01", stored.FechaEntrega)
}

func TestPatch_RequiresSessionAndExistence(t *testing.T) {
	env := setupTestEnv(t)

	// No session.
	req, _ := http.NewRequest(http.MethodPatch, env.server.URL+"/api/solicitudes/sol_x",
		bytes.NewBufferString(`{"estado":"completada"}`))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Unknown id.
	cookie := env.login(t)
	req, _ = http.NewRequest(http.MethodPatch, env.server.URL+"/api/solicitudes/sol_x",
		bytes.NewBufferString(`{"estado":"completada"}`))
	req.AddCookie(cookie)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPatch_NoFields(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.repo.Create(ctx, &domain.Solicitud{ID: "sol_e", FechaSolicitud: time.Now()}))

	cookie := env.login(t)
	req, _ := http.NewRequest(http.MethodPatch, env.server.URL+"/api/solicitudes/sol_e",
		bytes.NewBufferString(`{}`))
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var r Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	assert.Equal(t, "No hay campos para actualizar", r.Message)
}

func TestExport_RequiresSessionAndReturnsWorkbook(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.repo.Create(ctx, &domain.Solicitud{
		ID: "sol_x", NombrePaciente: "Ana", FechaSolicitud: time.Now(),
		Estado: domain.EstadoPendiente,
	}))

	resp, err := http.Get(env.server.URL + "/api/solicitudes/export")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cookie := env.login(t)
	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/api/solicitudes/export", nil)
	req.AddCookie(cookie)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
}

func TestLogout_InvalidatesSession(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.login(t)

	req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/api/auth/logout", nil)
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, _ = http.NewRequest(http.MethodGet, env.server.URL+"/api/solicitudes", nil)
	req.AddCookie(cookie)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
