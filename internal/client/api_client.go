package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/domain"
	"github.com/VictorMtMwr/Formulario-solicitud-HC/internal/draft"
)

// ErrUnauthorized means the server rejected the call for lack of a valid
// session. Callers should send the operator back to the login screen.
var ErrUnauthorized = errors.New("client: sesión no válida")

// statusResult mirrors the server's {ok, message} envelope.
type statusResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type createResult struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

type updateResult struct {
	OK        bool              `json:"ok"`
	Solicitud *domain.Solicitud `json:"solicitud"`
}

// APIClient talks to the intake service over HTTP. It implements
// draft.Transport for the public form path and exposes the session-guarded
// operations the admin panel needs.
//
// Submissions are never retried automatically: a timed-out POST may still
// have been accepted server-side, and a blind retry would file the request
// twice. Failures surface to the caller, who decides whether to resend.
type APIClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewAPIClient(baseURL string, logger *zap.Logger) *APIClient {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")

	// Keep the session cookie across calls once Login succeeds.
	return &APIClient{
		httpClient: httpClient,
		logger:     logger,
	}
}

// Crear sends one assembled solicitud as a multipart POST: the JSON document
// under the "data" field plus up to two PDF attachments. Returns the public
// identifier assigned by the server.
func (c *APIClient) Crear(ctx context.Context, s domain.Solicitud, cedulaPaciente, cedulaTercero *draft.Attachment) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode solicitud: %w", err)
	}

	req := c.httpClient.R().
		SetContext(ctx).
		SetMultipartField("data", "", "application/json", bytes.NewReader(data))

	if cedulaPaciente != nil {
		req.SetMultipartField("cedulaPaciente", cedulaPaciente.Filename,
			cedulaPaciente.MediaType, bytes.NewReader(cedulaPaciente.Data))
	}
	if cedulaTercero != nil {
		req.SetMultipartField("cedulaTercero", cedulaTercero.Filename,
			cedulaTercero.MediaType, bytes.NewReader(cedulaTercero.Data))
	}

	var result createResult
	resp, err := req.SetResult(&result).Post("/api/solicitudes")
	if err != nil {
		c.logger.Error("Failed to submit solicitud", zap.Error(err))
		return "", fmt.Errorf("failed to submit solicitud: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return "", c.errorFrom(resp)
	}

	c.logger.Info("Solicitud accepted", zap.String("id", result.ID))
	return result.ID, nil
}

// Login opens an admin session. The session cookie is retained by the
// underlying client and sent on subsequent calls.
func (c *APIClient) Login(ctx context.Context, username, password string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		Post("/api/auth/login")
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode() != http.StatusOK {
		return c.errorFrom(resp)
	}
	return nil
}

// Logout closes the current admin session.
func (c *APIClient) Logout(ctx context.Context) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Post("/api/auth/logout")
	if err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return c.errorFrom(resp)
	}
	return nil
}

// CheckSession reports whether the retained session cookie is still valid.
func (c *APIClient) CheckSession(ctx context.Context) (bool, error) {
	var result statusResult
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/api/auth/check")
	if err != nil {
		return false, fmt.Errorf("session check failed: %w", err)
	}
	return resp.StatusCode() == http.StatusOK && result.OK, nil
}

// Listar fetches the stored solicitudes, newest first. estado and query
// narrow the listing when non-empty.
func (c *APIClient) Listar(ctx context.Context, estado, query string) ([]domain.Solicitud, error) {
	req := c.httpClient.R().SetContext(ctx)
	if estado != "" {
		req.SetQueryParam("estado", estado)
	}
	if query != "" {
		req.SetQueryParam("q", query)
	}

	var list []domain.Solicitud
	resp, err := req.SetResult(&list).Get("/api/solicitudes")
	if err != nil {
		return nil, fmt.Errorf("failed to list solicitudes: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, c.errorFrom(resp)
	}
	return list, nil
}

// Actualizar applies a partial update to one solicitud and returns the
// updated record.
func (c *APIClient) Actualizar(ctx context.Context, id string, update domain.SolicitudUpdate) (*domain.Solicitud, error) {
	var result updateResult
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(update).
		SetResult(&result).
		Patch("/api/solicitudes/" + id)
	if err != nil {
		return nil, fmt.Errorf("failed to update solicitud %s: %w", id, err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, c.errorFrom(resp)
	}
	return result.Solicitud, nil
}

func (c *APIClient) errorFrom(resp *resty.Response) error {
	var r statusResult
	if err := json.Unmarshal(resp.Body(), &r); err == nil && r.Message != "" {
		return fmt.Errorf("server rejected request (%d): %s", resp.StatusCode(), r.Message)
	}
	return fmt.Errorf("server rejected request (%d)", resp.StatusCode())
}
