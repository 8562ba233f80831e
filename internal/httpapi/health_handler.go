package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HealthHandler verificación de conexión a PostgreSQL.
type HealthHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewHealthHandler(db *sql.DB, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

type dbHealth struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Now     string `json:"now,omitempty"`
	DB      string `json:"db,omitempty"`
}

func (h *HealthHandler) DB(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusOK, dbHealth{OK: true, Message: "Base de datos deshabilitada (repositorio en memoria)"})
		return
	}

	var now time.Time
	var dbName string
	err := h.db.QueryRowContext(r.Context(), `SELECT NOW(), current_database()`).Scan(&now, &dbName)
	if err != nil {
		h.logger.Error("Error conectando a la BD", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, dbHealth{OK: false, Message: "Error al conectar con la base de datos"})
		return
	}
	writeJSON(w, http.StatusOK, dbHealth{
		OK:      true,
		Message: "Conexión a PostgreSQL correcta",
		Now:     now.Format(time.RFC3339),
		DB:      dbName,
	})
}
