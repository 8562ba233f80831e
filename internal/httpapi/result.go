package httpapi

// Result is the JSON envelope of the intake API: {ok, message?, ...}.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// CreateResult acknowledges an accepted solicitud with its public id.
type CreateResult struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// UpdateResult returns the updated record after a PATCH.
type UpdateResult struct {
	OK        bool `json:"ok"`
	Solicitud any  `json:"solicitud"`
}

func ok() Result {
	return Result{OK: true}
}

func fail(message string) Result {
	return Result{OK: false, Message: message}
}
