package validators

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/dukastore/backend/pkg/errors"
)

// ParseIDParam reads a positive integer route parameter.
func ParseIDParam(r *http.Request, key string) (uint64, error) {
	raw := chi.URLParam(r, key)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "route parameter must be a positive id").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
