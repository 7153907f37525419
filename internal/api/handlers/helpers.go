package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/paisapro/pricewise/internal/pkg/errors"
	"github.com/paisapro/pricewise/internal/pkg/logger"
	"github.com/paisapro/pricewise/internal/pkg/utils"
)

// writeServiceError sends a service error, preserving AppError codes and
// status and hiding everything else behind a 500
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error, fallback string) {
	if appErr, ok := err.(*errors.AppError); ok {
		utils.WriteError(w, appErr)
		return
	}
	log.ErrorWithErr(err, fallback)
	utils.WriteError(w, errors.Internal(fallback, err))
}

// pathID parses a numeric chi URL parameter
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.BadRequest(name + " must be a positive integer")
	}
	return id, nil
}
