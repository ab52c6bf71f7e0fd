package main

import (
	"net/http"

	"checkoutcore/internal/apperr"
)

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err)
	_ = writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized", "method", r.Method, "path", r.URL.Path, "error", err)
	_ = writeJSONError(w, http.StatusUnauthorized, err.Error())
}

func (app *application) unprocessableEntityResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unprocessable entity", "method", r.Method, "path", r.URL.Path, "error", err)
	_ = writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path)
	_ = writeJSONError(w, http.StatusForbidden, "you do not have permission to perform this action")
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err)
	_ = writeJSONError(w, http.StatusNotFound, err.Error())
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict", "method", r.Method, "path", r.URL.Path, "error", err)
	_ = writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
	_ = writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path, "retry_after", retryAfter)
	w.Header().Set("Retry-After", retryAfter)
	_ = writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after "+retryAfter)
}

// writeError maps an apperr.Error (or anything else) to the right HTTP
// response, so handlers need one call instead of a per-handler switch.
func (app *application) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		app.badRequestResponse(w, r, err)
	case apperr.KindAuth:
		app.unauthorizedErrorResponse(w, r, err)
	case apperr.KindForbidden:
		app.forbiddenResponse(w, r)
	case apperr.KindNotFound:
		app.notFoundResponse(w, r, err)
	case apperr.KindConflict:
		app.conflictResponse(w, r, err)
	case apperr.KindDomain:
		app.badRequestResponse(w, r, err)
	case apperr.KindUnprocessable:
		app.unprocessableEntityResponse(w, r, err)
	case apperr.KindRepo:
		app.internalServerError(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
