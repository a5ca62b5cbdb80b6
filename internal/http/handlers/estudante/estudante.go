// Package estudante contains all HTTP handlers for the Estudante resource.
//
// Handlers use the closure/factory pattern: each exported function takes
// the storage dependency and returns an http.HandlerFunc that closes
// over it. The factory runs once at route registration; the returned
// handler runs on every request:
//
//	router.HandleFunc("POST /estudantes", estudante.New(storage))
//
// Every handler follows the same shape — validate the input, call the
// storage interface, map the outcome to a response — with an early
// return on the first failure.
package estudante

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/escolalab/estudantes-api/internal/storage"
	"github.com/escolalab/estudantes-api/internal/types"
	"github.com/escolalab/estudantes-api/internal/utils/response"
)

// errInvalidID is returned to clients that put a non-integer in the
// {id} path segment.
var errInvalidID = errors.New("invalid id: must be an integer")

// parseID extracts and converts the {id} path segment registered with
// the Go 1.22+ ServeMux pattern syntax.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// decodePayload reads and validates a create/update body. On failure the
// response has already been written and ok is false — the caller just
// returns.
func decodePayload(w http.ResponseWriter, r *http.Request, validate *validator.Validate) (types.EstudantePayload, bool) {
	var payload types.EstudantePayload

	err := json.NewDecoder(r.Body).Decode(&payload)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return payload, false
	}
	if err != nil {
		// Malformed JSON or a wrong type for a field (e.g. a string
		// where a number belongs).
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return payload, false
	}

	// Presence check for all six mutable fields. The payload fields are
	// pointers, so "required" fails only on an absent key — a zero nota
	// or sala is a valid value.
	if err := validate.Struct(payload); err != nil {
		validateErrs := err.(validator.ValidationErrors)
		response.WriteJSON(w, http.StatusBadRequest,
			response.ValidationError(validateErrs))
		return payload, false
	}

	return payload, true
}

// New handles POST /estudantes.
// Creates a student from the JSON body and echoes it back, with the
// store-assigned id merged in, as 201 Created.
func New(store storage.Storage) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating an estudante")

		payload, ok := decodePayload(w, r, validate)
		if !ok {
			return
		}

		est := payload.Estudante()

		lastID, err := store.CreateEstudante(r.Context(), est)
		if err != nil {
			slog.Error("error creating estudante", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.InternalError())
			return
		}

		slog.Info("estudante created", slog.Int64("id", lastID))

		est.ID = lastID
		response.WriteJSON(w, http.StatusCreated, est)
	}
}

// GetList handles GET /estudantes.
// Returns a JSON array of every student — [] (not null) when the table
// is empty. No ordering is promised to clients.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("listing estudantes")

		estudantes, err := store.ListEstudantes(r.Context())
		if err != nil {
			slog.Error("error listing estudantes", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.InternalError())
			return
		}

		response.WriteJSON(w, http.StatusOK, estudantes)
	}
}

// GetByID handles GET /estudantes/{id}.
// 200 with the record, or the fixed 404 body when the id has no match.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting an estudante", slog.String("id", r.PathValue("id")))

		id, err := parseID(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errInvalidID))
			return
		}

		est, err := store.GetEstudanteByID(r.Context(), id)
		if errors.Is(err, storage.ErrEstudanteNotFound) {
			response.NotFound(w)
			return
		}
		if err != nil {
			slog.Error("error getting estudante",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.InternalError())
			return
		}

		response.WriteJSON(w, http.StatusOK, est)
	}
}

// Update handles PUT /estudantes/{id}.
// Full-record replacement: all six fields are required and overwritten;
// the id is preserved. 404 when the id has no match.
//
// Existence is decided by a read before the write. The two statements
// are not isolated from concurrent writers, so a lost update between
// them is possible — an accepted limitation of this endpoint.
func Update(store storage.Storage) http.HandlerFunc {
	validate := validator.New()

	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("updating an estudante", slog.String("id", r.PathValue("id")))

		id, err := parseID(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errInvalidID))
			return
		}

		payload, ok := decodePayload(w, r, validate)
		if !ok {
			return
		}

		if _, err := store.GetEstudanteByID(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrEstudanteNotFound) {
				response.NotFound(w)
				return
			}
			slog.Error("error checking estudante before update",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.InternalError())
			return
		}

		est := payload.Estudante()

		if _, err := store.UpdateEstudanteByID(r.Context(), id, est); err != nil {
			slog.Error("error updating estudante",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.InternalError())
			return
		}

		slog.Info("estudante updated", slog.Int64("id", id))

		est.ID = id
		response.WriteJSON(w, http.StatusOK, est)
	}
}

// Delete handles DELETE /estudantes/{id}.
// Always answers 204 with an empty body, whether or not the id existed:
// the endpoint is idempotent, and clients cannot tell a repeated delete
// from a first one.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("deleting an estudante", slog.String("id", r.PathValue("id")))

		id, err := parseID(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errInvalidID))
			return
		}

		if _, err := store.DeleteEstudanteByID(r.Context(), id); err != nil {
			slog.Error("error deleting estudante",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.InternalError())
			return
		}

		slog.Info("estudante deleted", slog.Int64("id", id))
		response.WriteNoContent(w)
	}
}
