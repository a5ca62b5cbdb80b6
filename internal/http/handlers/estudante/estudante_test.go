package estudante_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/escolalab/estudantes-api/internal/http/handlers/estudante"
	"github.com/escolalab/estudantes-api/internal/storage"
	"github.com/escolalab/estudantes-api/internal/storage/mysql"
	"github.com/escolalab/estudantes-api/internal/types"
)

// newRouter wires the five routes exactly as main does, over the given
// storage.
func newRouter(store storage.Storage) *http.ServeMux {
	router := http.NewServeMux()
	router.HandleFunc("GET /estudantes", estudante.GetList(store))
	router.HandleFunc("GET /estudantes/{id}", estudante.GetByID(store))
	router.HandleFunc("POST /estudantes", estudante.New(store))
	router.HandleFunc("PUT /estudantes/{id}", estudante.Update(store))
	router.HandleFunc("DELETE /estudantes/{id}", estudante.Delete(store))
	return router
}

// newTestRouter backs the routes with the real gateway running on an
// in-memory sqlite database, so request-to-persistence mapping is tested
// end to end.
func newTestRouter(t *testing.T) *http.ServeMux {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE estudantes (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			nome                 TEXT    NOT NULL,
			idade                INTEGER NOT NULL,
			notaPrimeiroSemestre REAL    NOT NULL,
			notaSegundoSemestre  REAL    NOT NULL,
			nomeProfessor        TEXT    NOT NULL,
			numeroSala           INTEGER NOT NULL
		)`)
	require.NoError(t, err)

	return newRouter(&mysql.MySQL{Db: db})
}

func do(t *testing.T, router *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const anaBody = `{
	"nome": "Ana",
	"idade": 20,
	"notaPrimeiroSemestre": 8.5,
	"notaSegundoSemestre": 9.0,
	"nomeProfessor": "Silva",
	"numeroSala": 101
}`

func decodeEstudante(t *testing.T, w *httptest.ResponseRecorder) types.Estudante {
	t.Helper()
	var e types.Estudante
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

// The full lifecycle: create → get → delete → get.
func TestEstudanteLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// Create.
	w := do(t, router, http.MethodPost, "/estudantes", anaBody)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	created := decodeEstudante(t, w)
	require.Positive(t, created.ID)
	require.Equal(t, "Ana", created.Nome)
	require.Equal(t, 20, created.Idade)
	require.Equal(t, 8.5, created.NotaPrimeiroSemestre)
	require.Equal(t, 9.0, created.NotaSegundoSemestre)
	require.Equal(t, "Silva", created.NomeProfessor)
	require.Equal(t, 101, created.NumeroSala)

	// Get returns an identical record.
	w = do(t, router, http.MethodGet, "/estudantes/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, created, decodeEstudante(t, w))

	// Delete: 204, empty body.
	w = do(t, router, http.MethodDelete, "/estudantes/1", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.String())

	// Gone: fixed 404 body.
	w = do(t, router, http.MethodGet, "/estudantes/1", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"message": "Estudante não encontrado"}`, w.Body.String())
}

func TestGetList(t *testing.T) {
	router := newTestRouter(t)

	// Empty table encodes as [], never null.
	w := do(t, router, http.MethodGet, "/estudantes", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())

	do(t, router, http.MethodPost, "/estudantes", anaBody)
	bruno := strings.Replace(anaBody, "Ana", "Bruno", 1)
	do(t, router, http.MethodPost, "/estudantes", bruno)

	w = do(t, router, http.MethodGet, "/estudantes", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []types.Estudante
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
}

func TestCreate_ValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "empty body",
			body:    "",
			wantErr: "request body is empty",
		},
		{
			name:    "missing nome",
			body:    `{"idade": 20, "notaPrimeiroSemestre": 8.5, "notaSegundoSemestre": 9.0, "nomeProfessor": "Silva", "numeroSala": 101}`,
			wantErr: "field Nome is required",
		},
		{
			name:    "missing both notas",
			body:    `{"nome": "Ana", "idade": 20, "nomeProfessor": "Silva", "numeroSala": 101}`,
			wantErr: "field NotaPrimeiroSemestre is required, field NotaSegundoSemestre is required",
		},
		{
			name:    "wrong type for idade",
			body:    `{"nome": "Ana", "idade": "vinte", "notaPrimeiroSemestre": 8.5, "notaSegundoSemestre": 9.0, "nomeProfessor": "Silva", "numeroSala": 101}`,
			wantErr: "cannot unmarshal",
		},
		{
			name:    "malformed json",
			body:    `{"nome": `,
			wantErr: "unexpected EOF",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t)

			w := do(t, router, http.MethodPost, "/estudantes", tc.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp struct {
				Status string `json:"status"`
				Error  string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Equal(t, "error", resp.Status)
			require.Contains(t, resp.Error, tc.wantErr)

			// Nothing was persisted.
			lw := do(t, router, http.MethodGet, "/estudantes", "")
			require.JSONEq(t, `[]`, lw.Body.String())
		})
	}
}

// A zero nota or sala is a present value, not a missing field.
func TestCreate_ZeroValuesAreValid(t *testing.T) {
	router := newTestRouter(t)

	body := `{"nome": "Ana", "idade": 20, "notaPrimeiroSemestre": 0, "notaSegundoSemestre": 0, "nomeProfessor": "Silva", "numeroSala": 0}`
	w := do(t, router, http.MethodPost, "/estudantes", body)
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeEstudante(t, w)
	require.Zero(t, created.NotaPrimeiroSemestre)
	require.Zero(t, created.NumeroSala)
}

func TestInvalidIDSegment(t *testing.T) {
	router := newTestRouter(t)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w := do(t, router, method, "/estudantes/abc", "")
		require.Equal(t, http.StatusBadRequest, w.Code, method)
		require.Contains(t, w.Body.String(), "invalid id")
	}

	w := do(t, router, http.MethodPut, "/estudantes/abc", anaBody)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid id")
}

func TestUpdate_ReplacesRecord(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/estudantes", anaBody)

	updated := `{
		"nome": "Ana Clara",
		"idade": 21,
		"notaPrimeiroSemestre": 7.0,
		"notaSegundoSemestre": 6.5,
		"nomeProfessor": "Souza",
		"numeroSala": 205
	}`
	w := do(t, router, http.MethodPut, "/estudantes/1", updated)
	require.Equal(t, http.StatusOK, w.Code)

	echoed := decodeEstudante(t, w)
	require.EqualValues(t, 1, echoed.ID)
	require.Equal(t, "Ana Clara", echoed.Nome)
	require.Equal(t, 205, echoed.NumeroSala)

	// The store reflects the replacement.
	w = do(t, router, http.MethodGet, "/estudantes/1", "")
	require.Equal(t, echoed, decodeEstudante(t, w))
}

func TestUpdate_AbsentID_NotFoundWithoutMutation(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/estudantes", anaBody)

	w := do(t, router, http.MethodPut, "/estudantes/999", anaBody)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"message": "Estudante não encontrado"}`, w.Body.String())

	// Store state is unchanged.
	w = do(t, router, http.MethodGet, "/estudantes", "")
	var list []types.Estudante
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "Ana", list[0].Nome)
}

func TestUpdate_ValidationRunsBeforePersistence(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/estudantes", anaBody)

	w := do(t, router, http.MethodPut, "/estudantes/1", `{"nome": "Só Nome"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "is required")

	// The existing record is untouched.
	w = do(t, router, http.MethodGet, "/estudantes/1", "")
	require.Equal(t, "Ana", decodeEstudante(t, w).Nome)
}

func TestDelete_RepeatedIsIdempotent(t *testing.T) {
	router := newTestRouter(t)

	do(t, router, http.MethodPost, "/estudantes", anaBody)

	for i := 0; i < 2; i++ {
		w := do(t, router, http.MethodDelete, "/estudantes/1", "")
		require.Equal(t, http.StatusNoContent, w.Code)
		require.Empty(t, w.Body.String())
	}
}

// failingStorage satisfies storage.Storage and fails every call, to
// exercise the persistence-failure paths.
type failingStorage struct{ err error }

func (f failingStorage) ListEstudantes(context.Context) ([]types.Estudante, error) {
	return nil, f.err
}

func (f failingStorage) GetEstudanteByID(context.Context, int64) (types.Estudante, error) {
	return types.Estudante{}, f.err
}

func (f failingStorage) CreateEstudante(context.Context, types.Estudante) (int64, error) {
	return 0, f.err
}

func (f failingStorage) UpdateEstudanteByID(context.Context, int64, types.Estudante) (int64, error) {
	return 0, f.err
}

func (f failingStorage) DeleteEstudanteByID(context.Context, int64) (int64, error) {
	return 0, f.err
}

func (f failingStorage) Close() error { return nil }

func TestPersistenceFailure_MapsTo500WithoutLeaking(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:3306: connection refused")
	router := newRouter(failingStorage{err: cause})

	cases := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/estudantes", ""},
		{http.MethodGet, "/estudantes/1", ""},
		{http.MethodPost, "/estudantes", anaBody},
		{http.MethodPut, "/estudantes/1", anaBody},
		{http.MethodDelete, "/estudantes/1", ""},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := do(t, router, tc.method, tc.path, tc.body)
			require.Equal(t, http.StatusInternalServerError, w.Code)
			require.JSONEq(t, `{"status": "error", "error": "internal server error"}`, w.Body.String())

			// The store error never reaches the client.
			require.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}
