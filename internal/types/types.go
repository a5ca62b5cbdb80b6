// Package types holds the shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, and utils can all import types without depending
// on each other.
package types

// Estudante is a student record as it exists in the store and on the wire.
// The json:"..." tags carry the API's field names; id is assigned by the
// store on insert and is never taken from a client payload.
type Estudante struct {
	ID                   int64   `json:"id"`
	Nome                 string  `json:"nome"`
	Idade                int     `json:"idade"`
	NotaPrimeiroSemestre float64 `json:"notaPrimeiroSemestre"`
	NotaSegundoSemestre  float64 `json:"notaSegundoSemestre"`
	NomeProfessor        string  `json:"nomeProfessor"`
	NumeroSala           int     `json:"numeroSala"`
}

// EstudantePayload is the inbound body for create and update requests.
//
// Every field is a pointer so that a zero value (nota 0.0, sala 0) is
// distinguishable from an absent key. With pointers, validate:"required"
// means "the key must be present", not "the value must be non-zero" —
// any value of the correct type is accepted, there are no range checks.
type EstudantePayload struct {
	Nome                 *string  `json:"nome"                 validate:"required"`
	Idade                *int     `json:"idade"                validate:"required"`
	NotaPrimeiroSemestre *float64 `json:"notaPrimeiroSemestre" validate:"required"`
	NotaSegundoSemestre  *float64 `json:"notaSegundoSemestre"  validate:"required"`
	NomeProfessor        *string  `json:"nomeProfessor"        validate:"required"`
	NumeroSala           *int     `json:"numeroSala"           validate:"required"`
}

// Estudante dereferences a validated payload into a record. The ID is left
// zero; the caller merges in the path id or the store-assigned id.
// Must only be called after validation — a nil field would panic here.
func (p EstudantePayload) Estudante() Estudante {
	return Estudante{
		Nome:                 *p.Nome,
		Idade:                *p.Idade,
		NotaPrimeiroSemestre: *p.NotaPrimeiroSemestre,
		NotaSegundoSemestre:  *p.NotaSegundoSemestre,
		NomeProfessor:        *p.NomeProfessor,
		NumeroSala:           *p.NumeroSala,
	}
}
