package store

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// codeDocumentValidationFailure is returned by the server when a write
// violates the collection's $jsonSchema validator.
const codeDocumentValidationFailure = 121

// ValidationFailure is a write rejected by the collection validator.
type ValidationFailure struct {
	Messages []string
	Err      error
}

func (e *ValidationFailure) Error() string {
	return "document failed validation: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationFailure) Unwrap() error { return e.Err }

// classify maps driver errors onto the store's error vocabulary.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		var msgs []string
		for _, e := range we.WriteErrors {
			if e.Code == codeDocumentValidationFailure {
				msgs = append(msgs, e.Message)
			}
		}
		if len(msgs) > 0 {
			return &ValidationFailure{Messages: msgs, Err: err}
		}
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.HasErrorCode(codeDocumentValidationFailure) {
		return &ValidationFailure{Messages: []string{ce.Message}, Err: err}
	}
	return err
}
