package notes

import (
	"errors"
	"testing"
)

func TestNewServiceRequiresDatabase(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	if !errors.Is(err, errMissingDatabase) {
		t.Fatalf("expected missing database error, got %v", err)
	}
}

func TestServiceErrorCarriesCodeAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := newServiceError(opCreate, "note_insert_failed", cause)

	var serviceErr *ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("expected *ServiceError, got %T", err)
	}
	if serviceErr.Code() != "notes.create.note_insert_failed" {
		t.Fatalf("unexpected code %q", serviceErr.Code())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through the wrap chain")
	}
}

func TestServiceErrorWrapsDomainSentinels(t *testing.T) {
	err := newServiceError(opGet, "not_found", ErrNoteNotFound)
	if !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound through the wrap chain, got %v", err)
	}

	err = newServiceError(opCreate, "slug_taken", ErrSlugTaken)
	if !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken through the wrap chain, got %v", err)
	}
}
