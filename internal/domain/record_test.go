package domain

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestFieldsValidate(t *testing.T) {
	valid := Fields{Name: "Jollof Rice", Country: "Nigeria", State: "Lagos", Tribe: "Yoruba"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid fields, got %v", err)
	}

	err := Fields{Name: " ", Country: "Ghana", Tribe: "\t"}.Normalize().Validate()
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{FieldName, FieldState, FieldTribe}
	if !reflect.DeepEqual(verr.Fields, want) {
		t.Fatalf("expected %v got %v", want, verr.Fields)
	}
}

func TestFieldsValidateRejectsInvalidUTF8(t *testing.T) {
	f := Fields{
		Name:        "Jollof \xff\xfe",
		Description: "bad \xc3",
		Country:     "Nigeria",
		State:       "Lagos",
		Tribe:       "Yorùbá",
	}
	err := f.Normalize().Validate()
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{FieldName, FieldDescription}
	if !reflect.DeepEqual(verr.Fields, want) {
		t.Fatalf("expected %v got %v", want, verr.Fields)
	}
	if verr.Reason == "" {
		t.Fatalf("expected a reason")
	}
}

func TestSubmissionPolicyAllows(t *testing.T) {
	p := DefaultSubmissionPolicy()
	if !p.Allows(ContentTypeJPEG) || !p.Allows(ContentTypePNG) {
		t.Fatalf("expected jpeg and png to be allowed")
	}
	if p.Allows("image/gif") {
		t.Fatalf("gif must be rejected")
	}
}

func TestFieldsNormalize(t *testing.T) {
	f := Fields{Name: "  Iyan ", Description: " pounded yam\n", Country: "Nigeria ", State: " Oyo", Tribe: "Yoruba"}.Normalize()
	if f.Name != "Iyan" || f.Description != "pounded yam" || f.Country != "Nigeria" || f.State != "Oyo" {
		t.Fatalf("unexpected normalized fields %+v", f)
	}
}

func TestErrorMatching(t *testing.T) {
	ref := AssetRef{ContentHash: ContentHash([]byte("x")), Location: "mem://x"}
	wrapped := fmt.Errorf("append: %w", PersistenceError{Asset: ref, Err: errors.New("disk full")})

	if !errors.Is(wrapped, ErrPersistence) {
		t.Fatalf("expected persistence error to match")
	}
	if errors.Is(wrapped, ErrUpload) || errors.Is(wrapped, ErrValidation) {
		t.Fatalf("unexpected match")
	}

	var perr PersistenceError
	if !errors.As(wrapped, &perr) || perr.Asset != ref {
		t.Fatalf("expected asset ref to survive wrapping, got %+v", perr)
	}

	if !errors.Is(fmt.Errorf("x: %w", NotFoundError{Resource: "record"}), ErrNotFound) {
		t.Fatalf("expected not found to match")
	}
}

func TestContentHashStable(t *testing.T) {
	a := ContentHash([]byte("semo and efo"))
	b := ContentHash([]byte("semo and efo"))
	c := ContentHash([]byte("semo and efo riro"))
	if a != b {
		t.Fatalf("hash not deterministic")
	}
	if a == c {
		t.Fatalf("different content produced the same hash")
	}
	if len(a) != len(HashAlgorithm)+1+64 {
		t.Fatalf("unexpected hash length %d", len(a))
	}
}
