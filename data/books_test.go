package data

import (
	"strings"
	"testing"

	"github.com/emzola/libris/internal/validator"
)

func TestValidateBook(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		author string
		errors map[string]string
	}{
		{name: "valid", title: "Dune", author: "Frank Herbert"},
		{
			name:   "blank",
			title:  "   ",
			author: "",
			errors: map[string]string{"title": "must be provided", "author": "must be provided"},
		},
		{
			name:   "too short",
			title:  "D",
			author: "F",
			errors: map[string]string{
				"title":  "must be between 2 and 100 characters",
				"author": "must be between 2 and 50 characters",
			},
		},
		{
			name:   "too long",
			title:  strings.Repeat("t", 101),
			author: strings.Repeat("a", 51),
			errors: map[string]string{
				"title":  "must be between 2 and 100 characters",
				"author": "must be between 2 and 50 characters",
			},
		},
		{name: "upper bounds", title: strings.Repeat("t", 100), author: strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := validator.New()
			ValidateBook(v, tt.title, tt.author)
			if len(v.Errors) != len(tt.errors) {
				t.Fatalf("expected %d errors; got %v", len(tt.errors), v.Errors)
			}
			for k, want := range tt.errors {
				if got := v.Errors[k]; got != want {
					t.Errorf("%s: expected %q; got %q", k, want, got)
				}
			}
		})
	}
}

func TestValidateBorrower(t *testing.T) {
	v := validator.New()
	ValidateBorrower(v, " ")
	if v.Errors["borrowerName"] != "must be provided" {
		t.Errorf("expected borrowerName error; got %v", v.Errors)
	}
	v = validator.New()
	ValidateBorrower(v, "Alice")
	if !v.Valid() {
		t.Errorf("expected no errors; got %v", v.Errors)
	}
}

func TestBorrowReturn(t *testing.T) {
	b := &Book{Available: true}
	b.Borrow("Alice")
	if b.Available || b.BorrowedBy != "Alice" {
		t.Fatalf("expected borrowed by Alice; got %+v", b)
	}
	b.Return()
	if !b.Available || b.BorrowedBy != "" {
		t.Fatalf("expected available; got %+v", b)
	}
	b.Return()
	if !b.Available || b.BorrowedBy != "" {
		t.Fatalf("expected second return to keep the book available; got %+v", b)
	}
}
