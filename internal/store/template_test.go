package store

import (
	"testing"

	"github.com/ferncreek/porchlight/internal/database"
)

func setupTemplateStore(t *testing.T) *TemplateStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTemplateStore(db)
}

func TestTemplateDefaultsWhenUnset(t *testing.T) {
	s := setupTemplateStore(t)

	tpl, err := s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tpl != DefaultEmailTemplate {
		t.Errorf("got %+v, want defaults", tpl)
	}
}

func TestTemplateSaveAndGet(t *testing.T) {
	s := setupTemplateStore(t)

	saved := EmailTemplate{
		Subject:    "Custom subject",
		Heading:    "Hello",
		Body:       "Click below.",
		ButtonText: "Go",
		Footer:     "Or paste this link:",
	}
	if err := s.Save(saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	tpl, err := s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tpl != saved {
		t.Errorf("got %+v, want %+v", tpl, saved)
	}

	// Saving again replaces the single row.
	saved.Subject = "Second subject"
	if err := s.Save(saved); err != nil {
		t.Fatalf("second save: %v", err)
	}
	tpl, err = s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tpl.Subject != "Second subject" {
		t.Errorf("subject = %q, want %q", tpl.Subject, "Second subject")
	}
}

func TestTemplateBlankFieldsFallBack(t *testing.T) {
	s := setupTemplateStore(t)

	if err := s.Save(EmailTemplate{Subject: "Only subject"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	tpl, err := s.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if tpl.Subject != "Only subject" {
		t.Errorf("subject = %q, want %q", tpl.Subject, "Only subject")
	}
	if tpl.Heading != DefaultEmailTemplate.Heading {
		t.Errorf("heading = %q, want default", tpl.Heading)
	}
	if tpl.Footer != DefaultEmailTemplate.Footer {
		t.Errorf("footer = %q, want default", tpl.Footer)
	}
}
