// Package store persists the operator-editable pieces of porchlight.
// Authentication state itself is deliberately process-local; only the
// magic-link email template lives in the database.
package store

import (
	"database/sql"
	"fmt"
)

// EmailTemplate is the rendered shape of the magic-link email. Blank
// fields fall back to the defaults at read time, so a partial save
// never produces an empty mail.
type EmailTemplate struct {
	Subject    string `json:"subject"`
	Heading    string `json:"heading"`
	Body       string `json:"body"`
	ButtonText string `json:"buttonText"`
	Footer     string `json:"footer"`
}

// DefaultEmailTemplate is used until an operator saves a custom one.
var DefaultEmailTemplate = EmailTemplate{
	Subject:    "Your magic sign-in link",
	Heading:    "Sign in to Porchlight",
	Body:       "Use the button below to sign in. This link expires in about 15 minutes and can only be used once.",
	ButtonText: "Sign in",
	Footer:     "If the button doesn't work, copy and paste this link into your browser:",
}

type TemplateStore struct {
	db *sql.DB
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// Get returns the stored template with blank fields filled from
// DefaultEmailTemplate. A missing row yields the defaults outright.
func (s *TemplateStore) Get() (EmailTemplate, error) {
	row := s.db.QueryRow(
		`SELECT subject, heading, body, button_text, footer FROM email_template WHERE id = 1`,
	)

	var t EmailTemplate
	err := row.Scan(&t.Subject, &t.Heading, &t.Body, &t.ButtonText, &t.Footer)
	if err == sql.ErrNoRows {
		return DefaultEmailTemplate, nil
	}
	if err != nil {
		return EmailTemplate{}, fmt.Errorf("get email template: %w", err)
	}

	return t.withDefaults(), nil
}

// Save upserts the template as the single row.
func (s *TemplateStore) Save(t EmailTemplate) error {
	_, err := s.db.Exec(
		`INSERT INTO email_template (id, subject, heading, body, button_text, footer, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT (id) DO UPDATE SET
		   subject = excluded.subject,
		   heading = excluded.heading,
		   body = excluded.body,
		   button_text = excluded.button_text,
		   footer = excluded.footer,
		   updated_at = excluded.updated_at`,
		t.Subject, t.Heading, t.Body, t.ButtonText, t.Footer,
	)
	if err != nil {
		return fmt.Errorf("save email template: %w", err)
	}
	return nil
}

func (t EmailTemplate) withDefaults() EmailTemplate {
	if t.Subject == "" {
		t.Subject = DefaultEmailTemplate.Subject
	}
	if t.Heading == "" {
		t.Heading = DefaultEmailTemplate.Heading
	}
	if t.Body == "" {
		t.Body = DefaultEmailTemplate.Body
	}
	if t.ButtonText == "" {
		t.ButtonText = DefaultEmailTemplate.ButtonText
	}
	if t.Footer == "" {
		t.Footer = DefaultEmailTemplate.Footer
	}
	return t
}
