// Package models holds server-side records read from the template store.
package models

import "github.com/dmitrijs2005/letterdesk/internal/compose"

// LetterContent is the read-only view of a letter row owned by the host application.
// SignatureRef is an object key; an empty ref means no signature.
type LetterContent struct {
	ID              string            `db:"id"`
	TemplateID      string            `db:"template_id"`
	SerialNumber    string            `db:"serial_number"`
	IssueDate       string            `db:"issue_date"`
	Body            string            `db:"body"`
	VerificationURL string            `db:"verification_url"`
	SignatureRef    string            `db:"signature_ref"`
	Fields          map[string]string `db:"fields"`
}

// Content converts l into compositor input. The signature bytes are
// resolved separately from SignatureRef.
func (l *LetterContent) Content(signature []byte) compose.Content {
	return compose.Content{
		SerialNumber:    l.SerialNumber,
		IssueDate:       l.IssueDate,
		BodyMarkup:      l.Body,
		VerificationURL: l.VerificationURL,
		Signature:       signature,
		Fields:          l.Fields,
	}
}
