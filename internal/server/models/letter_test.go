package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLetter_Content(t *testing.T) {
	l := &LetterContent{
		ID:              "l1",
		SerialNumber:    "A-17",
		IssueDate:       "2024-05-01",
		Body:            "<p>hi</p>",
		VerificationURL: "https://verify.example/l1",
		Fields:          map[string]string{"Recipient": "Ada"},
	}
	c := l.Content([]byte{1, 2})

	assert.Equal(t, "A-17", c.SerialNumber)
	assert.Equal(t, "2024-05-01", c.IssueDate)
	assert.Equal(t, "<p>hi</p>", c.BodyMarkup)
	assert.Equal(t, "https://verify.example/l1", c.VerificationURL)
	assert.Equal(t, []byte{1, 2}, c.Signature)
	assert.Equal(t, "Ada", c.Fields["Recipient"])
}
