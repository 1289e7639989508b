package email_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackdek/stackdek/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	valid := email.SendEmailParams{
		SendTo:   "client@example.com",
		Subject:  "Invoice INV-0001",
		BodyHTML: "<p>hello</p>",
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*email.SendEmailParams)
	}{
		{"missing recipient", func(p *email.SendEmailParams) { p.SendTo = "" }},
		{"invalid recipient", func(p *email.SendEmailParams) { p.SendTo = "not-an-email" }},
		{"missing subject", func(p *email.SendEmailParams) { p.Subject = " " }},
		{"missing body", func(p *email.SendEmailParams) { p.BodyHTML = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), email.ErrInvalidParams)
		})
	}
}

func TestNewPostmarkClient_InvalidConfig(t *testing.T) {
	_, err := email.NewPostmarkClient(email.Config{})
	assert.ErrorIs(t, err, email.ErrInvalidConfig)

	_, err = email.NewPostmarkClient(email.Config{
		PostmarkServerToken:  "server",
		PostmarkAccountToken: "account",
		SenderEmail:          "not-an-email",
		SupportEmail:         "support@stackdek.app",
	})
	assert.ErrorIs(t, err, email.ErrInvalidConfig)
}

func TestDevSender_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	sender := email.NewDevSender(dir)

	err := sender.SendEmail(context.Background(), email.SendEmailParams{
		SendTo:   "client@example.com",
		Subject:  "Quote sent",
		BodyHTML: "<p>your quote</p>",
		Tag:      "quote-sent",
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var sawHTML, sawJSON bool
	for _, e := range entries {
		switch filepath.Ext(e.Name()) {
		case ".html":
			sawHTML = true
			assert.True(t, strings.Contains(e.Name(), "quote-sent"))
		case ".json":
			sawJSON = true
		}
	}
	assert.True(t, sawHTML)
	assert.True(t, sawJSON)
}

func TestDevSender_RejectsInvalidParams(t *testing.T) {
	sender := email.NewDevSender(t.TempDir())
	err := sender.SendEmail(context.Background(), email.SendEmailParams{})
	assert.ErrorIs(t, err, email.ErrInvalidParams)
}
