package emailsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/mail"
	"testing"
	texttmpl "text/template"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutordesk/core"
)

var conf = &core.Config{
	AppName:          "Tutordesk",
	DefaultFromEmail: mail.Address{Name: "Tutordesk", Address: "noreply@tutordesk.test"},
}

func TestConsoleService(t *testing.T) {
	var buf bytes.Buffer
	svc := NewConsoleService(conf, log.New(&buf, "", 0))

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Jane", Address: "jane@test.com"}},
			Subject:      "Intro video",
			Template:     texttmpl.Must(texttmpl.New("t").Parse("Hi {{.}}")),
			TemplateData: "Jane",
		},
		&core.EmailMessage{Subject: "no recipient", BodyStr: "dropped"},
	)

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Hi Jane", sent[0].TextContent)
	assert.Contains(t, buf.String(), "Subject: [Tutordesk] Intro video")
	assert.Contains(t, buf.String(), `To: "Jane" <jane@test.com>`)
}

type fakeMailer struct {
	status int
	err    error
	sent   []*sgmail.SGMailV3
}

func (m *fakeMailer) SendWithContext(_ context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
	m.sent = append(m.sent, email)
	if m.err != nil {
		return nil, m.err
	}
	return &rest.Response{StatusCode: m.status, Body: `{"errors":[{"message":"bad"}]}`}, nil
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(conf, nil)
	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Jane", Address: "jane@test.com"}, {Address: "john@test.com"}},
		Bcc:         []mail.Address{{Address: "audit@test.com"}},
		Subject:     "Intro video",
		TextContent: "upload failed",
	})

	var body struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Subject          string `json:"subject"`
		Personalizations []struct {
			To []struct {
				Email string `json:"email"`
			} `json:"to"`
			Bcc []struct {
				Email string `json:"email"`
			} `json:"bcc"`
		} `json:"personalizations"`
		Content []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(sgmail.GetRequestBody(m), &body))
	assert.Equal(t, "noreply@tutordesk.test", body.From.Email)
	assert.Equal(t, "[Tutordesk] Intro video", body.Subject)
	require.Len(t, body.Personalizations, 1)
	require.Len(t, body.Personalizations[0].To, 2)
	assert.Equal(t, "jane@test.com", body.Personalizations[0].To[0].Email)
	assert.Equal(t, "john@test.com", body.Personalizations[0].To[1].Email)
	assert.Equal(t, "audit@test.com", body.Personalizations[0].Bcc[0].Email)
	require.Len(t, body.Content, 1)
	assert.Equal(t, "text/plain", body.Content[0].Type)
}

func TestSendgridService_deliver(t *testing.T) {
	msg := func() *core.EmailMessage {
		return &core.EmailMessage{To: []mail.Address{{Address: "jane@test.com"}}, Subject: "s", BodyStr: "body"}
	}
	tests := []struct {
		name      string
		mailer    *fakeMailer
		msg       *core.EmailMessage
		wantErr   string
		wantCalls int
	}{
		{name: "accepted", mailer: &fakeMailer{status: 202}, msg: msg(), wantCalls: 1},
		{name: "rejected", mailer: &fakeMailer{status: 400}, msg: msg(), wantErr: "sendgrid answered 400", wantCalls: 1},
		{name: "transport", mailer: &fakeMailer{err: errors.New("dial tcp")}, msg: msg(), wantErr: "dial tcp", wantCalls: 1},
		{name: "no recipient", mailer: &fakeMailer{status: 202}, msg: &core.EmailMessage{BodyStr: "body"}},
		{name: "no content", mailer: &fakeMailer{status: 202}, msg: &core.EmailMessage{To: []mail.Address{{Address: "jane@test.com"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSendgridService(conf, nil)
			svc.client = tt.mailer
			err := svc.deliver(context.Background(), tt.msg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, tt.mailer.sent, tt.wantCalls)
		})
	}
}
