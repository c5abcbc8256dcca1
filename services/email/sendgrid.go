package emailsvc

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/tutordesk/core"
)

const sendTimeout = 30 * time.Second

// mailer is the part of the sendgrid client we use.
type mailer interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

type sendgridService struct {
	client     mailer
	from       *sgmail.Email
	subjPrefix string
	logger     core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) *sendgridService {
	return &sendgridService{
		client:     sendgrid.NewSendClient(conf.SendgridApiKey),
		from:       sgmail.NewEmail(conf.DefaultFromEmail.Name, conf.DefaultFromEmail.Address),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

// SendMessages delivers the messages one after the other, off the caller's goroutine.
func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	go func() {
		for _, msg := range messages {
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			if err := svc.deliver(ctx, msg); err != nil {
				svc.logger.Error("sending email", err, map[string]interface{}{"subject": msg.Subject})
			}
			cancel()
		}
	}()
}

// deliver skips messages without recipients or content.
func (svc *sendgridService) deliver(ctx context.Context, msg *core.EmailMessage) error {
	if err := msg.Render(); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		return nil
	}
	res, err := svc.client.SendWithContext(ctx, svc.prepare(*msg))
	if err != nil {
		return errors.Wrap(err, "calling sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid answered %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// prepare builds a plain text mail; the first To address opens the personalization.
func (svc *sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	first := msg.To[0]
	m := sgmail.NewSingleEmailPlainText(
		svc.from,
		svc.subjPrefix+msg.Subject,
		sgmail.NewEmail(first.Name, first.Address),
		msg.TextContent,
	)
	p := m.Personalizations[0]
	for _, to := range msg.To[1:] {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(sgmail.NewEmail(cc.Name, cc.Address))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(sgmail.NewEmail(bcc.Name, bcc.Address))
	}
	return m
}
