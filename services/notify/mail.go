package notifysvc

import (
	"net/mail"
	texttmpl "text/template"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/wizard"
)

var warningTmpl = texttmpl.Must(texttmpl.New("warning").Parse(`Hi {{.Name}},

{{.Message}}.

The rest of your changes were saved. You can upload the file again from the dashboard.
`))

// MailNotifier emails secondary warnings to the educator, who may have left the wizard already.
type MailNotifier struct {
	mailSvc core.EmailService
}

var _ wizard.Notifier = (*MailNotifier)(nil)

func NewMailNotifier(mailSvc core.EmailService) *MailNotifier {
	return &MailNotifier{mailSvc: mailSvc}
}

func (n *MailNotifier) Notify(notif wizard.Notification) {
	if !notif.Secondary || notif.Level != wizard.LevelWarning || notif.Owner.Email == "" {
		return
	}
	name := notif.Owner.Name
	if name == "" {
		name = notif.Owner.Username
	}
	n.mailSvc.SendMessages(&core.EmailMessage{
		To:       []mail.Address{{Name: name, Address: notif.Owner.Email}},
		Subject:  notif.Message,
		Template: warningTmpl,
		TemplateData: map[string]string{
			"Name":    name,
			"Message": notif.Message,
		},
	})
}
