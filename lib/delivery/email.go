package delivery

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"netentreprise-backend/lib/assert"
	"netentreprise-backend/lib/declaration"
	"netentreprise-backend/lib/telemetry"

	"github.com/jordan-wright/email"
)

const report_email_save = "email.save"

type EmailConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

// EmailSaver sends one mail per run with every statement attached, nothing
// is sent when there is no bill.
type EmailSaver struct {
	Config EmailConfig
	tel    telemetry.API
}

func NewEmailSaver(config EmailConfig, tel telemetry.API) EmailSaver {
	assert.NotNil(tel)
	return EmailSaver{Config: config, tel: telemetry.NewScopedAPI("delivery", tel)}
}

func (s EmailSaver) message(bills []declaration.Bill, opts Options) (*email.Email, error) {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("net-entreprises <%s>", s.Config.EmailAddress)
	mail.To = s.Config.To
	mail.Subject = fmt.Sprintf("%d nouvelle(s) déclaration(s) URSSAF", len(bills))

	var body strings.Builder
	body.WriteString("Les déclarations suivantes ont été récupérées :\n\n")
	for _, bill := range bills {
		body.WriteString(fmt.Sprintf(
			"- %s : %s € (%s)\n",
			bill.Filename,
			FormatAmount(bill.Amount),
			bill.Date.Format("02/01/2006"),
		))
		_, err := mail.Attach(bytes.NewReader(bill.Content), bill.Filename, opts.contentType())
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", bill.Filename, err)
		}
	}
	mail.Text = []byte(body.String())
	return mail, nil
}

func (s EmailSaver) Save(ctx context.Context, bills []declaration.Bill, opts Options) error {
	if len(bills) == 0 {
		return nil
	}
	mail, err := s.message(bills, opts)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server, s.Config.Port)
	err = mail.Send(
		addr,
		smtp.PlainAuth("", s.Config.EmailAddress, s.Config.Password, s.Config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		s.tel.ReportBroken(report_email_save, err, addr)
		return fmt.Errorf("send statements: %w", err)
	}
	s.tel.ReportCount(report_email_save, int64(len(bills)))
	return nil
}
