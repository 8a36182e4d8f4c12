package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/mail"
	"net/smtp"

	"vpe/internal/config"
	"vpe/internal/logger"
)

const welcomeHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #007BFF; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1>Bem-vindo ao VPE!</h1>
  </div>
  <div style="background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px;">
    <p>Olá <strong>{{.Name}}</strong>,</p>
    <p>Sua conta foi criada com sucesso. Agora você pode explorar empresas,
    acompanhar dados financeiros e salvar suas favoritas.</p>
    <p style="color: #666; font-size: 14px;">VPE - Conectando Investidores e Empresas</p>
  </div>
</body>
</html>`

const newCompanyHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #27ae60; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1>Empresa cadastrada!</h1>
  </div>
  <div style="background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px;">
    <p>Olá <strong>{{.Name}}</strong>,</p>
    <p>A empresa <strong>{{.Company}}</strong> foi cadastrada com sucesso e já
    está visível na lista de empresas.</p>
    <p style="color: #666; font-size: 14px;">VPE - Conectando Investidores e Empresas</p>
  </div>
</body>
</html>`

var (
	welcomeTmpl    = template.Must(template.New("welcome").Parse(welcomeHTML))
	newCompanyTmpl = template.Must(template.New("newCompany").Parse(newCompanyHTML))
)

// emailService sends notification emails over SMTP. Sending is strictly
// best-effort: failures are logged and surface only as a false sent
// flag, never as an error to the caller.
type emailService struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewEmailService creates a new EmailServicer from configuration.
// An empty SMTP host disables sending.
func NewEmailService(cfg *config.Config) EmailServicer {
	return &emailService{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.MailFrom,
	}
}

// SendWelcomeEmail sends the account-created notification.
func (s *emailService) SendWelcomeEmail(toEmail, toName string) bool {
	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, struct{ Name string }{Name: toName}); err != nil {
		logger.Get().Warnw("failed to render welcome email", "error", err)
		return false
	}
	return s.send(toEmail, "Bem-vindo ao VPE - Conta Criada com Sucesso!", body.String())
}

// SendNewCompanyEmail notifies a user that their company listing went live.
func (s *emailService) SendNewCompanyEmail(toEmail, toName, companyName string) bool {
	var body bytes.Buffer
	data := struct{ Name, Company string }{Name: toName, Company: companyName}
	if err := newCompanyTmpl.Execute(&body, data); err != nil {
		logger.Get().Warnw("failed to render new-company email", "error", err)
		return false
	}
	return s.send(toEmail, fmt.Sprintf("VPE - Empresa %s cadastrada", companyName), body.String())
}

func (s *emailService) send(to, subject, htmlBody string) bool {
	if s.host == "" {
		logger.Get().Debugw("email sending disabled, skipping", "to", to, "subject", subject)
		return false
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	// The envelope sender must be a bare address even when the From
	// header carries a display name.
	envelopeFrom := s.from
	if parsed, err := mail.ParseAddress(s.from); err == nil {
		envelopeFrom = parsed.Address
	}

	addr := s.host + ":" + s.port
	if err := smtp.SendMail(addr, auth, envelopeFrom, []string{to}, msg.Bytes()); err != nil {
		logger.Get().Warnw("failed to send email", "to", to, "subject", subject, "error", err)
		return false
	}

	logger.Get().Infow("email sent", "to", to, "subject", subject)
	return true
}
