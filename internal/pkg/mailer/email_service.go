// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"strings"

	"deep-research-be/pkg/store"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendReport(toEmail, query string, report *store.Report) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

// SendReport mails a finished research report.
func (s *emailService) SendReport(toEmail, query string, report *store.Report) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Research report: %s", query))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s</h2>
			<p>%s</p>
			<hr/>
			<pre style="white-space: pre-wrap;">%s</pre>
			<h3>Follow-up questions</h3>
			<p>%s</p>
		</div>
	`, query, report.ShortSummary, report.MarkdownReport,
		strings.Join(report.FollowUpQuestions, "<br/>"))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send report to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Report sent to %s\n", toEmail)
	return nil
}
