// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendAnalysisCompleted(toEmail, analysisId string, qualityScore int) error
	SendAnalysisFailed(toEmail, analysisId, reason string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	clientURL   string // Used to construct result links
}

func NewEmailService(host string, port int, username, password, senderEmail, clientURL string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		clientURL:   clientURL,
	}
}

func (s *emailService) SendAnalysisCompleted(toEmail, analysisId string, qualityScore int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your Analysis Is Ready")

	resultLink := fmt.Sprintf("%s/analysis/%s", s.clientURL, analysisId)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Analysis Completed</h2>
			<p>Your requirements analysis has finished processing.</p>
			<p>Quality score: <b>%d</b></p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">View Result</a>
			<p>Or copy this link:</p>
			<p>%s</p>
		</div>
	`, qualityScore, resultLink, resultLink)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send completion mail to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Completion mail sent to %s\n", toEmail)
	return nil
}

func (s *emailService) SendAnalysisFailed(toEmail, analysisId, reason string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your Analysis Could Not Be Processed")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Analysis Failed</h2>
			<p>Analysis <code>%s</code> could not be completed.</p>
			<p>Reason: %s</p>
			<p>You can trigger a regeneration from the dashboard.</p>
		</div>
	`, analysisId, reason)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send failure mail to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Failure mail sent to %s\n", toEmail)
	return nil
}
