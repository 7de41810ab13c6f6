// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendRegistrationNotice(username string) error
	SendActivationNotice(toEmail, username string) error
}

type emailService struct {
	dialer        *gomail.Dialer
	senderEmail   string
	operatorEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail, operatorEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	return &emailService{
		dialer:        d,
		senderEmail:   senderEmail,
		operatorEmail: operatorEmail,
	}
}

// SendRegistrationNotice tells the operator a new account is waiting for
// manual activation.
func (s *emailService) SendRegistrationNotice(username string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", s.operatorEmail)
	m.SetHeader("Subject", "New account pending activation")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>New Registration</h2>
			<p>User <strong>%s</strong> just registered and is waiting for activation.</p>
			<p>Open the admin dashboard to activate the account.</p>
		</div>
	`, username)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send registration notice for %s: %v\n", username, err)
		return err
	}

	fmt.Printf("[MAILER] Registration notice sent for %s\n", username)
	return nil
}

// SendActivationNotice tells the user their account has been switched on.
func (s *emailService) SendActivationNotice(toEmail, username string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your account is active")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>You're in, %s!</h2>
			<p>Your account has been activated. Log in and start chatting.</p>
			<p>If you didn't register, please ignore this email.</p>
		</div>
	`, username)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send activation notice to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Activation notice sent to %s\n", toEmail)
	return nil
}
