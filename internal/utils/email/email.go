package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/Dan9191/microfund/internal/config"
	"github.com/google/uuid"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Enabled reports whether an SMTP server is configured
func (s *Sender) Enabled() bool {
	return s.cfg.MailEnabled()
}

// SendRepaymentReminder reminds a borrower that an approved loan is still outstanding
func (s *Sender) SendRepaymentReminder(to, username string, loanID uuid.UUID, amount decimal.Decimal, approvedAt time.Time) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Loan Repayment Reminder"
	e.Text = []byte(repaymentReminderBody(username, loanID, amount, approvedAt))
	return s.deliver(e, to)
}

// SendDepositNotification confirms a deposit into a savings goal
func (s *Sender) SendDepositNotification(to, username, goalName string, amount decimal.Decimal) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Deposit Notification"
	e.Text = []byte(depositBody(username, goalName, amount, time.Now()))
	return s.deliver(e, to)
}

func (s *Sender) deliver(e *email.Email, to string) error {
	if !s.Enabled() {
		s.logger.Debugf("SMTP disabled, skipping email to %s: %s", to, e.Subject)
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func repaymentReminderBody(username string, loanID uuid.UUID, amount decimal.Decimal, approvedAt time.Time) string {
	body := fmt.Sprintf("Dear %s,\n\n", username)
	body += fmt.Sprintf(
		"Your loan %s of $%s was funded on %s and has not been repaid yet.\n"+
			"Repaying on time raises your Trust Score by 10 points and increases your borrowing limit.\n",
		loanID, amount.StringFixed(2), approvedAt.Format("2006-01-02"),
	)
	body += "\nBest regards,\nMicroFund Africa"
	return body
}

func depositBody(username, goalName string, amount decimal.Decimal, at time.Time) string {
	body := fmt.Sprintf("Dear %s,\n\n", username)
	body += fmt.Sprintf(
		"Your savings goal %q has been credited with $%s.\n"+
			"Transaction time: %s\n",
		goalName, amount.StringFixed(2), at.Format("2006-01-02 15:04:05"),
	)
	body += "\nBest regards,\nMicroFund Africa"
	return body
}
