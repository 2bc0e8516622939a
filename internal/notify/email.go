package notify

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/spigell/arxiv-digest/internal/arxiv"

	"go.uber.org/zap"
)

// EmailSender delivers the digest as a plain-text email over SMTP with
// STARTTLS and plain authentication.
type EmailSender struct {
	SMTPServer string
	SMTPPort   int
	From       string
	Password   string
	To         string

	logger *zap.Logger

	// sendMail is swapped in tests to avoid a real SMTP round trip.
	sendMail func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailSender(server string, port int, from, password, to string, logger *zap.Logger) *EmailSender {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EmailSender{
		SMTPServer: server,
		SMTPPort:   port,
		From:       from,
		Password:   password,
		To:         to,
		logger:     logger,
		sendMail:   smtp.SendMail,
	}
}

// SendDigest renders and delivers the digest email. An empty paper list
// still produces a delivery with an explicit no-papers body.
func (s *EmailSender) SendDigest(papers *arxiv.Papers) error {
	now := time.Now()
	msg := buildEmailMessage(s.From, s.To, digestSubject(papers, now), digestBody(papers, now))

	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	auth := smtp.PlainAuth("", s.From, s.Password, s.SMTPServer)

	if err := s.sendMail(addr, auth, s.From, []string{s.To}, msg); err != nil {
		return fmt.Errorf("sending digest email: %w", err)
	}

	s.logger.Info("email sent", zap.String("to", s.To), zap.Int("papers", papers.Len()))

	return nil
}

func buildEmailMessage(from, to, subject, body string) []byte {
	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
	}

	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}
