package messaging

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

const emailSubject = "AI Assistant Message"

// EmailConfig はSMTP送信の設定。
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string // 未設定の場合はUser
}

// EmailSender はSMTP（STARTTLS）でメールを送信する。
type EmailSender struct {
	config   EmailConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailSender はEmailSenderを生成する。
func NewEmailSender(config EmailConfig) *EmailSender {
	if config.Host == "" {
		config.Host = "smtp.gmail.com"
	}
	if config.Port == 0 {
		config.Port = 587
	}
	if config.From == "" {
		config.From = config.User
	}
	return &EmailSender{config: config, sendMail: smtp.SendMail}
}

// Send はtoへプレーンテキストのメールを送信する。
// smtp.SendMailはサーバーが対応していればSTARTTLSに切り替え、未暗号化の接続では認証しない。
func (s *EmailSender) Send(ctx context.Context, to, text string) error {
	if s.config.User == "" || s.config.Password == "" {
		return fmt.Errorf("email: %w", ErrNotConfigured)
	}
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)

	if err := s.sendMail(addr, auth, s.config.From, []string{to}, buildMessage(s.config.From, to, text)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildMessage(from, to, text string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", emailSubject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(text, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// compile-time interface check
var _ Sender = (*EmailSender)(nil)
