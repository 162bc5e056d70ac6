package messaging

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestNewEmailSender_Defaults(t *testing.T) {
	s := NewEmailSender(EmailConfig{User: "bot@example.com", Password: "pw"})

	if s.config.Host != "smtp.gmail.com" {
		t.Errorf("Host = %q", s.config.Host)
	}
	if s.config.Port != 587 {
		t.Errorf("Port = %d", s.config.Port)
	}
	if s.config.From != "bot@example.com" {
		t.Errorf("From = %q, want SMTP user", s.config.From)
	}
}

func TestEmailSender_Send(t *testing.T) {
	s := NewEmailSender(EmailConfig{Host: "smtp.example.com", Port: 2525, User: "bot@example.com", Password: "pw", From: "ELORA <elora@example.com>"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	s.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	if err := s.Send(context.Background(), "friend@example.com", "line1\nline2"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotAddr != "smtp.example.com:2525" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "ELORA <elora@example.com>" {
		t.Errorf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "friend@example.com" {
		t.Errorf("to = %v", gotTo)
	}

	for _, want := range []string{
		"To: friend@example.com\r\n",
		"Subject: AI Assistant Message\r\n",
		"Content-Type: text/plain; charset=utf-8\r\n",
		"\r\n\r\nline1\r\nline2\r\n",
	} {
		if !strings.Contains(gotMsg, want) {
			t.Errorf("message should contain %q, got %q", want, gotMsg)
		}
	}
}

func TestEmailSender_NotConfigured(t *testing.T) {
	s := NewEmailSender(EmailConfig{User: "bot@example.com"})
	if err := s.Send(context.Background(), "a@example.com", "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

// TestEmailSender_RejectsHeaderInjection は宛先に改行を含む場合に送信しないことを確認する。
func TestEmailSender_RejectsHeaderInjection(t *testing.T) {
	s := NewEmailSender(EmailConfig{User: "u", Password: "p"})
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		t.Error("sendMail must not be called")
		return nil
	}

	if err := s.Send(context.Background(), "a@example.com\r\nBcc: x@example.com", "hi"); err == nil {
		t.Error("expected error")
	}
}

func TestEmailSender_SendError(t *testing.T) {
	s := NewEmailSender(EmailConfig{User: "u", Password: "p"})
	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("535 auth failed")
	}

	if err := s.Send(context.Background(), "a@example.com", "hi"); err == nil {
		t.Error("expected error")
	}
}
