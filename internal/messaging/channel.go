// Package messaging はメール、Telegram、WhatsApp（Twilio）への送信を提供する。
package messaging

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout は外部APIへのリクエストのタイムアウト。
const DefaultTimeout = 15 * time.Second

// ErrNotConfigured は送信チャネルの認証情報が設定されていないことを表す。
var ErrNotConfigured = errors.New("connector not configured")

// Channel は送信チャネル。
type Channel int

const (
	ChannelEmail Channel = iota
	ChannelTelegram
	ChannelWhatsApp

	channelCount
)

var channelNames = [channelCount]string{
	ChannelEmail:    "email",
	ChannelTelegram: "telegram",
	ChannelWhatsApp: "whatsapp",
}

func (c Channel) String() string {
	if c < 0 || c >= channelCount {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

// ParseChannel はチャネル名を解析する。未知の名前の場合はokがfalseになる。
func ParseChannel(name string) (Channel, bool) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), true
		}
	}
	return 0, false
}

// Sender は1つのチャネルへの送信を行う。
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// Dispatcher はチャネルごとのSenderへ送信を振り分ける。
type Dispatcher struct {
	senders [channelCount]Sender
}

// NewDispatcher はDispatcherを生成する。
func NewDispatcher(email, telegram, whatsapp Sender) *Dispatcher {
	return &Dispatcher{senders: [channelCount]Sender{
		ChannelEmail:    email,
		ChannelTelegram: telegram,
		ChannelWhatsApp: whatsapp,
	}}
}

// Send は指定チャネルで送信する。Senderが未設定の場合はErrNotConfiguredを返す。
func (d *Dispatcher) Send(ctx context.Context, ch Channel, to, text string) error {
	if ch < 0 || ch >= channelCount {
		return fmt.Errorf("unknown channel: %s", ch)
	}
	sender := d.senders[ch]
	if sender == nil {
		return fmt.Errorf("%s: %w", ch, ErrNotConfigured)
	}
	return sender.Send(ctx, to, text)
}

// checkStatus は2xx以外のレスポンスをエラーにする。
func checkStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
