package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	pkghttp "TickerBot/pkg/http"
	applogger "TickerBot/pkg/logger"

	"golang.org/x/time/rate"
)

// Outcome is the result of one delivery attempt.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

const (
	ChannelTelegram = "telegram"
	ChannelDiscord  = "discord"
)

// Channel delivers a text message to one chat service.
type Channel interface {
	Name() string
	Send(ctx context.Context, text string) Outcome
}

// Telegram posts to the Bot API sendMessage method.
type Telegram struct {
	baseURL string
	token   string
	chatID  string
	client  *pkghttp.Client
	limiter *rate.Limiter
	l       *applogger.Logger
}

// NewTelegram creates a Telegram channel. perSecond <= 0 disables throttling.
func NewTelegram(baseURL, token, chatID string, perSecond float64, burst int, client *pkghttp.Client, l *applogger.Logger) *Telegram {
	return &Telegram{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		client:  client,
		limiter: newLimiter(perSecond, burst),
		l:       l,
	}
}

func (t *Telegram) Name() string { return ChannelTelegram }

func (t *Telegram) Send(ctx context.Context, text string) Outcome {
	if t.token == "" {
		return OutcomeSkipped
	}
	if t.chatID == "" {
		t.l.Warn("telegram: chat id is empty")
		return OutcomeSkipped
	}
	if text == "" {
		t.l.Warn("telegram: message is empty")
		return OutcomeSkipped
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	form := map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	return post(ctx, t.Name(), url, form, t.client, t.limiter, t.l)
}

// Discord posts to an incoming webhook.
type Discord struct {
	webhookURL string
	client     *pkghttp.Client
	limiter    *rate.Limiter
	l          *applogger.Logger
}

// NewDiscord creates a Discord channel. perSecond <= 0 disables throttling.
func NewDiscord(webhookURL string, perSecond float64, burst int, client *pkghttp.Client, l *applogger.Logger) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     client,
		limiter:    newLimiter(perSecond, burst),
		l:          l,
	}
}

func (d *Discord) Name() string { return ChannelDiscord }

func (d *Discord) Send(ctx context.Context, text string) Outcome {
	if d.webhookURL == "" {
		return OutcomeSkipped
	}
	if text == "" {
		d.l.Warn("discord: message is empty")
		return OutcomeSkipped
	}
	return post(ctx, d.Name(), d.webhookURL, map[string]string{"content": text}, d.client, d.limiter, d.l)
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func post(ctx context.Context, name, url string, form map[string]string, client *pkghttp.Client, limiter *rate.Limiter, l *applogger.Logger) Outcome {
	if err := limiter.Wait(ctx); err != nil {
		l.Warn(name+": rate limit wait aborted", applogger.Error(err))
		return OutcomeFailed
	}

	err := client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:  pkghttp.MethodPost,
		URL:     url,
		Headers: map[string]string{pkghttp.HeaderContentType: pkghttp.ContentTypeForm},
		Body:    form,
	}, io.Discard)
	if err != nil {
		var se *pkghttp.StatusError
		if errors.As(err, &se) {
			l.Warn(name+": delivery failed",
				applogger.Int("status", se.StatusCode),
				applogger.String("body", string(se.Body)),
			)
		} else {
			l.Warn(name+": network error", applogger.Error(err))
		}
		return OutcomeFailed
	}

	l.Info(name + ": message sent to chat")
	return OutcomeSent
}
