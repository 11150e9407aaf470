package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/course-platform/internal/logging"
	"github.com/iliyamo/course-platform/internal/model"
	"github.com/iliyamo/course-platform/internal/queue"
)

// Mailer requests transactional mails.  Implementations must not block on
// delivery; a returned error is logged by the caller and never fails the
// request that triggered the mail.
type Mailer interface {
	SendVerification(ctx context.Context, u *model.User, token string) error
	SendPasswordReset(ctx context.Context, u *model.User, token string, expires time.Time) error
}

// mailLinks builds the frontend URLs embedded in mails.
type mailLinks struct {
	base string
}

func (l mailLinks) verify(token string) string {
	return strings.TrimRight(l.base, "/") + "/verify-email?token=" + url.QueryEscape(token)
}

func (l mailLinks) reset(token string) string {
	return strings.TrimRight(l.base, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

func verificationEvent(links mailLinks, u *model.User, token string) queue.MailRequestedEvent {
	return queue.MailRequestedEvent{
		Kind:        queue.MailVerifyEmail,
		UserID:      u.ID,
		To:          u.Email,
		Name:        strings.TrimSpace(u.FirstName + " " + u.LastName),
		Token:       token,
		Link:        links.verify(token),
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func resetEvent(links mailLinks, u *model.User, token string, expires time.Time) queue.MailRequestedEvent {
	return queue.MailRequestedEvent{
		Kind:        queue.MailPasswordReset,
		UserID:      u.ID,
		To:          u.Email,
		Name:        strings.TrimSpace(u.FirstName + " " + u.LastName),
		Token:       token,
		Link:        links.reset(token),
		ExpiresAt:   expires.UTC().Format(time.RFC3339),
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// MailPublisher publishes mail requests to a durable RabbitMQ queue.  Each
// publish opens its own connection; mail traffic is low and this keeps the
// publisher free of reconnect state.
type MailPublisher struct {
	links mailLinks
	send  func(ctx context.Context, body []byte) error
}

func NewMailPublisher(amqpURL, queueName, frontendURL string) *MailPublisher {
	return &MailPublisher{
		links: mailLinks{base: frontendURL},
		send: func(ctx context.Context, body []byte) error {
			return publishAMQP(ctx, amqpURL, queueName, body)
		},
	}
}

func (p *MailPublisher) SendVerification(ctx context.Context, u *model.User, token string) error {
	return p.publish(ctx, verificationEvent(p.links, u, token))
}

func (p *MailPublisher) SendPasswordReset(ctx context.Context, u *model.User, token string, expires time.Time) error {
	return p.publish(ctx, resetEvent(p.links, u, token, expires))
}

func (p *MailPublisher) publish(ctx context.Context, ev queue.MailRequestedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal mail request: %w", err)
	}
	return p.send(ctx, body)
}

func publishAMQP(ctx context.Context, amqpURL, queueName string, body []byte) error {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// LogMailer records mail requests in the application log.  Used when no
// broker is configured.
type LogMailer struct {
	links mailLinks
	log   logging.Logger
}

func NewLogMailer(log logging.Logger, frontendURL string) *LogMailer {
	return &LogMailer{links: mailLinks{base: frontendURL}, log: log}
}

func (m *LogMailer) SendVerification(ctx context.Context, u *model.User, token string) error {
	ev := verificationEvent(m.links, u, token)
	m.log.Info(ctx, "mail requested", "kind", ev.Kind, "to", ev.To, "link", ev.Link)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, u *model.User, token string, expires time.Time) error {
	ev := resetEvent(m.links, u, token, expires)
	m.log.Info(ctx, "mail requested", "kind", ev.Kind, "to", ev.To, "link", ev.Link, "expires_at", ev.ExpiresAt)
	return nil
}
