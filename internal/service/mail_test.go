package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-platform/internal/logging"
	"github.com/iliyamo/course-platform/internal/model"
	"github.com/iliyamo/course-platform/internal/queue"
)

var mailUser = &model.User{ID: "u1", Email: "a@x.com", FirstName: "Ada", LastName: "Lovelace"}

func TestMailPublisher_PublishesEvents(t *testing.T) {
	var sent [][]byte
	p := NewMailPublisher("amqp://unused", "mail.requested", "http://localhost:5173/")
	p.send = func(_ context.Context, body []byte) error {
		sent = append(sent, body)
		return nil
	}

	require.NoError(t, p.SendVerification(context.Background(), mailUser, "vtok"))
	require.NoError(t, p.SendPasswordReset(context.Background(), mailUser, "rtok", time.Now().Add(time.Hour)))
	require.Len(t, sent, 2)

	var verify, reset queue.MailRequestedEvent
	require.NoError(t, json.Unmarshal(sent[0], &verify))
	require.NoError(t, json.Unmarshal(sent[1], &reset))

	assert.Equal(t, queue.MailVerifyEmail, verify.Kind)
	assert.Equal(t, "a@x.com", verify.To)
	assert.Equal(t, "Ada Lovelace", verify.Name)
	assert.Equal(t, "http://localhost:5173/verify-email?token=vtok", verify.Link)

	assert.Equal(t, queue.MailPasswordReset, reset.Kind)
	assert.Equal(t, "http://localhost:5173/reset-password?token=rtok", reset.Link)
	assert.NotEmpty(t, reset.ExpiresAt)
}

func TestMailPublisher_PropagatesSendError(t *testing.T) {
	p := NewMailPublisher("amqp://unused", "mail.requested", "http://localhost:5173")
	p.send = func(context.Context, []byte) error { return errors.New("broker down") }

	assert.Error(t, p.SendVerification(context.Background(), mailUser, "vtok"))
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewLogMailer(logging.New(&buf, "text", "info"), "https://courses.example")

	require.NoError(t, m.SendVerification(context.Background(), mailUser, "vtok"))
	assert.Contains(t, buf.String(), "kind=verify_email")
	assert.Contains(t, buf.String(), "https://courses.example/verify-email?token=vtok")
}
