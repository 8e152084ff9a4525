package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ObjectUploader stores raw bytes under a key.
type ObjectUploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// OutboxMailer writes each email as an .eml object instead of sending it.
// Objects are keyed {recipient}/{timestamp}-{uuid}.eml.
type OutboxMailer struct {
	objects ObjectUploader
	from    string
	now     func() time.Time
}

func NewOutboxMailer(objects ObjectUploader, from string) *OutboxMailer {
	return &OutboxMailer{objects: objects, from: from, now: time.Now}
}

func (m *OutboxMailer) SendVerification(ctx context.Context, to, username, link string) error {
	now := m.now().UTC()

	msg, err := Verification(m.from, to, username, link, now)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("%s/%s-%s.eml", to, now.Format("20060102T150405Z"), uuid.NewString())
	if err := m.objects.Upload(ctx, key, msg.Bytes(), "message/rfc822"); err != nil {
		return fmt.Errorf("outbox store: %w", err)
	}
	return nil
}
