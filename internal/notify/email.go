package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

const defaultDedupeTTL = 24 * time.Hour

// EmailNotifier turns customer-facing events into transactional email.
// Topics maps a topic to whether it is sent; a nil map enables
// events.DefaultTopics plus the welcome mail.
type EmailNotifier struct {
	Mail      common.EmailSender
	Topics    map[string]bool
	Dedupe    Dedupe
	DedupeTTL time.Duration
	Log       zerolog.Logger
}

// TopicToggles enables exactly the listed topics. An empty list yields the
// default set.
func TopicToggles(topics []string) map[string]bool {
	if len(topics) == 0 {
		topics = append(events.DefaultTopics(), events.TopicUserSignedUp)
	}
	out := make(map[string]bool, len(topics))
	for _, t := range topics {
		if events.Known(t) {
			out[t] = true
		}
	}
	return out
}

func (n EmailNotifier) enabled(topic string) bool {
	if n.Topics == nil {
		return TopicToggles(nil)[topic]
	}
	return n.Topics[topic]
}

// Notify implements events.Notifier.
func (n EmailNotifier) Notify(ctx context.Context, ev dbgen.DomainEvent) error {
	if n.Mail == nil || !n.enabled(ev.Topic) {
		return nil
	}
	info, _ := tenant.InfoFrom(ctx)
	msg, ok, err := render(info, ev)
	if err != nil {
		return fmt.Errorf("email notify: %w", err)
	}
	if !ok {
		return nil
	}

	key := "email:" + common.UUIDString(ev.ID)
	if n.Dedupe != nil {
		ttl := n.DedupeTTL
		if ttl <= 0 {
			ttl = defaultDedupeTTL
		}
		first, err := n.Dedupe.Claim(ctx, key, ttl)
		if err != nil {
			n.Log.Warn().Err(err).Str("topic", ev.Topic).Msg("email dedupe unavailable")
		} else if !first {
			return nil
		}
	}
	if err := n.Mail.Send(ctx, msg); err != nil {
		if n.Dedupe != nil {
			_ = n.Dedupe.Release(ctx, key)
		}
		return fmt.Errorf("email notify %s: %w", ev.Topic, err)
	}
	return nil
}
