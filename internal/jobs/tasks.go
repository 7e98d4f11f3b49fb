// Package jobs carries the asynq background tasks: loyalty credits that follow
// domain events and reservation reminders. The API enqueues through Client;
// the worker serves Handlers.
package jobs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

// Task types.
const (
	TypeLoyaltyAccrual      = "loyalty:accrue_order"
	TypeSignupBonus         = "loyalty:signup_bonus"
	TypeReviewBonus         = "loyalty:review_bonus"
	TypeReservationReminder = "reservation:reminder"
)

// Queues and their relative priority on the worker.
const (
	QueueLoyalty  = "loyalty"
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// Queues returns the asynq queue weights.
func Queues() map[string]int {
	return map[string]int{QueueCritical: 6, QueueLoyalty: 3, QueueDefault: 1}
}

// Payload is shared by every task type. SubjectID is the order, user, review
// or reservation the task is about.
type Payload struct {
	TenantID   string `json:"tenant_id"`
	SubjectID  string `json:"subject_id"`
	UserID     string `json:"user_id,omitempty"`
	ReferrerID string `json:"referrer_id,omitempty"`
}

func newTask(typ string, p Payload) (*asynq.Task, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, raw), nil
}

// decode rejects malformed payloads without retrying them.
func decode(t *asynq.Task) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if strings.TrimSpace(p.TenantID) == "" || strings.TrimSpace(p.SubjectID) == "" {
		return p, fmt.Errorf("%s: tenant and subject are required: %w", t.Type(), asynq.SkipRetry)
	}
	return p, nil
}
