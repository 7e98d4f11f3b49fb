package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/noah-isme/backend-resto/internal/common"
	dbgen "github.com/noah-isme/backend-resto/internal/db/gen"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/tenant"
)

// render builds the customer email for ev. ok is false for topics that carry
// no recipient or are not customer facing.
func render(info tenant.Info, ev dbgen.DomainEvent) (common.Email, bool, error) {
	restaurant := info.Name
	if restaurant == "" {
		restaurant = "Your restaurant"
	}
	var (
		to, subject string
		lines       []string
	)
	switch ev.Topic {
	case events.TopicOrderPlaced:
		p, err := events.Decode[events.OrderPlaced](ev)
		if err != nil {
			return common.Email{}, false, err
		}
		to = p.Email
		subject = fmt.Sprintf("%s: order %s received", restaurant, p.Code)
		lines = append(lines, fmt.Sprintf("Thanks %s, we received your order %s.", firstName(p.Name), p.Code))
		for _, item := range p.Items {
			line := fmt.Sprintf("%d x %s", item.Qty, item.Name)
			if len(item.Modifiers) > 0 {
				line += " (" + strings.Join(item.Modifiers, ", ") + ")"
			}
			lines = append(lines, line)
		}
		lines = append(lines, "Total: "+pricing.Format(p.Total, p.Currency, info.Settings.CurrencyExponent))
	case events.TopicOrderStatusChanged, events.TopicOrderCompleted, events.TopicOrderCancelled:
		p, err := events.Decode[events.OrderStatus](ev)
		if err != nil {
			return common.Email{}, false, err
		}
		to = p.Email
		subject = fmt.Sprintf("%s: order %s is %s", restaurant, p.Code, humanStatus(p.To))
		lines = append(lines, fmt.Sprintf("Your order %s is now %s.", p.Code, humanStatus(p.To)))
		if p.Note != "" {
			lines = append(lines, p.Note)
		}
	case events.TopicReservationCreated, events.TopicReservationConfirmed, events.TopicReservationCancelled:
		p, err := events.Decode[events.Reservation](ev)
		if err != nil {
			return common.Email{}, false, err
		}
		to = p.Email
		when := p.StartsAt.In(info.Settings.Location()).Format("Mon 2 Jan 2006 15:04")
		subject = fmt.Sprintf("%s: reservation %s %s", restaurant, p.Code, humanStatus(p.Status))
		lines = append(lines,
			fmt.Sprintf("Hi %s, your table for %d on %s is %s.", firstName(p.Name), p.PartySize, when, humanStatus(p.Status)),
			"Reservation code: "+p.Code,
		)
	case events.TopicUserSignedUp:
		p, err := events.Decode[events.UserSignedUp](ev)
		if err != nil {
			return common.Email{}, false, err
		}
		to = p.Email
		subject = "Welcome to " + restaurant
		lines = append(lines, fmt.Sprintf("Hi %s, your account is ready. You earn points on every completed order.", firstName(p.Name)))
	default:
		return common.Email{}, false, nil
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return common.Email{}, false, nil
	}
	return common.Email{To: to, Subject: subject, Text: strings.Join(lines, "\n"), HTML: htmlLines(lines)}, true, nil
}

func htmlLines(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(l))
		b.WriteString("</p>")
	}
	return b.String()
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return "there"
}

func humanStatus(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

// ReservationReminder builds the reminder sent ahead of a confirmed booking.
func ReservationReminder(info tenant.Info, r events.Reservation) (common.Email, bool) {
	to := strings.TrimSpace(r.Email)
	if to == "" {
		return common.Email{}, false
	}
	restaurant := info.Name
	if restaurant == "" {
		restaurant = "Your restaurant"
	}
	when := r.StartsAt.In(info.Settings.Location()).Format("Mon 2 Jan 2006 15:04")
	lines := []string{
		fmt.Sprintf("Hi %s, this is a reminder of your table for %d on %s.", firstName(r.Name), r.PartySize, when),
		"Reservation code: " + r.Code,
	}
	return common.Email{
		To:      to,
		Subject: fmt.Sprintf("%s: see you soon", restaurant),
		Text:    strings.Join(lines, "\n"),
		HTML:    htmlLines(lines),
	}, true
}
