package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderPlaced          = "order.placed"
	TopicOrderStatusChanged   = "order.status_changed"
	TopicOrderCompleted       = "order.completed"
	TopicOrderCancelled       = "order.cancelled"
	TopicReservationCreated   = "reservation.created"
	TopicReservationConfirmed = "reservation.confirmed"
	TopicReservationCancelled = "reservation.cancelled"
	TopicReservationNoShow    = "reservation.no_show"
	TopicInventoryLowStock    = "inventory.low_stock"
	TopicUserSignedUp         = "user.signed_up"
	TopicReviewCreated        = "review.created"
	TopicLoyaltyPointsExpired = "loyalty.points_expired"
)

// DefaultTopics returns the topics customers can receive email for.
func DefaultTopics() []string {
	return []string{
		TopicOrderPlaced,
		TopicOrderStatusChanged,
		TopicOrderCompleted,
		TopicOrderCancelled,
		TopicReservationCreated,
		TopicReservationConfirmed,
		TopicReservationCancelled,
	}
}

// Known reports whether topic is one the platform emits.
func Known(topic string) bool {
	switch topic {
	case TopicOrderPlaced, TopicOrderStatusChanged, TopicOrderCompleted, TopicOrderCancelled,
		TopicReservationCreated, TopicReservationConfirmed, TopicReservationCancelled, TopicReservationNoShow,
		TopicInventoryLowStock, TopicUserSignedUp, TopicReviewCreated, TopicLoyaltyPointsExpired:
		return true
	}
	return false
}
