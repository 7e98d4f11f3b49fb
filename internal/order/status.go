package order

import dbgen "github.com/noah-isme/backend-resto/internal/db/gen"

// Rank orders the forward statuses. Cancelled sits outside the chain.
func Rank(s dbgen.OrderStatus) int {
	switch s {
	case dbgen.OrderStatusPending:
		return 0
	case dbgen.OrderStatusAccepted:
		return 1
	case dbgen.OrderStatusPreparing:
		return 2
	case dbgen.OrderStatusReady:
		return 3
	case dbgen.OrderStatusCompleted:
		return 4
	case dbgen.OrderStatusCancelled:
		return -1
	default:
		return -2
	}
}

// Valid reports whether s is a known status.
func Valid(s dbgen.OrderStatus) bool { return Rank(s) > -2 }

// Terminal reports whether no further transition is possible.
func Terminal(s dbgen.OrderStatus) bool {
	return s == dbgen.OrderStatusCompleted || s == dbgen.OrderStatusCancelled
}

// CanTransition reports whether an order may move from one status to
// another. Forward moves may skip steps; cancellation is only possible
// before the kitchen starts.
func CanTransition(from, to dbgen.OrderStatus) bool {
	if !Valid(from) || !Valid(to) || from == to || Terminal(from) {
		return false
	}
	if to == dbgen.OrderStatusCancelled {
		return from == dbgen.OrderStatusPending || from == dbgen.OrderStatusAccepted
	}
	return Rank(to) > Rank(from)
}
