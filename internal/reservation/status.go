package reservation

import dbgen "github.com/noah-isme/backend-resto/internal/db/gen"

var lifecycle = map[dbgen.ReservationStatus][]dbgen.ReservationStatus{
	dbgen.ReservationStatusPending:   {dbgen.ReservationStatusConfirmed, dbgen.ReservationStatusCancelled},
	dbgen.ReservationStatusConfirmed: {dbgen.ReservationStatusCompleted, dbgen.ReservationStatusCancelled, dbgen.ReservationStatusNoShow},
}

// CanTransition reports whether a reservation may move from one status to another.
func CanTransition(from, to dbgen.ReservationStatus) bool {
	for _, s := range lifecycle[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Active reports whether the reservation still holds seats.
func Active(s dbgen.ReservationStatus) bool {
	return s == dbgen.ReservationStatusPending || s == dbgen.ReservationStatusConfirmed
}
