package booking

import (
	"errors"
	"fmt"
)

var (
	ErrNoDate          = errors.New("no date selected")
	ErrNoService       = errors.New("no service selected")
	ErrNoSlot          = errors.New("no time slot selected")
	ErrWeekend         = errors.New("only weekdays (Mon-Fri) can be booked")
	ErrUnknownService  = errors.New("unknown service")
	ErrSlotUnavailable = errors.New("time slot is not available")
	ErrRunOutOfRange   = errors.New("service does not fit into the remaining slots of the day")
)

// ValidationError is a local failure. Nothing was sent to the server.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error {
	return &ValidationError{Err: err}
}

// ConflictError is a booking the server refused. Detail is the server's
// message verbatim.
type ConflictError struct {
	Status int
	Detail string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking rejected (%d): %s", e.Status, e.Detail)
}

// NetworkError is a request that failed outright: connectivity, timeout, or
// a server fault.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// UserMessage converts err into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		switch netErr.Op {
		case OpServices:
			return "Fehler beim Laden der Services"
		case OpBusy:
			return "Fehler beim Laden der Termine"
		}
		return "Verbindungsfehler, bitte später erneut versuchen"
	}

	var conflict *ConflictError
	if errors.As(err, &conflict) {
		if conflict.Detail != "" {
			return conflict.Detail
		}
		return "Der Termin konnte nicht gebucht werden"
	}

	switch {
	case errors.Is(err, ErrNoService):
		return "Bitte Service auswählen"
	case errors.Is(err, ErrNoSlot):
		return "Bitte Uhrzeit wählen"
	case errors.Is(err, ErrNoDate):
		return "Bitte Datum wählen"
	case errors.Is(err, ErrWeekend):
		return "Nur Werktage (Mo–Fr) erlaubt"
	case errors.Is(err, ErrUnknownService):
		return "Unbekannter Service"
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrRunOutOfRange):
		return "Dieser Zeitraum ist nicht verfügbar"
	}
	return "Unerwarteter Fehler"
}
