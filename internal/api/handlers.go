package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/slot-booking/internal/appointment"
	"github.com/hackgods/slot-booking/internal/catalog"
	"github.com/hackgods/slot-booking/internal/schedule"
)

const (
	germanDate     = "02.01.2006"
	germanClock    = "15:04"
	germanDateTime = "02.01.2006 um 15:04"
)

func servicesHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Catalog())
	}
}

func slotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var day time.Time
		if q := r.URL.Query().Get("date"); q != "" {
			d, err := schedule.ParseDate(q, svc.Location())
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "Ungültiges Datum")
				return
			}
			day = d
		}

		busy, err := svc.BusyIntervals(r.Context(), day)
		if err != nil {
			loggerFrom(r).Error("list busy intervals", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]SlotResponse, 0, len(busy))
		for _, b := range busy {
			resp = append(resp, SlotResponse{
				StartTime: schedule.FormatTimestamp(b.Start),
				EndTime:   schedule.FormatTimestamp(b.End),
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func bookHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "Ungültige Anfrage")
			return
		}

		start, err := schedule.ParseLocal(req.StartTime, svc.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "Ungültige Startzeit")
			return
		}

		b, err := svc.Book(r.Context(), appointment.BookInput{
			Name:      req.Name,
			Phone:     req.Phone,
			Email:     req.Email,
			Service:   req.Service,
			StartTime: start,
		})
		if err != nil {
			handleBookError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, BookResponse{
			OK:        true,
			ID:        b.ID,
			StartTime: schedule.FormatTimestamp(b.StartTime),
			EndTime:   schedule.FormatTimestamp(b.EndTime),
		})
	}
}

func handleBookError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appointment.ErrUnknownService):
		writeError(w, http.StatusBadRequest, "unknown_service", "Unbekannter Service")
	case errors.Is(err, appointment.ErrMissingContact):
		writeError(w, http.StatusBadRequest, "missing_contact", "Name und Telefon sind erforderlich")
	case errors.Is(err, appointment.ErrWeekend):
		writeError(w, http.StatusBadRequest, "weekend", "Nur Werktage (Mo–Fr) erlaubt")
	case errors.Is(err, appointment.ErrInPast):
		writeError(w, http.StatusBadRequest, "in_past", "Termin liegt in der Vergangenheit")
	case errors.Is(err, appointment.ErrOutsideHours):
		writeError(w, http.StatusBadRequest, "outside_hours", "Außerhalb der Arbeitszeiten")
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", "Zeit bereits belegt")
	case errors.Is(err, appointment.ErrDayBeingBooked):
		writeError(w, http.StatusConflict, "day_being_booked", "Termin wird gerade gebucht, bitte erneut versuchen")
	default:
		loggerFrom(r).Error("book", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

var cancelPage = template.Must(template.New("cancel").Parse(`<!DOCTYPE html>
<html lang="de">
<head><meta charset="utf-8"><title>Stornierung</title></head>
<body>
{{if .Found}}<h3>Ihre Buchung für {{.Service}} am {{.When}} wurde erfolgreich storniert.</h3>
{{else}}<h3>Buchung nicht gefunden oder bereits storniert.</h3>
{{end}}</body>
</html>
`))

type cancelPageData struct {
	Found   bool
	Service string
	When    string
}

func cancelByTokenHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		token, err := uuid.Parse(chi.URLParam(r, "token"))
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			_ = cancelPage.Execute(w, cancelPageData{})
			return
		}

		b, err := svc.CancelByToken(r.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, appointment.ErrBookingNotFound), errors.Is(err, appointment.ErrAlreadyCanceled):
			w.WriteHeader(http.StatusNotFound)
			_ = cancelPage.Execute(w, cancelPageData{})
			return
		default:
			loggerFrom(r).Error("cancel by token", zap.Error(err))
			http.Error(w, "Interner Fehler", http.StatusInternalServerError)
			return
		}

		_ = cancelPage.Execute(w, cancelPageData{
			Found:   true,
			Service: serviceName(svc.Catalog(), b.Service),
			When:    b.StartTime.Format(germanDateTime),
		})
	}
}

func adminLoginHandler(user, password string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_form", "Ungültige Anfrage")
			return
		}

		// an empty password disables admin login
		if password == "" || !equal(r.PostForm.Get("user"), user) || !equal(r.PostForm.Get("password"), password) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Falsche Zugangsdaten")
			return
		}

		writeJSON(w, http.StatusOK, OKResponse{OK: true})
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func adminBookingsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookings, err := svc.ListBookings(r.Context())
		if err != nil {
			loggerFrom(r).Error("list bookings", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		cat := svc.Catalog()
		resp := make([]AdminBookingResponse, 0, len(bookings))
		for _, b := range bookings {
			resp = append(resp, AdminBookingResponse{
				ID:      b.ID,
				Name:    b.Name,
				Phone:   b.Phone,
				Service: serviceName(cat, b.Service),
				Date:    b.StartTime.Format(germanDate),
				Time:    b.StartTime.Format(germanClock),
				Start:   schedule.FormatTimestamp(b.StartTime),
				Status:  string(b.Status),
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func adminCancelHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be an integer")
			return
		}

		if _, err := svc.CancelBooking(r.Context(), id); err != nil {
			if errors.Is(err, appointment.ErrBookingNotFound) {
				writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
				return
			}
			loggerFrom(r).Error("admin cancel", zap.Int64("booking_id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, OKResponse{OK: true})
	}
}

// serviceName falls back to the key for services no longer in the catalog.
func serviceName(cat catalog.Catalog, key string) string {
	if s, err := cat.Lookup(key); err == nil {
		return s.Name
	}
	return key
}
