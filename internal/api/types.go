package api

type BookRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Service   string `json:"service"`
	StartTime string `json:"start_time"`
}

type BookResponse struct {
	OK        bool   `json:"ok"`
	ID        int64  `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// SlotResponse is one busy interval, both ends as naive local timestamps.
type SlotResponse struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AdminBookingResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Start   string `json:"start"`
	Status  string `json:"status"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

// ErrorResponse carries a machine readable code and a message meant for the
// customer.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
