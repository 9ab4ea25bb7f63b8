// Package booking validates table and party reservation requests and lists
// the choices offered to guests.
package booking

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/johiruljahid/nsultan/internal/model"
)

const DateLayout = "2006-01-02"

// UpcomingDays is how many dates, starting today, are offered to guests.
const UpcomingDays = 7

var (
	guestOptions = []string{"2", "4", "6", "8", "12", "20+"}
	timeSlots    = []string{"12:00 PM", "02:00 PM", "07:00 PM", "09:00 PM"}
)

func GuestOptions() []string { return slices.Clone(guestOptions) }

func TimeSlots() []string { return slices.Clone(timeSlots) }

// UpcomingDates returns n consecutive dates starting at today.
func UpcomingDates(today time.Time, n int) []string {
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	out := make([]string, n)
	for i := range n {
		out[i] = start.AddDate(0, 0, i).Format(DateLayout)
	}
	return out
}

// Options is the payload behind the booking form pickers.
type Options struct {
	Guests []string `json:"guests"`
	Times  []string `json:"times"`
	Dates  []string `json:"dates"`
	Types  []string `json:"types"`
}

func NewOptions(today time.Time) Options {
	return Options{
		Guests: GuestOptions(),
		Times:  TimeSlots(),
		Dates:  UpcomingDates(today, UpcomingDays),
		Types:  []string{string(model.BookingTable), string(model.BookingParty)},
	}
}

// Request is a booking as submitted by a guest.
type Request struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Guests string `json:"guests"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Type   string `json:"type"`
}

// Normalize trims fields and defaults the type to table.
func (r *Request) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Guests = strings.TrimSpace(r.Guests)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	if r.Type == "" {
		r.Type = string(model.BookingTable)
	}
}

// Validate returns the problems with r, judged against today. Call Normalize first.
func Validate(r Request, today time.Time) []string {
	var problems []string
	if r.Name == "" {
		problems = append(problems, "name is required")
	}
	if r.Phone == "" {
		problems = append(problems, "phone is required")
	}
	if !validGuests(r.Guests) {
		problems = append(problems, "guests must be one of "+strings.Join(guestOptions, ", ")+" or a positive number")
	}
	if d, err := time.ParseInLocation(DateLayout, r.Date, today.Location()); err != nil {
		problems = append(problems, "date must be YYYY-MM-DD")
	} else {
		y, m, dd := today.Date()
		if d.Before(time.Date(y, m, dd, 0, 0, 0, 0, today.Location())) {
			problems = append(problems, "date must not be in the past")
		}
	}
	if !slices.Contains(timeSlots, r.Time) {
		problems = append(problems, "time must be one of "+strings.Join(timeSlots, ", "))
	}
	if r.Type != string(model.BookingTable) && r.Type != string(model.BookingParty) {
		problems = append(problems, "type must be table or party")
	}
	return problems
}

func validGuests(g string) bool {
	if slices.Contains(guestOptions, g) {
		return true
	}
	n, err := strconv.Atoi(g)
	return err == nil && n > 0
}
