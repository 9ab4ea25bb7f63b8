package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
)

type BookingType string

const (
	BookingTable BookingType = "table"
	BookingParty BookingType = "party"
)

type Booking struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Phone     string        `json:"phone"`
	Guests    string        `json:"guests"`
	Date      string        `json:"date"`
	Time      string        `json:"time"`
	Type      BookingType   `json:"type"`
	Status    BookingStatus `json:"status"`
	Version   int64         `json:"version"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
