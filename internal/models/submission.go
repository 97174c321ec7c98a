package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SubmissionStatus follows the external lifecycle pending -> matched -> closed | expired.
type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionMatched SubmissionStatus = "matched"
	SubmissionClosed  SubmissionStatus = "closed"
	SubmissionExpired SubmissionStatus = "expired"
)

// Label capitalises the status for display ("pending" -> "Pending").
func (s SubmissionStatus) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// OccupancyStatus is what the scout observed about the property.
type OccupancyStatus string

const (
	OccupancyUnset    OccupancyStatus = ""
	OccupancyOccupied OccupancyStatus = "Occupied"
	OccupancyVacant   OccupancyStatus = "Vacant"
	OccupancyUnsure   OccupancyStatus = "Unsure"
)

// OccupancyOptions lists the selectable values in display order.
var OccupancyOptions = []OccupancyStatus{OccupancyOccupied, OccupancyVacant, OccupancyUnsure}

func (o OccupancyStatus) Valid() bool {
	switch o {
	case OccupancyUnset, OccupancyOccupied, OccupancyVacant, OccupancyUnsure:
		return true
	}
	return false
}

// SubmissionRecord is a persisted property observation. It is created once by a
// successful commit and never modified by the client afterwards.
type SubmissionRecord struct {
	ID                string           `json:"id" db:"id"`
	UserID            string           `json:"userId" db:"user_id"`
	PhotoURL          string           `json:"photoUrl" db:"photo_url"`
	Address           *string          `json:"address,omitempty" db:"address"`
	Latitude          *float64         `json:"latitude,omitempty" db:"latitude"`
	Longitude         *float64         `json:"longitude,omitempty" db:"longitude"`
	CellToken         string           `json:"cellToken,omitempty" db:"cell_token"`
	ContractorSignals []string         `json:"contractorSignals" db:"contractor_signals"`
	RealEstateSignals []string         `json:"realEstateSignals" db:"realestate_signals"`
	OccupancyStatus   OccupancyStatus  `json:"occupancyStatus" db:"occupancy_status"`
	Notes             string           `json:"notes" db:"notes"`
	Status            SubmissionStatus `json:"status" db:"status"`
	ActualEarnings    *decimal.Decimal `json:"actualEarnings,omitempty" db:"actual_earnings"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
}

// SubmissionLocation is the slice of a submission shown next to an earning.
type SubmissionLocation struct {
	Address   *string  `json:"address,omitempty" db:"address"`
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`
}
