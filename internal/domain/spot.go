// Package domain defines the core entities for spot classification.
package domain

import "time"

// SpotType constants (traffic system spot type tags).
const (
	SpotTypeCommercial = "COM"
	SpotTypeProduction = "PRD"
	SpotTypeService    = "SVC"
	SpotTypePackage    = "PKG"
	SpotTypeBonus      = "BNS"
)

// RevenueType constants (traffic system revenue classification tags).
const (
	RevenueTypeTrade           = "Trade"
	RevenueTypePaidProgramming = "Paid Programming"
	RevenueTypeDirectResponse  = "Direct Response Sales"
	RevenueTypeInternalAdSales = "Internal Ad Sales"
)

// Spot is one aired or scheduled commercial occurrence.
// Spots are created by ingestion and are read-only to this service;
// only their Assignment is owned here.
type Spot struct {
	ID           int64     `db:"spot_id"      json:"spot_id"`
	MarketCode   string    `db:"market_code"  json:"market_code"`
	AirDate      time.Time `db:"air_date"     json:"air_date"`
	DayOfWeek    string    `db:"day_of_week"  json:"day_of_week"`
	TimeIn       string    `db:"time_in"      json:"time_in"`  // "HH:MM:SS"
	TimeOut      string    `db:"time_out"     json:"time_out"` // "HH:MM:SS", may carry a "1 day, " rollover prefix
	SpotType     string    `db:"spot_type"    json:"spot_type"`
	RevenueType  string    `db:"revenue_type" json:"revenue_type"`
	LanguageHint string    `db:"language_hint" json:"language_hint"` // advertiser-supplied, unreliable
	GrossRate    float64   `db:"gross_rate"   json:"gross_rate"`
	StationNet   float64   `db:"station_net"  json:"station_net"`
	AgencyName   string    `db:"agency_name"  json:"agency_name"`
	BillCode     string    `db:"bill_code"    json:"bill_code"`
}

// BroadcastYear returns the calendar year of the air date.
func (s *Spot) BroadcastYear() int {
	return s.AirDate.Year()
}
