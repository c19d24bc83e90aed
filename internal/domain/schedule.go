package domain

import "time"

// ScheduleVersion is a versioned programming grid for a market.
// A spot resolves to the most recently effective version whose
// validity range contains its air date.
type ScheduleVersion struct {
	ID             int64      `db:"schedule_id"     json:"schedule_id"`
	MarketCode     string     `db:"market_code"     json:"market_code"`
	ScheduleName   string     `db:"schedule_name"   json:"schedule_name"`
	EffectiveStart time.Time  `db:"effective_start" json:"effective_start"`
	EffectiveEnd   *time.Time `db:"effective_end"   json:"effective_end,omitempty"` // nil = open-ended
	CreatedAt      time.Time  `db:"created_at"      json:"created_at"`
}

// LanguageBlock is a named, language-tagged segment of the programming
// grid. Blocks are immutable once published; multiple blocks may be
// active concurrently for different languages.
type LanguageBlock struct {
	ID           int64  `db:"block_id"      json:"block_id"`
	ScheduleID   int64  `db:"schedule_id"   json:"schedule_id"`
	DayOfWeek    string `db:"day_of_week"   json:"day_of_week"`
	AllDays      bool   `db:"all_days"      json:"all_days"`
	TimeStart    string `db:"time_start"    json:"time_start"` // "HH:MM:SS"
	TimeEnd      string `db:"time_end"      json:"time_end"`   // "HH:MM:SS"
	LanguageCode string `db:"language_code" json:"language_code"`
	BlockName    string `db:"block_name"    json:"block_name"`
	BlockType    string `db:"block_type"    json:"block_type"`
	DisplayOrder int    `db:"display_order" json:"display_order"`
}
