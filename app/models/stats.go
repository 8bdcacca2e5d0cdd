package models

// DailyStats holds an aggregated count for a single day, used by the admin
// dashboard charts.
type DailyStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
