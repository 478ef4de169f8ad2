package views

import (
	"time"

	"sebasite/internal/records"
)

// DefaultSecondsPerItem paces the ticker when no pace is configured.
const DefaultSecondsPerItem = 5

// Ticker is the horizontally scrolling news strip. Items holds the list
// twice so the scroll loops without a visible seam.
type Ticker struct {
	Visible  bool           `json:"visible"`
	Items    []records.News `json:"items"`
	Duration time.Duration  `json:"-"`
	Seconds  float64        `json:"duration_seconds"`
}

// NewTicker builds the ticker for newest-first news. One full loop takes
// len(news) × perItem.
func NewTicker(news []records.News, perItem time.Duration) Ticker {
	if len(news) == 0 {
		return Ticker{Items: []records.News{}}
	}
	if perItem <= 0 {
		perItem = DefaultSecondsPerItem * time.Second
	}
	items := make([]records.News, 0, 2*len(news))
	items = append(items, news...)
	items = append(items, news...)
	duration := time.Duration(len(news)) * perItem
	return Ticker{
		Visible:  true,
		Items:    items,
		Duration: duration,
		Seconds:  duration.Seconds(),
	}
}
