package domain

import "time"

type SearchLog struct {
	ID          int64         `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	Query       string        `json:"query"`
	Tokens      []string      `json:"tokens"`
	Intent      string        `json:"intent"`
	Region      string        `json:"region"`
	ResultCount int           `json:"result_count"`
	Duration    time.Duration `json:"duration"`
}
