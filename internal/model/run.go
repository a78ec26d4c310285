package model

import "time"

// Run summarizes one classification batch.
type Run struct {
	StartedAt  time.Time
	ByDecision map[Decision]int
	ByTag      map[string]int
	ID         string
	Certifier  string
	Total      int
	Automatic  int
	ToReview   int
}
