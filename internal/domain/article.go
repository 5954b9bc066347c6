package domain

import "time"

// Article is a core entity describing a headline fetched from news providers.
type Article struct {
	Title    string
	URL      string
	Language string
	Country  string
	Source   string
	SeenAt   time.Time
}
