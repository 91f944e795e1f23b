package dto

import "time"

type ProjectStatus struct {
	Name        string
	Visible     bool
	Members     []string
	Connections int
	ClockSynced int64
}

type StatusOutput struct {
	Username   string
	ListenAddr string
	Running    bool
	Projects   []ProjectStatus
}

type ActivityOutput struct {
	Project    string
	Kind       string
	Actor      string
	Text       string
	OccurredAt time.Time
}
