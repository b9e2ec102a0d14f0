package model

import (
	"strconv"
	"time"
)

// MediaID identifies a catalog entry
type MediaID string

// CastMember is a credited performer
type CastMember struct {
	Name      string
	Character string
}

// Media is the static descriptive content of a media-detail page.
// SourceURL is opaque: nothing in this module inspects or validates it.
type Media struct {
	ID              MediaID
	Title           string
	Year            int
	RuntimeMinutes  int
	Genres          []string
	Synopsis        string
	SourceURL       string
	Director        string
	Writers         []string
	ReleaseDate     time.Time
	ApprovalPercent int
	Cast            []CastMember
	Recommendations []MediaID
}

// Runtime formats RuntimeMinutes as "2h 49min"
func (m *Media) Runtime() string {
	hours, mins := m.RuntimeMinutes/60, m.RuntimeMinutes%60
	switch {
	case hours == 0:
		return strconv.Itoa(mins) + "min"
	case mins == 0:
		return strconv.Itoa(hours) + "h"
	default:
		return strconv.Itoa(hours) + "h " + strconv.Itoa(mins) + "min"
	}
}
