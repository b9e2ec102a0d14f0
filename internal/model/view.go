package model

import "time"

// ViewerID identifies one viewer session (one open media-detail page)
type ViewerID string

// ViewState is the observable state handed to the presentation layer
type ViewState struct {
	ViewerID          ViewerID
	MediaID           MediaID
	PlayState         PlayState
	AuthPromptVisible bool
	PendingPlayIntent bool
	PromptReason      PromptReason
	Authenticated     bool
	Account           *Account // nil while logged out
	AuthInFlight      bool     // a login or sign-up round-trip has not returned yet
	Version           uint64   // increments on every applied change
	UpdatedAt         time.Time
}
