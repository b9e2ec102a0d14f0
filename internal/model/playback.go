package model

// PlayState is the playback state of a viewer's media.
// Paused and stopped are deliberately the same state: there is no resume position.
type PlayState string

const (
	PlayStateStopped PlayState = "stopped"
	PlayStatePlaying PlayState = "playing"
)

// PlaybackEvent is the outcome of a play/pause request
type PlaybackEvent string

const (
	PlaybackStarted      PlaybackEvent = "started"
	PlaybackStopped      PlaybackEvent = "stopped"
	PlaybackAuthRequired PlaybackEvent = "auth_required"
)

// PromptReason records what opened the authentication prompt
type PromptReason string

const (
	PromptNone     PromptReason = ""
	PromptPlayback PromptReason = "playback" // a play request was gated
	PromptMenu     PromptReason = "menu"     // opened from the account menu
)
