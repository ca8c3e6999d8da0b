package domain

// Nominal ranges for playback controls.
const (
	MinSpeed  = 0.5
	MaxSpeed  = 2.0
	MinPitch  = 0.5
	MaxPitch  = 2.0
	MinVolume = 0.0
	MaxVolume = 1.0
)

// ReaderState is the orchestrator state of a reader session.
type ReaderState string

const (
	StateEmpty      ReaderState = "empty"
	StateExtracting ReaderState = "extracting"
	StatePersisting ReaderState = "persisting"
	StateReady      ReaderState = "ready"
	StatePlaying    ReaderState = "playing"
	StatePaused     ReaderState = "paused"
)

// HasDocument reports whether a document is loaded and playable in this state.
func (s ReaderState) HasDocument() bool {
	switch s {
	case StateReady, StatePlaying, StatePaused:
		return true
	default:
		return false
	}
}

// PlaybackState holds the user-controlled playback settings.
type PlaybackState struct {
	IsPlaying bool    `json:"is_playing"`
	Speed     float64 `json:"speed"`
	Pitch     float64 `json:"pitch"`
	Volume    float64 `json:"volume"`
}

// DefaultPlaybackState is the state a freshly selected document starts with.
func DefaultPlaybackState() PlaybackState {
	return PlaybackState{
		IsPlaying: false,
		Speed:     1.0,
		Pitch:     1.0,
		Volume:    1.0,
	}
}

// PlaybackSettings is a partial update of playback controls.
type PlaybackSettings struct {
	Speed  *float64 `json:"speed,omitempty"`
	Pitch  *float64 `json:"pitch,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
}

// Validate checks every provided value against its nominal range.
func (s PlaybackSettings) Validate() error {
	if s.Speed != nil && (*s.Speed < MinSpeed || *s.Speed > MaxSpeed) {
		return &ValidationError{Field: "speed", Message: "must be between 0.5 and 2.0"}
	}
	if s.Pitch != nil && (*s.Pitch < MinPitch || *s.Pitch > MaxPitch) {
		return &ValidationError{Field: "pitch", Message: "must be between 0.5 and 2.0"}
	}
	if s.Volume != nil && (*s.Volume < MinVolume || *s.Volume > MaxVolume) {
		return &ValidationError{Field: "volume", Message: "must be between 0 and 1"}
	}
	return nil
}
