package domain

import "time"

// DefaultVoiceType is the VOICEVOX speaker used when a user has no setting.
const DefaultVoiceType = 3

// UserProfile carries per-user narration settings.
type UserProfile struct {
	UserID           int64
	UUID             string
	VoiceType        int
	AdditionalPrompt string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SettingsUpdate lists the optional fields of a settings change.
type SettingsUpdate struct {
	VoiceType        *int
	AdditionalPrompt *string
}

// Empty reports whether the update changes nothing.
func (u SettingsUpdate) Empty() bool {
	return u.VoiceType == nil && u.AdditionalPrompt == nil
}
