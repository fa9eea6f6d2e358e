package model

// RegistrationStep is a state of the player-facing registration wizard
type RegistrationStep string

const (
	StepWelcome       RegistrationStep = "welcome"
	StepGameSelection RegistrationStep = "game-selection"
	StepSessionCode   RegistrationStep = "session-code"
	StepUserDetails   RegistrationStep = "user-details"
	StepConfirmation  RegistrationStep = "confirmation"
	StepTerms         RegistrationStep = "terms"
	StepTeamName      RegistrationStep = "team-name"
	StepTeamNameInput RegistrationStep = "team-name-input" // only in the team-name-input variant
	StepCompletion    RegistrationStep = "completion"
)

// StaffStep is a state of the staff-facing equipping wizard
type StaffStep string

const (
	StaffStepSessionInput    StaffStep = "session-input"
	StaffStepPlayerSelection StaffStep = "player-selection"
	StaffStepPhotoCapture    StaffStep = "photo-capture"
	StaffStepWeaponSelection StaffStep = "weapon-selection"
	StaffStepCompletion      StaffStep = "completion"
)
