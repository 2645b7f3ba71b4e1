package locale

// Message key constants for localization
// All user-facing messages should use these constants to ensure consistency

const (
	BotStarted  = "BotStarted"
	StartingBot = "StartingBot"

	// Buttons
	ButtonCancel      = "ButtonCancel"
	ButtonMainMenu    = "ButtonMainMenu"
	ButtonRegister    = "ButtonRegister"
	ButtonSubmit      = "ButtonSubmit"
	ButtonChallenges  = "ButtonChallenges"
	ButtonEvents      = "ButtonEvents"
	ButtonMyStats     = "ButtonMyStats"
	ButtonMyEvents    = "ButtonMyEvents"
	ButtonSharePhone  = "ButtonSharePhone"
	ButtonYes         = "ButtonYes"
	ButtonNo          = "ButtonNo"
	ButtonAdultRun    = "ButtonAdultRun"
	ButtonChildrenRun = "ButtonChildrenRun"
	ButtonApprove     = "ButtonApprove"
	ButtonReject      = "ButtonReject"

	// Menu
	MainMenu          = "MainMenu"
	Cancelled         = "Cancelled"
	WelcomeRegistered = "WelcomeRegistered"
	WelcomeNew        = "WelcomeNew"
	HelpText          = "HelpText"
	ErrorGeneric      = "ErrorGeneric"

	// Registration flow
	RegAskFullName       = "RegAskFullName"
	RegNameTooShort      = "RegNameTooShort"
	RegAskBirthDate      = "RegAskBirthDate"
	RegBadBirthDate      = "RegBadBirthDate"
	RegBirthDateFuture   = "RegBirthDateFuture"
	RegBadAge            = "RegBadAge"
	RegAskPhone          = "RegAskPhone"
	RegBadPhone          = "RegBadPhone"
	RegConfirmSummary    = "RegConfirmSummary"
	RegConfirmRetry      = "RegConfirmRetry"
	RegDone              = "RegDone"
	RegAlreadyRegistered = "RegAlreadyRegistered"

	// Submission flow
	SubChooseChallenge   = "SubChooseChallenge"
	SubNoChallenges      = "SubNoChallenges"
	SubUnknownChallenge  = "SubUnknownChallenge"
	SubAskMedia          = "SubAskMedia"
	SubBadMedia          = "SubBadMedia"
	SubMediaMismatchWarn = "SubMediaMismatchWarn"
	SubAskResult         = "SubAskResult"
	SubBadResult         = "SubBadResult"
	SubAskComment        = "SubAskComment"
	SubDone              = "SubDone"
	SubNotRegistered     = "SubNotRegistered"
	SubChallengeInactive = "SubChallengeInactive"
	SubResultOutOfRange  = "SubResultOutOfRange"
	SubLimitReached      = "SubLimitReached"

	// Distance selection
	DistancePrompt        = "DistancePrompt"
	DistanceSaved         = "DistanceSaved"
	DistanceUnknownOption = "DistanceUnknownOption"

	// Events and challenges
	ChallengesListHeader = "ChallengesListHeader"
	ChallengesNone       = "ChallengesNone"
	EventsListHeader     = "EventsListHeader"
	EventsNone           = "EventsNone"
	EventRegDone         = "EventRegDone"
	EventRegClosed       = "EventRegClosed"
	EventFull            = "EventFull"
	ChallengeRegDone     = "ChallengeRegDone"

	// Stats
	StatsHeader        = "StatsHeader"
	StatsNoSubmissions = "StatsNoSubmissions"
	MyEventsHeader     = "MyEventsHeader"
	MyEventsNone       = "MyEventsNone"

	// Moderation
	ModNoPending        = "ModNoPending"
	ModPendingHeader    = "ModPendingHeader"
	ModCard             = "ModCard"
	ModApproved         = "ModApproved"
	ModRejected         = "ModRejected"
	ModNotFound         = "ModNotFound"
	ModNotAllowed       = "ModNotAllowed"
	SubApprovedNotify   = "SubApprovedNotify"
	SubRejectedNotify   = "SubRejectedNotify"
	AdminNewParticipant = "AdminNewParticipant"

	// Challenge type labels
	ChallengePushUps = "ChallengePushUps"
	ChallengeSquats  = "ChallengeSquats"
	ChallengePlank   = "ChallengePlank"
	ChallengeRunning = "ChallengeRunning"
	ChallengeSteps   = "ChallengeSteps"

	// Result units
	UnitReps    = "UnitReps"
	UnitSeconds = "UnitSeconds"
	UnitKm      = "UnitKm"
	UnitSteps   = "UnitSteps"
)
