package errors

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Input
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeScoreOutOfRange Code = "SCORE_OUT_OF_RANGE"

	// Lookups
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeHackathonNotFound  Code = "HACKATHON_NOT_FOUND"
	CodeTeamNotFound       Code = "TEAM_NOT_FOUND"
	CodeDocumentNotFound   Code = "DOCUMENT_NOT_FOUND"
	CodeInvitationNotFound Code = "INVITATION_NOT_FOUND"

	// Uniqueness
	CodeDuplicateUser       Code = "DUPLICATE_USER"
	CodeDuplicateTitle      Code = "DUPLICATE_TITLE"
	CodeDuplicateTeamName   Code = "DUPLICATE_TEAM_NAME"
	CodeAlreadyMember       Code = "ALREADY_MEMBER"
	CodeDuplicateInvitation Code = "DUPLICATE_INVITATION"
	CodeDuplicateVote       Code = "DUPLICATE_VOTE"
	CodeDuplicateEvaluation Code = "DUPLICATE_EVALUATION"

	// Temporal
	CodeInvalidSchedule    Code = "INVALID_SCHEDULE"
	CodeRegistrationClosed Code = "REGISTRATION_CLOSED"
	CodeEventStarted       Code = "EVENT_STARTED"
	CodeEventConcluded     Code = "EVENT_CONCLUDED"
	CodeJudgingNotOpen     Code = "JUDGING_NOT_OPEN"
	CodeEventNotConcluded  Code = "EVENT_NOT_CONCLUDED"
	CodeRankingFinalized   Code = "RANKING_FINALIZED"
	CodeNotRanked          Code = "NOT_RANKED"
	CodeNotJudgingTarget   Code = "NOT_JUDGING_TARGET"

	// Capacity
	CodeTeamFull      Code = "TEAM_FULL"
	CodeHackathonFull Code = "HACKATHON_FULL"

	// Policy
	CodeNotOrganizer        Code = "NOT_ORGANIZER"
	CodeNotAuthorizedJudge  Code = "NOT_AUTHORIZED_JUDGE"
	CodeNotAuthorized       Code = "NOT_AUTHORIZED"
	CodeNotTeamMember       Code = "NOT_TEAM_MEMBER"
	CodeFounderCannotLeave  Code = "FOUNDER_CANNOT_LEAVE"
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeInvitationResponded Code = "INVITATION_RESPONDED"
	CodeScheduleConflict    Code = "SCHEDULE_CONFLICT"
	CodeIncompleteJudging   Code = "INCOMPLETE_JUDGING"
	CodeStorageUnavailable  Code = "STORAGE_UNAVAILABLE"
)

// Sentinels. Compare with errors.Is; attach details with WithMetadata.
var (
	ErrInvalidInput    = New(KindValidation, CodeInvalidInput, "invalid input")
	ErrScoreOutOfRange = New(KindValidation, CodeScoreOutOfRange, "score out of range")

	ErrUserNotFound       = New(KindNotFound, CodeUserNotFound, "user not found")
	ErrHackathonNotFound  = New(KindNotFound, CodeHackathonNotFound, "hackathon not found")
	ErrTeamNotFound       = New(KindNotFound, CodeTeamNotFound, "team not found")
	ErrDocumentNotFound   = New(KindNotFound, CodeDocumentNotFound, "document not found")
	ErrInvitationNotFound = New(KindNotFound, CodeInvitationNotFound, "no pending invitation")

	ErrDuplicateUser       = New(KindConflict, CodeDuplicateUser, "user name already taken")
	ErrDuplicateTitle      = New(KindConflict, CodeDuplicateTitle, "hackathon title already exists")
	ErrDuplicateTeamName   = New(KindConflict, CodeDuplicateTeamName, "team name already taken in hackathon")
	ErrAlreadyMember       = New(KindConflict, CodeAlreadyMember, "user already belongs to a team in hackathon")
	ErrDuplicateInvitation = New(KindConflict, CodeDuplicateInvitation, "invitation already exists")
	ErrDuplicateVote       = New(KindConflict, CodeDuplicateVote, "judge already voted for team")
	ErrDuplicateEvaluation = New(KindConflict, CodeDuplicateEvaluation, "judge already evaluated document")
	ErrInvitationResponded = New(KindConflict, CodeInvitationResponded, "invitation already answered")

	ErrInvalidSchedule    = New(KindWindow, CodeInvalidSchedule, "invalid schedule")
	ErrRegistrationClosed = New(KindWindow, CodeRegistrationClosed, "registration is closed")
	ErrEventStarted       = New(KindWindow, CodeEventStarted, "event already started")
	ErrEventConcluded     = New(KindWindow, CodeEventConcluded, "event already concluded")
	ErrJudgingNotOpen     = New(KindWindow, CodeJudgingNotOpen, "judging has not opened")
	ErrEventNotConcluded  = New(KindWindow, CodeEventNotConcluded, "event has not concluded")
	ErrRankingFinalized   = New(KindWindow, CodeRankingFinalized, "ranking already finalized")
	ErrNotRanked          = New(KindWindow, CodeNotRanked, "hackathon not ranked yet")
	ErrNotJudgingTarget   = New(KindWindow, CodeNotJudgingTarget, "document superseded by a newer submission")

	ErrTeamFull      = New(KindCapacity, CodeTeamFull, "team is full")
	ErrHackathonFull = New(KindCapacity, CodeHackathonFull, "hackathon is full")

	ErrNotOrganizer       = New(KindAuthorization, CodeNotOrganizer, "not the hackathon organizer")
	ErrNotAuthorizedJudge = New(KindAuthorization, CodeNotAuthorizedJudge, "not an accepted judge of hackathon")
	ErrNotAuthorized      = New(KindAuthorization, CodeNotAuthorized, "not authorized")
	ErrNotTeamMember      = New(KindAuthorization, CodeNotTeamMember, "not a member of team")
	ErrInvalidCredentials = New(KindAuthorization, CodeInvalidCredentials, "invalid credentials")

	ErrFounderCannotLeave = New(KindValidation, CodeFounderCannotLeave, "team founder cannot leave")

	ErrScheduleConflict  = New(KindScheduleConflict, CodeScheduleConflict, "judge already committed to an overlapping event")
	ErrIncompleteJudging = New(KindIncompleteJudging, CodeIncompleteJudging, "judging incomplete")
)
