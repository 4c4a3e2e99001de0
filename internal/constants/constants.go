package constants

const (
	// Session codes are short enough to read out loud; player ids are
	// UUIDs and never typed by hand.
	SessionCodeLength = 8

	MinQuestionsToStart   = 3
	MaxQuestionsPerPlayer = 10

	// Text limits count characters, not bytes.
	MaxQuestionLength   = 200
	MaxAnswerLength     = 300
	MaxPlayerNameLength = 50
)
