package errs

import "net/http"

// Request handling
const (
	CodeInvalidParams        Code = "INVALID_PARAMS"
	CodeUnsupportedMediaType Code = "UNSUPPORTED_MEDIA_TYPE"
	CodeInvalidJSON          Code = "INVALID_JSON"
	CodeRateLimited          Code = "RATE_LIMITED"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeForbidden            Code = "FORBIDDEN"
	CodeNotFound             Code = "NOT_FOUND"
)

// Signup and login
const (
	CodeAtCapacity         Code = "AT_CAPACITY"
	CodeUsernameTaken      Code = "USERNAME_TAKEN"
	CodeUsernameTooShort   Code = "USERNAME_TOO_SHORT"
	CodeUsernameNotAllowed Code = "USERNAME_NOT_ALLOWED"
	CodePasswordTooWeak    Code = "PASSWORD_TOO_WEAK"
	CodeInvalidAvatar      Code = "INVALID_AVATAR"
	CodeUsernameNotFound   Code = "USERNAME_NOT_FOUND"
	CodeWrongPassword      Code = "WRONG_PASSWORD"
	CodeNotLoggedIn        Code = "NOT_LOGGED_IN"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
)

// Password reset
const (
	CodeInvalidCode Code = "INVALID_CODE"
)

// Lessons
const (
	CodeLessonNotFound Code = "LESSON_NOT_FOUND"
)

// Internal
const (
	CodeUnknown Code = "UNKNOWN"
)

// errorMap holds the template for every code. Status 0 means 400.
var errorMap = map[Code]CustomError{
	CodeInvalidParams:        {Code: CodeInvalidParams, Title: "Hmm, something's missing", Message: "Some of the details you sent don't look right.", Action: "Check the form and try again."},
	CodeUnsupportedMediaType: {Code: CodeUnsupportedMediaType, Title: "Wrong format", Message: "Requests must be sent as JSON.", Action: "Send the request as application/json.", Status: http.StatusUnsupportedMediaType},
	CodeInvalidJSON:          {Code: CodeInvalidJSON, Title: "Wrong format", Message: "The request could not be read.", Action: "Send valid JSON."},
	CodeRateLimited:          {Code: CodeRateLimited, Title: "Whoa, slow down!", Message: "That was a lot of tries in a row.", Action: "Take a short break and try again.", Status: http.StatusTooManyRequests},
	CodeUnauthorized:         {Code: CodeUnauthorized, Title: "Who's there?", Message: "You need to log in first.", Action: "Log in to keep playing.", Status: http.StatusUnauthorized},
	CodeForbidden:            {Code: CodeForbidden, Title: "Teachers only", Message: "Only a teacher can do that.", Action: "Ask your teacher for help.", Status: http.StatusForbidden},
	CodeNotFound:             {Code: CodeNotFound, Title: "Lost in space", Message: "We couldn't find that page.", Action: "Go back to the map.", Status: http.StatusNotFound},

	CodeAtCapacity:         {Code: CodeAtCapacity, Title: "The club is full!", Message: "This device already has %d players.", Action: "Ask a grown-up to remove an old player."},
	CodeUsernameTaken:      {Code: CodeUsernameTaken, Title: "Name already taken", Message: "Someone is already called that.", Action: "Try adding your favourite number or animal."},
	CodeUsernameTooShort:   {Code: CodeUsernameTooShort, Title: "Name too short", Message: "Your name needs at least 2 letters.", Action: "Pick a longer name."},
	CodeUsernameNotAllowed: {Code: CodeUsernameNotAllowed, Title: "Let's pick a nicer name", Message: "That name isn't allowed here.", Action: "Try a different name."},
	CodePasswordTooWeak:    {Code: CodePasswordTooWeak, Title: "Password too easy", Message: "That password would be easy to guess.", Action: "Follow the tips to make it stronger."},
	CodeInvalidAvatar:      {Code: CodeInvalidAvatar, Title: "Pick a buddy", Message: "That avatar doesn't exist.", Action: "Choose one of the avatars on screen."},
	CodeUsernameNotFound:   {Code: CodeUsernameNotFound, Title: "We don't know that name", Message: "No player with that name lives on this device.", Action: "Check the spelling or sign up."},
	CodeWrongPassword:      {Code: CodeWrongPassword, Title: "Oops, wrong password", Message: "That password doesn't match.", Action: "Try again or reset your password."},
	CodeNotLoggedIn:        {Code: CodeNotLoggedIn, Title: "Who's playing?", Message: "Nobody is logged in right now.", Action: "Log in to save your progress.", Status: http.StatusUnauthorized},
	CodeUserNotFound:       {Code: CodeUserNotFound, Title: "Player not found", Message: "That player doesn't exist anymore.", Action: "Refresh the list.", Status: http.StatusNotFound},

	CodeInvalidCode: {Code: CodeInvalidCode, Title: "That code didn't work", Message: "The code is wrong or too old.", Action: "Check the code or ask for a new one."},

	CodeLessonNotFound: {Code: CodeLessonNotFound, Title: "Lesson not found", Message: "That lesson isn't on the map.", Action: "Pick a lesson from the map.", Status: http.StatusNotFound},

	CodeUnknown: {Code: CodeUnknown, Title: "Uh oh!", Message: "Something went wrong on our side.", Action: "Please try again in a moment.", Status: http.StatusInternalServerError},
}
