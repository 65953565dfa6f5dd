package store

import "errors"

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrDuplicateName    = errors.New("calendar already exists")
	ErrCalendarNotFound = errors.New("calendar not found")
	ErrNoActiveCalendar = errors.New("no active calendar")
)
