package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"calsched/internal/domain"
)

// Calendar properties editable through Container.Edit.
const (
	CalendarPropertyName     = "name"
	CalendarPropertyTimezone = "timezone"
)

// Container is the registry of named calendars and the active selection.
type Container struct {
	calendars map[string]*Calendar
	active    string
}

func NewContainer() *Container {
	return &Container{calendars: make(map[string]*Calendar)}
}

func (c *Container) Add(name string, cal *Calendar) error {
	if name == "" {
		return fmt.Errorf("%w: calendar name is required", domain.ErrInvalidValue)
	}
	if cal == nil {
		return fmt.Errorf("%w: calendar is required", domain.ErrInvalidValue)
	}
	if _, ok := c.calendars[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	c.calendars[name] = cal
	return nil
}

func (c *Container) Get(name string) (*Calendar, error) {
	cal, ok := c.calendars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCalendarNotFound, name)
	}
	return cal, nil
}

// SetActive selects the active calendar. On failure the previous selection
// is kept.
func (c *Container) SetActive(name string) error {
	if _, ok := c.calendars[name]; !ok {
		return fmt.Errorf("%w: %q", ErrCalendarNotFound, name)
	}
	c.active = name
	return nil
}

func (c *Container) Active() (*Calendar, error) {
	if c.active == "" {
		return nil, ErrNoActiveCalendar
	}
	return c.calendars[c.active], nil
}

// ActiveName is empty when no calendar is selected.
func (c *Container) ActiveName() string {
	return c.active
}

// Names returns every registered name in sorted order.
func (c *Container) Names() []string {
	out := make([]string, 0, len(c.calendars))
	for name := range c.calendars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Edit renames a calendar or changes its timezone. A rename of the active
// calendar keeps it active under the new name. A timezone change leaves the
// stored event instants untouched.
func (c *Container) Edit(name, property, value string) error {
	cal, err := c.Get(name)
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(property)) {
	case CalendarPropertyName:
		if value == "" {
			return fmt.Errorf("%w: calendar name must not be empty", domain.ErrInvalidValue)
		}
		if value == name {
			return nil
		}
		if _, ok := c.calendars[value]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateName, value)
		}
		delete(c.calendars, name)
		c.calendars[value] = cal
		if c.active == name {
			c.active = value
		}
	case CalendarPropertyTimezone:
		loc, err := LoadLocation(value)
		if err != nil {
			return err
		}
		cal.loc = loc
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidProperty, property)
	}
	return nil
}

// LoadLocation resolves an IANA zone name.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: timezone is required", domain.ErrInvalidValue)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", domain.ErrInvalidValue, name)
	}
	return loc, nil
}
