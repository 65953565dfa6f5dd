package commands

// Command is one of the records below. The set is closed: every record is
// dispatched by Handler.Handle.
type Command interface {
	Operation() string
	command()
}

// CreateEvent creates a single event, or a weekly series when Weekdays is
// set. Timestamps are read in the target calendar's timezone.
type CreateEvent struct {
	Subject          string `validate:"required" label:"subject"`
	Start            string `validate:"required" label:"start"`
	End              string `label:"end"`
	Weekdays         string `validate:"required_with=TerminationKind" label:"weekdays"`
	TerminationKind  string `validate:"omitempty,oneof=until count" label:"termination"`
	TerminationValue string `validate:"required_with=TerminationKind" label:"termination value"`
	AllDay           bool
	Description      string
	Location         string
	Status           string
}

// EditEvent edits exactly the event identified by subject, start and end.
type EditEvent struct {
	Property string `validate:"required" label:"property"`
	Subject  string `validate:"required" label:"subject"`
	Start    string `validate:"required" label:"start"`
	End      string `validate:"required" label:"end"`
	Value    string
}

// EditEventsFrom edits the anchor and every later event of its series.
type EditEventsFrom struct {
	Property string `validate:"required" label:"property"`
	Subject  string `validate:"required" label:"subject"`
	Start    string `validate:"required" label:"start"`
	Value    string
}

// EditSeries edits every event of the anchor's series.
type EditSeries struct {
	Property string `validate:"required" label:"property"`
	Subject  string `validate:"required" label:"subject"`
	Start    string `validate:"required" label:"start"`
	Value    string
}

type DeleteEvent struct {
	Subject string `validate:"required" label:"subject"`
	Start   string `validate:"required" label:"start"`
	End     string `validate:"required" label:"end"`
}

type DeleteEventsFrom struct {
	Subject string `validate:"required" label:"subject"`
	Start   string `validate:"required" label:"start"`
}

type DeleteSeries struct {
	Subject string `validate:"required" label:"subject"`
	Start   string `validate:"required" label:"start"`
}

// Export writes the calendar to FileName. Format overrides the extension
// based choice when set.
type Export struct {
	FileName string `validate:"required" label:"file name"`
	Format   string
}

type CreateCalendar struct {
	Name     string `validate:"required" label:"name"`
	Timezone string `validate:"required" label:"timezone"`
}

type EditCalendar struct {
	Name     string `validate:"required" label:"name"`
	Property string `validate:"required" label:"property"`
	Value    string
}

type UseCalendar struct {
	Name string `validate:"required" label:"name"`
}

func (CreateEvent) Operation() string      { return "create event" }
func (EditEvent) Operation() string        { return "edit event" }
func (EditEventsFrom) Operation() string   { return "edit events" }
func (EditSeries) Operation() string       { return "edit series" }
func (DeleteEvent) Operation() string      { return "delete event" }
func (DeleteEventsFrom) Operation() string { return "delete events" }
func (DeleteSeries) Operation() string     { return "delete series" }
func (Export) Operation() string           { return "export" }
func (CreateCalendar) Operation() string   { return "create calendar" }
func (EditCalendar) Operation() string     { return "edit calendar" }
func (UseCalendar) Operation() string      { return "use calendar" }

func (CreateEvent) command()      {}
func (EditEvent) command()        {}
func (EditEventsFrom) command()   {}
func (EditSeries) command()       {}
func (DeleteEvent) command()      {}
func (DeleteEventsFrom) command() {}
func (DeleteSeries) command()     {}
func (Export) command()           {}
func (CreateCalendar) command()   {}
func (EditCalendar) command()     {}
func (UseCalendar) command()      {}
