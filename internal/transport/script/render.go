package script

import (
	"fmt"
	"strings"

	"calsched/internal/domain"
	"calsched/internal/service/commands"
)

func renderEvents(events []commands.EventView) string {
	if len(events) == 0 {
		return "No events"
	}
	var b strings.Builder
	for i, e := range events {
		if i > 0 {
			b.WriteByte('\n')
		}
		if e.AllDay {
			fmt.Fprintf(&b, "- %s: %s (all day)", e.Subject, e.Start.Format(domain.DateLayout))
		} else {
			fmt.Fprintf(&b, "- %s: %s to %s", e.Subject, e.Start.Format(domain.TimestampLayout), e.End.Format(domain.TimestampLayout))
		}
		if e.Location != domain.LocationUnknown && e.Location != "" {
			fmt.Fprintf(&b, " at %s", e.Location)
		}
		if e.IsSeries {
			b.WriteString(" [series]")
		}
	}
	return b.String()
}

// renderCalendars lists calendars one per line, marking the active one.
func renderCalendars(v commands.CalendarsView) string {
	if len(v.Names) == 0 {
		return "No calendars"
	}
	var b strings.Builder
	for i, name := range v.Names {
		if i > 0 {
			b.WriteByte('\n')
		}
		if name == v.Active {
			fmt.Fprintf(&b, "* %s (%s)", name, v.Timezone)
		} else {
			fmt.Fprintf(&b, "  %s", name)
		}
	}
	return b.String()
}
