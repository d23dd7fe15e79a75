package chat

import (
	"fmt"
	"time"
)

// RelativeLabel renders a human relative-time label for a session's last
// activity. Labels are recomputed on demand; they do not tick live.
func RelativeLabel(t, now time.Time) string {
	minutes := int(now.Sub(t).Minutes())
	if minutes < 1 {
		return "Just now"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min ago", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d %s ago", hours, plural("hour", hours))
	}

	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%d %s ago", days, plural("day", days))
	}
	if days < 30 {
		weeks := days / 7
		return fmt.Sprintf("%d %s ago", weeks, plural("week", weeks))
	}

	return t.Format("1/2/2006")
}

func plural(unit string, n int) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
