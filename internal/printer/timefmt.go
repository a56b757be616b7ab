package printer

import (
	"fmt"
	"time"
)

const timestampLayout = "2006-01-02 15:04 UTC"

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// activity returns how long ago something happened relative to now, in the
// compact form used on the task and conversation tables.
func activity(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		// Also covers small clock skews between the store and the CLI.
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
