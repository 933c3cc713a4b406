package whatsapp

import "strings"

// Event is a lifecycle signal recognised in the bot's output.
type Event int

const (
	EventNone Event = iota
	EventDisconnected
	EventQRReceived
	EventAuthenticated
	EventReady
)

func (e Event) String() string {
	switch e {
	case EventDisconnected:
		return "disconnected"
	case EventQRReceived:
		return "qr-received"
	case EventAuthenticated:
		return "authenticated"
	case EventReady:
		return "ready"
	default:
		return "none"
	}
}

type marker struct {
	event  Event
	match  []string
	unless []string
}

// markers are checked in order; the first hit wins.
var markers = []marker{
	{event: EventDisconnected, match: []string{"disconnected"}},
	{event: EventQRReceived, match: []string{"qr received"}},
	{event: EventAuthenticated, match: []string{"authenticated", "authentication successful"}},
	// The child also says "ready" in startup hints and in its [READY]
	// notify/error logs; those don't mean the session is connected.
	{event: EventReady, match: []string{"ready"}, unless: []string{
		"not ready", "to be ready", "ready to scan", "[ready]", "ready handler",
	}},
}

// ParseLine maps one line of bot output to a lifecycle event.
func ParseLine(line string) (Event, bool) {
	lowered := strings.ToLower(line)
	for _, m := range markers {
		if containsAny(lowered, m.match) && !containsAny(lowered, m.unless) {
			return m.event, true
		}
	}
	return EventNone, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
