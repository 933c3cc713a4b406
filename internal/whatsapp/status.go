package whatsapp

// Status is the bot lifecycle record served by /status.
type Status struct {
	Running bool    `json:"running"`
	QRCode  *string `json:"qr_code"`
	Ready   bool    `json:"ready"`
}

type State string

const (
	StateStopped      State = "stopped"
	StateStarting     State = "starting"
	StateAwaitingScan State = "awaiting-scan"
	StateConnected    State = "connected"
)

func (s Status) State() State {
	switch {
	case !s.Running:
		return StateStopped
	case s.Ready:
		return StateConnected
	case s.QRCode != nil:
		return StateAwaitingScan
	default:
		return StateStarting
	}
}

// apply folds a lifecycle event parsed from the bot output into the status.
func (s Status) apply(ev Event) Status {
	switch ev {
	case EventReady:
		s.Ready = true
		s.QRCode = nil
	case EventDisconnected, EventQRReceived:
		s.Ready = false
	case EventAuthenticated:
		s.QRCode = nil
	}
	return s
}
