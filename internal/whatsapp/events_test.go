package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Event
		ok   bool
	}{
		{"Client is ready!", EventReady, true},
		{"✅ WhatsApp bot is READY", EventReady, true},
		{"disconnected", EventDisconnected, true},
		{"Bot disconnected: NAVIGATION", EventDisconnected, true},
		{"QR RECEIVED 2@abc", EventQRReceived, true},
		{"Authenticated", EventAuthenticated, true},
		{"Authentication successful!", EventAuthenticated, true},
		{"Message skipped - bot not ready", EventNone, false},
		{"Waiting for server to be ready", EventNone, false},
		{"🎉 [SUCCESS] WhatsApp Client is Ready!", EventReady, true},
		{"✅ Bot initialization complete - Ready to respond to messages!", EventReady, true},
		{"📱 [INIT] Have your phone ready to scan the QR code", EventNone, false},
		{"❌ [READY] Error in ready handler: boom", EventNone, false},
		{"📤 [READY] Notifying backend (attempt 1/3)", EventNone, false},
		{"   Status: ❌ Not Ready", EventNone, false},
		{"incoming message from 9199", EventNone, false},
		// disconnect outranks ready
		{"ready flag lost, disconnected", EventDisconnected, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := ParseLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusState(t *testing.T) {
	qr := "grid"
	assert.Equal(t, StateStopped, Status{}.State())
	assert.Equal(t, StateStarting, Status{Running: true}.State())
	assert.Equal(t, StateAwaitingScan, Status{Running: true, QRCode: &qr}.State())
	assert.Equal(t, StateConnected, Status{Running: true, Ready: true}.State())
}

func TestRenderQR(t *testing.T) {
	grid := RenderQR("2@pairing,payload")
	assert.NotEqual(t, "2@pairing,payload", grid)
	assert.Contains(t, grid, "\n")
}
