package whatsapp

import (
	qrcode "github.com/skip2/go-qrcode"
)

// RenderQR turns a QR payload into a block-character grid that can be shown
// in a terminal or a <pre> element. Payloads that cannot be encoded are
// returned unchanged.
func RenderQR(payload string) string {
	q, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		supervisorLog.Warnf("qr payload could not be encoded: %v", err)
		return payload
	}
	return q.ToSmallString(false)
}
