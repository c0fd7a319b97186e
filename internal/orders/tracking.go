package orders

import "crypto/rand"

// TrackingCodeLength is short enough to read over the phone.
const TrackingCodeLength = 6

// no I, O, 1, 0
const trackingCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewTrackingCode draws a random code from the unambiguous charset.
func NewTrackingCode() (string, error) {
	b := make([]byte, TrackingCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = trackingCharset[int(b[i])%len(trackingCharset)]
	}
	return string(b), nil
}
