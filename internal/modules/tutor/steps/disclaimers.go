package steps

import "strings"

// Omission disclaimers mark where the tutor only sees a text stand-in for
// media. The intro prompt writes them next to every catalog entry.
const (
	ImageOmissionDisclaimer = "[Image not visible to you; its text alternative follows]"
	VideoOmissionDisclaimer = "[Video not visible to you; its description follows]"
)

func containsDisclaimer(s string) (image, video bool) {
	return strings.Contains(s, ImageOmissionDisclaimer), strings.Contains(s, VideoOmissionDisclaimer)
}
