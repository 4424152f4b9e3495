package domain

import (
	"fmt"
	"strconv"
)

// MapLink derives the Google Maps link for the draft's coordinates, or
// "N/A" when the driver declined the GPS share.
func MapLink(d *RideDraft) string {
	if !d.HasCoords {
		return "N/A"
	}
	return "https://www.google.com/maps?q=" +
		strconv.FormatFloat(d.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(d.Longitude, 'f', -1, 64)
}

// CaptionHeader renders the immutable part of the posting caption, up to
// the availability lines.
func CaptionHeader(d *RideDraft) string {
	return fmt.Sprintf("🚖 TITAN Shuttle\n\nFrom: %s\nTo: %s\nPrice: %s ETB\nPlate: %s\nColor: %s\n\n",
		d.StartName, d.EndName, d.Price, d.Plate, d.Color)
}

// Caption assembles the full posting caption for a given availability.
func Caption(header string, remaining, reserved int, mapLink string) string {
	return fmt.Sprintf("%sSeats Available: %d\nReserved: %d\n📍 %s",
		header, remaining, reserved, mapLink)
}
