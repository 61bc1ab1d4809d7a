package utils

import "strings"

// offsetToZone maps the UTC-offset strings stored on users to an IANA zone
// name Google Calendar accepts. The table is deliberately static; this service
// does not carry its own time-zone database.
var offsetToZone = map[string]string{
	"-11:00": "Pacific/Pago_Pago",
	"-10:00": "Pacific/Honolulu",
	"-09:00": "America/Anchorage",
	"-08:00": "America/Los_Angeles",
	"-07:00": "America/Denver",
	"-06:00": "America/Chicago",
	"-05:00": "America/New_York",
	"-04:00": "America/Halifax",
	"-03:00": "America/Sao_Paulo",
	"-02:00": "Atlantic/South_Georgia",
	"-01:00": "Atlantic/Azores",
	"+00:00": "UTC",
	"00:00":  "UTC",
	"+01:00": "Europe/Berlin",
	"+02:00": "Europe/Kyiv",
	"+03:00": "Europe/Moscow",
	"+03:30": "Asia/Tehran",
	"+04:00": "Asia/Dubai",
	"+05:00": "Asia/Karachi",
	"+05:30": "Asia/Kolkata",
	"+05:45": "Asia/Kathmandu",
	"+06:00": "Asia/Dhaka",
	"+07:00": "Asia/Bangkok",
	"+08:00": "Asia/Singapore",
	"+09:00": "Asia/Tokyo",
	"+09:30": "Australia/Darwin",
	"+10:00": "Australia/Sydney",
	"+11:00": "Pacific/Guadalcanal",
	"+12:00": "Pacific/Auckland",
}

// ResolveTimezone maps a stored UTC-offset string (or an IANA name) to an
// IANA zone name, defaulting to UTC.
func ResolveTimezone(offset string) string {
	offset = strings.TrimSpace(offset)
	if offset == "" {
		return "UTC"
	}
	if zone, ok := offsetToZone[offset]; ok {
		return zone
	}
	// Already an IANA name ("Area/Location") — pass it through.
	if strings.Contains(offset, "/") {
		return offset
	}
	return "UTC"
}
