package timezone

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// InvalidDate is the sentinel returned by FormatInZone for instants
// that cannot be rendered. Callers treat it as the failure signal for
// display purposes instead of an error value.
const InvalidDate = "Invalid date"

// DefaultZone is used when neither a location nor a country mapping
// matches.
const DefaultZone = "Africa/Nairobi"

var locationZones = map[string]string{
	"masai-mara":    "Africa/Nairobi",
	"amboseli":      "Africa/Nairobi",
	"serengeti":     "Africa/Dar_es_Salaam",
	"ngorongoro":    "Africa/Dar_es_Salaam",
	"bwindi":        "Africa/Kampala",
	"okavango":      "Africa/Gaborone",
	"kruger":        "Africa/Johannesburg",
	"etosha":        "Africa/Windhoek",
	"south-luangwa": "Africa/Lusaka",
	"ranthambore":   "Asia/Kolkata",
	"kaziranga":     "Asia/Kolkata",
}

var countryZones = map[string]string{
	"KE": "Africa/Nairobi",
	"TZ": "Africa/Dar_es_Salaam",
	"UG": "Africa/Kampala",
	"RW": "Africa/Kigali",
	"BW": "Africa/Gaborone",
	"ZA": "Africa/Johannesburg",
	"NA": "Africa/Windhoek",
	"ZM": "Africa/Lusaka",
	"ZW": "Africa/Harare",
	"IN": "Asia/Kolkata",
	"LK": "Asia/Colombo",
}

// Resolve maps a location id, then a country code, to an IANA zone
// name. Total: unknown inputs yield DefaultZone.
func Resolve(locationID, country string) string {
	if z, ok := locationZones[strings.ToLower(strings.TrimSpace(locationID))]; ok {
		return z
	}
	if z, ok := countryZones[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return z
	}
	return DefaultZone
}

const (
	dateLayout      = "2006-01-02"
	clockLayout     = "15:04:05"
	clockMilliLayout = "15:04:05.000"
)

// LocalToUTC interprets date ("YYYY-MM-DD") and clock ("HH:MM:SS" or
// "HH:MM:SS.sss") as civil time in zone, honoring that zone's offset on
// that date, and returns the equivalent UTC instant.
func LocalToUTC(date, clock, zone string) (time.Time, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("load zone %q: %w", zone, err)
	}
	layout := dateLayout + " " + clockLayout
	if strings.Contains(clock, ".") {
		layout = dateLayout + " " + clockMilliLayout
	}
	local, err := time.ParseInLocation(layout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse civil time %q %q: %w", date, clock, err)
	}
	return local.UTC(), nil
}

// UTCToZoned converts a UTC instant back to a civil date and clock in
// zone.
func UTCToZoned(t time.Time, zone string) (date, clock string, err error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return "", "", fmt.Errorf("load zone %q: %w", zone, err)
	}
	local := t.In(loc)
	return local.Format(dateLayout), local.Format(clockLayout), nil
}

// DayBounds returns the UTC instants bounding the whole-day interval
// [startDate 00:00:00.000, endDate 23:59:59.999] in zone. Date-only
// stays are always widened with this policy before conversion.
func DayBounds(startDate, endDate, zone string) (start, end time.Time, err error) {
	start, err = LocalToUTC(startDate, "00:00:00.000", zone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = LocalToUTC(endDate, "23:59:59.999", zone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// FormatInZone renders a UTC instant in zone with the given layout.
// Zero instants and unloadable zones yield the InvalidDate sentinel,
// never an error.
func FormatInZone(t time.Time, zone, layout string) string {
	if t.IsZero() {
		return InvalidDate
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return InvalidDate
	}
	if layout == "" {
		layout = time.RFC3339
	}
	return t.In(loc).Format(layout)
}

// Abbreviation returns the short zone code in effect at the given
// instant (e.g. "EAT", "IST"). When the zone cannot be loaded or the
// runtime reports a numeric offset instead of a name, it falls back to
// the zone name's last path segment, uppercased and trimmed to three
// letters. Never panics.
func Abbreviation(zone string, at time.Time) string {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return fallbackAbbreviation(zone)
	}
	name, _ := at.In(loc).Zone()
	if name == "" || !isAlpha(name) {
		return fallbackAbbreviation(zone)
	}
	return name
}

func fallbackAbbreviation(zone string) string {
	seg := zone
	if i := strings.LastIndex(zone, "/"); i >= 0 {
		seg = zone[i+1:]
	}
	seg = strings.ToUpper(strings.ReplaceAll(seg, "_", ""))
	var b strings.Builder
	for _, r := range seg {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
		if b.Len() == 3 {
			break
		}
	}
	if b.Len() == 0 {
		return "UTC"
	}
	return b.String()
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
