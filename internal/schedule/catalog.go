package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	firstHourlySlot = 8
	lastHourlySlot  = 20
)

// ErrDuplicateTimeSlot is returned when adding a slot whose canonical HH:MM
// already exists in the list.
var ErrDuplicateTimeSlot = errors.New("time slot already exists")

// BuildVenueList derives the venue pool for a season: one venue per team
// with a home field, followed by custom venues, deduplicated by normalized
// name. Team-derived entries win ties since they are concatenated first.
func BuildVenueList(teams []Team, customVenues []Venue) []Venue {
	combined := make([]Venue, 0, len(teams)+len(customVenues))
	for _, team := range teams {
		if venue := homeVenueFor(team); venue != nil {
			combined = append(combined, *venue)
		}
	}
	combined = append(combined, customVenues...)

	seen := make(map[string]struct{}, len(combined))
	venues := make([]Venue, 0, len(combined))
	for _, venue := range combined {
		key := venue.Key()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		venues = append(venues, venue)
	}
	return venues
}

func homeVenueFor(team Team) *Venue {
	if strings.TrimSpace(team.HomeVenue) == "" {
		return nil
	}
	return &Venue{
		ID:        "team-venue-" + team.ID,
		Name:      team.HomeVenue,
		Address:   team.HomeAddress,
		HomeField: true,
		TeamID:    team.ID,
	}
}

// BuildTimeSlotList returns the fixed hourly slots from 08:00 through 20:00
// inclusive, followed by custom slots in insertion order. No deduplication
// happens here; AddTimeSlot is the gate against duplicates.
func BuildTimeSlotList(customSlots []TimeSlot) []TimeSlot {
	slots := make([]TimeSlot, 0, lastHourlySlot-firstHourlySlot+1+len(customSlots))
	for hour := firstHourlySlot; hour <= lastHourlySlot; hour++ {
		canonical := fmt.Sprintf("%02d:00", hour)
		slots = append(slots, TimeSlot{
			ID:    "slot-" + canonical,
			Time:  canonical,
			Label: slotLabel(canonical),
		})
	}
	return append(slots, customSlots...)
}

// AddTimeSlot appends a custom slot at arbitrary minute granularity. The
// time must parse as 24-hour HH:MM and must not already exist in the list.
func AddTimeSlot(slots []TimeSlot, raw string) ([]TimeSlot, error) {
	canonical, err := parseTimeOfDay(raw)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		if slot.Time == canonical {
			return nil, ErrDuplicateTimeSlot
		}
	}
	return append(slots, TimeSlot{
		ID:    "slot-" + canonical,
		Time:  canonical,
		Label: slotLabel(canonical),
	}), nil
}

func parseTimeOfDay(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("time is required")
	}
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return "", errors.New("time must be in 24-hour HH:MM format")
	}
	return parsed.Format("15:04"), nil
}

func slotLabel(canonical string) string {
	parsed, err := time.Parse("15:04", canonical)
	if err != nil {
		return canonical
	}
	return parsed.Format("3:04 PM")
}
