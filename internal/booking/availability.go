package booking

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sunday-first, matching the ordinal table the slot records were written
// against. Day names are stored lowercase.
var dayNames = [7]string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

// ResolveDayOfWeek maps a yyyy-mm-dd date to its lowercase day name. The
// date is taken apart as plain year/month/day components so the result can
// never shift by a day under a different timezone or locale.
func ResolveDayOfWeek(date string) (string, error) {
	y, m, d, err := splitDate(date)
	if err != nil {
		return "", err
	}
	wd := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).Weekday()
	return dayNames[int(wd)], nil
}

func splitDate(date string) (year, month, day int, err error) {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid date %q, want yyyy-mm-dd", date)
	}
	year, err = strconv.Atoi(parts[0])
	if err == nil {
		month, err = strconv.Atoi(parts[1])
	}
	if err == nil {
		day, err = strconv.Atoi(parts[2])
	}
	if err != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, 0, fmt.Errorf("invalid date %q, want yyyy-mm-dd", date)
	}
	return year, month, day, nil
}

// ListBookableSlots returns the dentist's open slots for a calendar date,
// sorted by time of day. Slots with an explicit date match on it directly;
// legacy slots fall back to day-of-week matching. An empty dentist id or
// date yields an empty list, not an error.
func (s *Service) ListBookableSlots(ctx context.Context, dentistID, date string) ([]AvailabilitySlot, error) {
	if dentistID == "" || date == "" {
		return nil, nil
	}

	weekday, err := ResolveDayOfWeek(date)
	if err != nil {
		return nil, &ValidationError{Fields: []string{"date"}}
	}

	slots, err := s.repo.ListSlotsByDentist(ctx, dentistID)
	if err != nil {
		return nil, err
	}

	var bookable []AvailabilitySlot
	for _, slot := range slots {
		if slot.IsAvailable && slot.Binding().Matches(date, weekday) {
			bookable = append(bookable, slot)
		}
	}

	// Zero-padded HH:MM, so lexicographic order is chronological order.
	sort.Slice(bookable, func(i, j int) bool {
		return bookable[i].SlotTime < bookable[j].SlotTime
	})

	return bookable, nil
}

// findSlot locates the single slot for (dentist, date, time) regardless of
// its availability flag. Used by booking (which then checks the flag) and by
// cancellation's legacy fallback.
func (s *Service) findSlot(ctx context.Context, dentistID, date, slotTime string) (*AvailabilitySlot, error) {
	weekday, err := ResolveDayOfWeek(date)
	if err != nil {
		return nil, &ValidationError{Fields: []string{"date"}}
	}

	slots, err := s.repo.ListSlotsByDentist(ctx, dentistID)
	if err != nil {
		return nil, err
	}

	for i := range slots {
		if slots[i].SlotTime == slotTime && slots[i].Binding().Matches(date, weekday) {
			return &slots[i], nil
		}
	}
	return nil, ErrSlotNotFound
}

// NextDateForWeekday returns the next upcoming yyyy-mm-dd date that falls on
// the given lowercase weekday, always in the future (today rolls a week).
func NextDateForWeekday(weekday string, from time.Time) (string, bool) {
	target := -1
	for i, name := range dayNames {
		if strings.EqualFold(name, weekday) {
			target = i
			break
		}
	}
	if target == -1 {
		return "", false
	}

	daysAhead := (target - int(from.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	next := from.AddDate(0, 0, daysAhead)
	return next.Format("2006-01-02"), true
}
