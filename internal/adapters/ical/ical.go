// Package ical renders saved events as an iCalendar feed and reads such a
// feed back into events.
package ical

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/okian/kairosync/internal/domain/model"
	tm "github.com/okian/kairosync/internal/domain/timemodel"
)

const (
	productID = "-//kairosync//timeline//EN"
	calName   = "Kairosync"
	uidDomain = "@kairosync"
)

// Encode writes one VEVENT per saved event. Each event starts at the UTC
// midnight of today (per now) plus dayOffset days plus utcMinutes. Drafts
// are skipped.
func Encode(w io.Writer, events []model.CalendarEvent, now time.Time) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(calName)

	base := midnightUTC(now)
	stamp := now.UTC()
	for _, ev := range events {
		if ev.IsDraft() {
			continue
		}
		start := StartOf(ev, base)
		e := cal.AddEvent(ev.ID + uidDomain)
		e.SetDtStampTime(stamp)
		e.SetStartAt(start)
		e.SetEndAt(start.Add(time.Duration(ev.Duration) * time.Minute))
		e.SetSummary(ev.Title)
		if ev.Note != "" {
			e.SetDescription(ev.Note)
		}
		e.AddProperty(ics.ComponentPropertyCategories, strings.ToUpper(string(ev.Type)))
		if ev.IsConfirmed {
			e.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			e.SetStatus(ics.ObjectStatusTentative)
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}

// StartOf returns the absolute start of ev relative to the UTC midnight base.
func StartOf(ev model.CalendarEvent, base time.Time) time.Time {
	return base.AddDate(0, 0, ev.DayOffset).Add(time.Duration(tm.NormalizeMinutes(ev.UTCMinutes)) * time.Minute)
}

func midnightUTC(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Decode parses a feed into events relative to today (per now) and counts
// the entries without a start, which it skips. Only UIDs minted by Encode
// keep their id; any other event decodes with an empty id.
func Decode(r io.Reader, now time.Time) (events []model.CalendarEvent, skipped int, err error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	base := midnightUTC(now)
	out := make([]model.CalendarEvent, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil {
			skipped++
			continue
		}
		start = start.UTC()
		ev := model.CalendarEvent{
			ID:         idFromUID(propValue(ve, ics.ComponentPropertyUniqueId)),
			Type:       model.EventType(strings.ToLower(propValue(ve, ics.ComponentPropertyCategories))),
			UTCMinutes: start.Hour()*tm.MinutesInHour + start.Minute(),
			Title:      propValue(ve, ics.ComponentPropertySummary),
			Note:       propValue(ve, ics.ComponentPropertyDescription),
			DayOffset:  int(midnightUTC(start).Sub(base).Hours() / tm.HoursInDay),
			Duration:   model.DefaultDurationMinutes,
		}
		if !ev.Type.Valid() {
			ev.Type = model.EventOther
		}
		if end, err := ve.GetEndAt(); err == nil && end.After(start) {
			ev.Duration = int(end.Sub(start).Minutes())
		}
		ev.IsConfirmed = strings.EqualFold(propValue(ve, ics.ComponentPropertyStatus), string(ics.ObjectStatusConfirmed))
		out = append(out, ev)
	}
	return out, skipped, nil
}

// idFromUID returns the saved id inside a UID written by Encode, or "".
func idFromUID(uid string) string {
	id, ok := strings.CutSuffix(uid, uidDomain)
	if !ok {
		return ""
	}
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return ""
	}
	return id
}

func propValue(ve *ics.VEvent, p ics.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}
