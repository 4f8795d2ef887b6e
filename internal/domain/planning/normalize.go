package planning

import (
	"time"

	"github.com/campus-tools/adeplanning/internal/domain/model"
	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/emersion/go-ical"
)

// Normalizer converts raw iCal components into events. Floating times are read in Location.
type Normalizer struct {
	Location *time.Location
}

// NewNormalizer returns a Normalizer reading floating times in loc (UTC when nil).
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{Location: loc}
}

// Normalize keeps the VEVENT components and turns each into an Event, in input order.
// Any other component kind (VTIMEZONE, ...) is discarded.
func (n *Normalizer) Normalize(components []*ical.Component) ([]model.Event, error) {
	events := make([]model.Event, 0, len(components))
	for _, comp := range components {
		if comp == nil || comp.Name != ical.CompEvent {
			continue
		}
		ev, err := n.normalizeEvent(comp)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (n *Normalizer) normalizeEvent(comp *ical.Component) (model.Event, error) {
	uid, _ := comp.Props.Text(ical.PropUID)
	vevent := &ical.Event{Component: comp}

	start, err := vevent.DateTimeStart(n.Location)
	if err != nil {
		return model.Event{}, apperrors.ProtocolParsef(apperrors.StageEventParse, "event %q: bad DTSTART: %v", uid, err)
	}
	if start.IsZero() {
		return model.Event{}, apperrors.ProtocolParsef(apperrors.StageEventParse, "event %q: missing DTSTART", uid)
	}

	end, err := vevent.DateTimeEnd(n.Location)
	if err != nil {
		return model.Event{}, apperrors.ProtocolParsef(apperrors.StageEventParse, "event %q: bad DTEND: %v", uid, err)
	}
	if end.IsZero() {
		end = start
	}
	if end.Before(start) {
		return model.Event{}, apperrors.ProtocolParsef(apperrors.StageEventParse, "event %q: ends before it starts", uid)
	}

	summary, err := comp.Props.Text(ical.PropSummary)
	if err != nil {
		return model.Event{}, apperrors.ProtocolParsef(apperrors.StageEventParse, "event %q: bad SUMMARY: %v", uid, err)
	}
	location, err := comp.Props.Text(ical.PropLocation)
	if err != nil {
		return model.Event{}, apperrors.ProtocolParsef(apperrors.StageEventParse, "event %q: bad LOCATION: %v", uid, err)
	}
	description, err := comp.Props.Text(ical.PropDescription)
	if err != nil {
		return model.Event{}, apperrors.ProtocolParsef(apperrors.StageEventParse, "event %q: bad DESCRIPTION: %v", uid, err)
	}

	return model.Event{
		Start:       start,
		End:         end,
		Summary:     CleanText(summary),
		Location:    CleanText(location),
		Description: ExtractDescription(CleanLines(description)),
	}, nil
}
