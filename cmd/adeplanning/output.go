package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/emersion/go-ical"
	jmespath "github.com/jmespath-community/go-jmespath"

	apperrors "github.com/campus-tools/adeplanning/internal/errors"
)

const calendarProductID = "-//campus-tools//adeplanning//EN"

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// applyQuery evaluates a JMESPath expression against v's JSON form.
func applyQuery(expr string, v any) (any, error) {
	if expr == "" {
		return v, nil
	}
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		return nil, apperrors.Validationf("invalid --query: %v", err)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode query input: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode query input: %w", err)
	}

	out, err := compiled.Search(data)
	if err != nil {
		return nil, apperrors.Validationf("evaluate --query: %v", err)
	}
	return out, nil
}

// writeCalendar re-encodes fetched components as a standalone VCALENDAR.
func writeCalendar(w io.Writer, components []*ical.Component) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, calendarProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Children = append(cal.Children, components...)
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}
