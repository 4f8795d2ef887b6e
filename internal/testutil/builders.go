package testutil

import (
	"fmt"
	"strings"
	"time"
)

const icalStamp = "20060102T150405Z"

// FeedBuilder provides a fluent interface for building iCal feed bodies for testing.
type FeedBuilder struct {
	events []string
	extra  []string
}

// NewFeed creates an empty FeedBuilder.
func NewFeed() *FeedBuilder {
	return &FeedBuilder{}
}

// FeedEvent describes one VEVENT. Empty text fields are omitted.
type FeedEvent struct {
	UID         string
	Start       time.Time
	End         time.Time
	Summary     string
	Location    string
	Description string
}

// AddEvent appends a VEVENT.
func (b *FeedBuilder) AddEvent(ev FeedEvent) *FeedBuilder {
	lines := []string{"BEGIN:VEVENT"}
	uid := ev.UID
	if uid == "" {
		uid = fmt.Sprintf("ADE-%d", len(b.events)+1)
	}
	lines = append(lines,
		"UID:"+uid,
		"DTSTAMP:"+TestTime().UTC().Format(icalStamp),
		"DTSTART:"+ev.Start.UTC().Format(icalStamp),
	)
	if !ev.End.IsZero() {
		lines = append(lines, "DTEND:"+ev.End.UTC().Format(icalStamp))
	}
	if ev.Summary != "" {
		lines = append(lines, "SUMMARY:"+escapeText(ev.Summary))
	}
	if ev.Location != "" {
		lines = append(lines, "LOCATION:"+escapeText(ev.Location))
	}
	if ev.Description != "" {
		lines = append(lines, "DESCRIPTION:"+escapeText(ev.Description))
	}
	lines = append(lines, "END:VEVENT")
	b.events = append(b.events, strings.Join(lines, "\r\n"))
	return b
}

// AddTodo appends a VTODO component, which normalization is expected to skip.
func (b *FeedBuilder) AddTodo(uid, summary string) *FeedBuilder {
	b.extra = append(b.extra, strings.Join([]string{
		"BEGIN:VTODO",
		"UID:" + uid,
		"DTSTAMP:" + TestTime().UTC().Format(icalStamp),
		"SUMMARY:" + escapeText(summary),
		"END:VTODO",
	}, "\r\n"))
	return b
}

// Build renders the VCALENDAR body.
func (b *FeedBuilder) Build() string {
	parts := []string{
		"BEGIN:VCALENDAR",
		"METHOD:REQUEST",
		"PRODID:-//ADE/version 6.0",
		"VERSION:2.0",
		"CALSCALE:GREGORIAN",
	}
	parts = append(parts, b.events...)
	parts = append(parts, b.extra...)
	parts = append(parts, "END:VCALENDAR")
	return strings.Join(parts, "\r\n") + "\r\n"
}

func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	return r.Replace(s)
}
