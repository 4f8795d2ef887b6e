package statsd

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultPrefix is applied when Config.Prefix is blank.
const DefaultPrefix = "adeplanning"

// ':' '|' and '#' delimit the line protocol; spaces and slashes would break dotted names.
var nameReplacer = strings.NewReplacer(" ", "_", "/", "_", ":", "_", "|", "_", "#", "_")

// encoder renders StatsD lines with a fixed prefix and global tag set.
type encoder struct {
	prefix string
	global tagSet
}

func newEncoder(prefix string, global map[string]string) encoder {
	p := strings.Trim(strings.TrimSpace(prefix), ".")
	if strings.TrimSpace(prefix) == "" {
		p = DefaultPrefix
	}
	return encoder{prefix: p, global: newTagSet(global)}
}

func (e encoder) count(name string, v int64, tags map[string]string) string {
	return e.line(name, strconv.FormatInt(v, 10), "c", tags)
}

func (e encoder) gauge(name string, v float64, tags map[string]string) string {
	return e.line(name, strconv.FormatFloat(v, 'f', -1, 64), "g", tags)
}

func (e encoder) timing(name string, d time.Duration, tags map[string]string) string {
	ms := float64(d) / float64(time.Millisecond)
	return e.line(name, strconv.FormatFloat(ms, 'f', -1, 64), "ms", tags)
}

// line returns "" for a blank name.
func (e encoder) line(name, value, kind string, tags map[string]string) string {
	metric := e.name(name)
	if metric == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(metric)
	b.WriteByte(':')
	b.WriteString(value)
	b.WriteByte('|')
	b.WriteString(kind)
	if t := e.global.with(tags).String(); t != "" {
		b.WriteString("|#")
		b.WriteString(t)
	}
	return b.String()
}

func (e encoder) name(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	n := cleanName(name)
	switch {
	case e.prefix == "":
		return n
	case n == "":
		return e.prefix
	default:
		return e.prefix + "." + n
	}
}

func cleanName(name string) string {
	n := nameReplacer.Replace(strings.TrimSpace(name))
	for strings.Contains(n, "..") {
		n = strings.ReplaceAll(n, "..", ".")
	}
	return strings.Trim(n, ".")
}

// tagSet holds trimmed tags; blank keys are dropped.
type tagSet map[string]string

func newTagSet(tags map[string]string) tagSet {
	return tagSet(nil).with(tags)
}

// with returns a copy of s overlaid with extra.
func (s tagSet) with(extra map[string]string) tagSet {
	out := make(tagSet, len(s)+len(extra))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range extra {
		if key := strings.TrimSpace(k); key != "" {
			out[key] = strings.TrimSpace(v)
		}
	}
	return out
}

// String renders "k:v,k:v" in key order.
func (s tagSet) String() string {
	if len(s) == 0 {
		return ""
	}
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + s[k]
	}
	return strings.Join(parts, ",")
}
