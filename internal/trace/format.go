package trace

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// Format is the encoding of written events.
type Format uint8

const (
	FormatAuto   Format = iota // chosen from the output path
	FormatText                 // indented, one event per line
	FormatNDJSON               // one JSON object per line
	FormatChrome               // chrome://tracing / Perfetto JSON
)

// ParseFormat parses auto, text, ndjson or chrome.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, true
	case "text":
		return FormatText, true
	case "ndjson":
		return FormatNDJSON, true
	case "chrome":
		return FormatChrome, true
	}
	return FormatAuto, false
}

// FormatForPath picks a format from the file extension of path.
func FormatForPath(path string) Format {
	switch {
	case strings.HasSuffix(path, ".ndjson"):
		return FormatNDJSON
	case strings.HasSuffix(path, ".json"):
		return FormatChrome
	}
	return FormatText
}

// FormatEvent encodes a single event without indentation. Chrome events are
// returned without the surrounding array.
func FormatEvent(ev *Event, format Format) []byte {
	return appendEvent(nil, ev, format, 0)
}

func appendEvent(buf []byte, ev *Event, format Format, depth int) []byte {
	switch format {
	case FormatNDJSON:
		return appendNDJSON(buf, ev)
	case FormatChrome:
		return appendChrome(buf, ev)
	}
	return appendText(buf, ev, depth)
}

type jsonEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id,omitempty"`
	ParentID uint64            `json:"parent_id,omitempty"`
	GID      uint64            `json:"gid,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

func appendNDJSON(buf []byte, ev *Event) []byte {
	data, err := json.Marshal(jsonEvent{
		Time:     ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		GID:      ev.GID,
		Name:     ev.Name,
		Detail:   ev.Detail,
		Extra:    ev.Extra,
	})
	if err != nil {
		return buf
	}
	buf = append(buf, data...)
	return append(buf, '\n')
}

type chromeEvent struct {
	Name  string            `json:"name"`
	Cat   string            `json:"cat"`
	Phase string            `json:"ph"`
	TS    int64             `json:"ts"`
	PID   int               `json:"pid"`
	TID   uint64            `json:"tid"`
	Scope string            `json:"s,omitempty"`
	Args  map[string]string `json:"args,omitempty"`
}

func appendChrome(buf []byte, ev *Event) []byte {
	ce := chromeEvent{
		Name: ev.Name,
		Cat:  ev.Scope.String(),
		TS:   ev.Time.UnixMicro(),
		PID:  1,
		TID:  ev.GID,
		Args: ev.Extra,
	}
	switch ev.Kind {
	case KindSpanBegin:
		ce.Phase = "B"
	case KindSpanEnd:
		ce.Phase = "E"
	default:
		ce.Phase = "i"
		ce.Scope = "t"
	}
	if ev.Detail != "" {
		args := make(map[string]string, len(ev.Extra)+1)
		maps.Copy(args, ev.Extra)
		args["detail"] = ev.Detail
		ce.Args = args
	}
	data, err := json.Marshal(ce)
	if err != nil {
		return buf
	}
	return append(buf, data...)
}

func appendText(buf []byte, ev *Event, depth int) []byte {
	buf = append(buf, '[')
	buf = ev.Time.AppendFormat(buf, "15:04:05.000000")
	buf = append(buf, "] "...)
	for range depth {
		buf = append(buf, "  "...)
	}
	switch ev.Kind {
	case KindSpanBegin:
		buf = append(buf, "→ "...)
	case KindSpanEnd:
		buf = append(buf, "← "...)
	case KindPoint:
		buf = append(buf, "• "...)
	case KindHeartbeat:
		buf = append(buf, "♡ "...)
	}
	buf = append(buf, ev.Name...)
	if ev.Detail != "" {
		buf = append(buf, " ("...)
		buf = append(buf, ev.Detail...)
		buf = append(buf, ')')
	}
	if len(ev.Extra) > 0 {
		buf = append(buf, " {"...)
		for i, k := range slices.Sorted(maps.Keys(ev.Extra)) {
			if i > 0 {
				buf = append(buf, ", "...)
			}
			buf = append(buf, k...)
			buf = append(buf, '=')
			buf = append(buf, ev.Extra[k]...)
		}
		buf = append(buf, '}')
	}
	return append(buf, '\n')
}
