package prt3

import "strings"

// digits3 parses a fixed 3-byte zero-padded decimal field at s[off:off+3].
// It refuses anything that is not exactly three ASCII digits, so a
// truncated or garbled field rejects the whole line. An all-zero field is
// accepted: "G000N000A000" parses, and package panel drops it because no
// area or zone 0 is ever configured.
func digits3(s string, off int) (int, bool) {
	if off+3 > len(s) {
		return 0, false
	}
	n := 0
	for i := off; i < off+3; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// Parse classifies a single PRT3 line (CR already stripped by the framer)
// and extracts its payload. It returns false for anything it does not
// recognize; the caller logs and drops such lines.
func Parse(raw string) (Line, bool) {
	if raw == "" {
		return Line{}, false
	}

	switch raw[0] {
	case 'G':
		return parseEvent(raw)
	case 'R':
		if len(raw) < 2 {
			return Line{}, false
		}
		switch raw[1] {
		case 'A':
			return parseAreaStatus(raw)
		case 'Z':
			return parseZoneStatus(raw)
		}
		return Line{}, false
	case 'A':
		if len(raw) < 2 {
			return Line{}, false
		}
		switch raw[1] {
		case 'L':
			return parseLabel(raw, KindAreaLabel)
		case 'D':
			return parseDisarmAck(raw)
		}
		return Line{}, false
	case 'Z':
		if len(raw) < 2 {
			return Line{}, false
		}
		if raw[1] == 'L' {
			return parseLabel(raw, KindZoneLabel)
		}
		return Line{}, false
	}

	return Line{}, false
}

// parseEvent parses "GgggNnnnAaaa".
func parseEvent(raw string) (Line, bool) {
	if len(raw) < 12 || raw[4] != 'N' || raw[8] != 'A' {
		return Line{}, false
	}
	group, ok := digits3(raw, 1)
	if !ok {
		return Line{}, false
	}
	num, ok := digits3(raw, 5)
	if !ok {
		return Line{}, false
	}
	area, ok := digits3(raw, 9)
	if !ok {
		return Line{}, false
	}
	return Line{Kind: KindEvent, Event: Event{Group: group, Num: num, Area: area}}, true
}

// parseAreaStatus parses "RAnnnSMTRPAX".
func parseAreaStatus(raw string) (Line, bool) {
	area, ok := digits3(raw, 2)
	if !ok || len(raw) < 12 {
		return Line{}, false
	}
	return Line{
		Kind: KindAreaStatus,
		AreaStatus: AreaStatus{
			Area:        area,
			Status:      raw[5],
			Memory:      raw[6],
			Trouble:     raw[7],
			Ready:       raw[8],
			Programming: raw[9],
			Alarm:       raw[10],
			Strobe:      raw[11],
		},
	}, true
}

// parseZoneStatus parses "RZnnnSAFSL".
func parseZoneStatus(raw string) (Line, bool) {
	zone, ok := digits3(raw, 2)
	if !ok || len(raw) < 10 {
		return Line{}, false
	}
	return Line{
		Kind: KindZoneStatus,
		ZoneStatus: ZoneStatus{
			Zone:        zone,
			Status:      raw[5],
			Alarm:       raw[6],
			Fire:        raw[7],
			Supervision: raw[8],
			LowBattery:  raw[9],
		},
	}, true
}

// parseLabel parses "ALnnn<label>" / "ZLnnn<label>".
func parseLabel(raw string, kind Kind) (Line, bool) {
	num, ok := digits3(raw, 2)
	if !ok {
		return Line{}, false
	}
	label := ""
	if len(raw) > 5 {
		label = trimLabel(raw[5:])
	}
	return Line{Kind: kind, Label: Label{Num: num, Label: label}}, true
}

// parseDisarmAck parses "ADnnnok" / "ADnnnfail".
func parseDisarmAck(raw string) (Line, bool) {
	area, ok := digits3(raw, 2)
	if !ok || len(raw) < 6 {
		return Line{}, false
	}
	rest := raw[5:]
	if rest == "ok" {
		return Line{Kind: KindDisarmAck, DisarmAck: DisarmAck{Area: area, OK: true}}, true
	}
	if rest == "fail" {
		return Line{Kind: KindDisarmAck, DisarmAck: DisarmAck{Area: area, OK: false}}, true
	}
	return Line{}, false
}

// trimLabel takes up to 16 bytes of raw label payload, then right-trims
// spaces and NULs, matching the panel's fixed-width field convention.
func trimLabel(payload string) string {
	if len(payload) > 16 {
		payload = payload[:16]
	}
	return strings.TrimRight(payload, " \x00")
}
