package prt3

import "testing"

func TestParseEvent(t *testing.T) {
	line, ok := Parse("G009N001A001")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if line.Kind != KindEvent {
		t.Fatalf("expected KindEvent, got %v", line.Kind)
	}
	if line.Event != (Event{Group: 9, Num: 1, Area: 1}) {
		t.Errorf("unexpected event: %+v", line.Event)
	}
}

func TestParseDegenerateEventIsNoOp(t *testing.T) {
	line, ok := Parse("G000N000A000")
	if !ok {
		t.Fatal("expected a degenerate but well-formed event line to parse")
	}
	if line.Event != (Event{Group: 0, Num: 0, Area: 0}) {
		t.Errorf("unexpected event: %+v", line.Event)
	}
}

func TestParseAreaStatus(t *testing.T) {
	line, ok := Parse("RA001DOOOOOOO")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if line.Kind != KindAreaStatus {
		t.Fatalf("expected KindAreaStatus, got %v", line.Kind)
	}
	want := AreaStatus{Area: 1, Status: 'D', Memory: 'O', Trouble: 'O', Ready: 'O', Programming: 'O', Alarm: 'O', Strobe: 'O'}
	if line.AreaStatus != want {
		t.Errorf("unexpected area status: %+v, want %+v", line.AreaStatus, want)
	}
}

func TestParseZoneStatus(t *testing.T) {
	line, ok := Parse("RZ003COOOO")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if line.Kind != KindZoneStatus {
		t.Fatalf("expected KindZoneStatus, got %v", line.Kind)
	}
	want := ZoneStatus{Zone: 3, Status: 'C', Alarm: 'O', Fire: 'O', Supervision: 'O', LowBattery: 'O'}
	if line.ZoneStatus != want {
		t.Errorf("unexpected zone status: %+v, want %+v", line.ZoneStatus, want)
	}
}

func TestParseAreaLabelTrimsTrailingSpaces(t *testing.T) {
	line, ok := Parse("AL001KITCHEN         ")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if line.Kind != KindAreaLabel {
		t.Fatalf("expected KindAreaLabel, got %v", line.Kind)
	}
	if line.Label != (Label{Num: 1, Label: "KITCHEN"}) {
		t.Errorf("unexpected label: %+v", line.Label)
	}
}

func TestParseZoneLabel(t *testing.T) {
	line, ok := Parse("ZL003FRONT DOOR   ")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if line.Kind != KindZoneLabel {
		t.Fatalf("expected KindZoneLabel, got %v", line.Kind)
	}
	if line.Label.Num != 3 || line.Label.Label != "FRONT DOOR" {
		t.Errorf("unexpected label: %+v", line.Label)
	}
}

func TestParseDisarmAck(t *testing.T) {
	tests := []struct {
		raw  string
		want DisarmAck
	}{
		{"AD001ok", DisarmAck{Area: 1, OK: true}},
		{"AD002fail", DisarmAck{Area: 2, OK: false}},
	}
	for _, tt := range tests {
		line, ok := Parse(tt.raw)
		if !ok {
			t.Fatalf("expected %q to parse", tt.raw)
		}
		if line.Kind != KindDisarmAck {
			t.Fatalf("expected KindDisarmAck for %q, got %v", tt.raw, line.Kind)
		}
		if line.DisarmAck != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.raw, line.DisarmAck, tt.want)
		}
	}
}

func TestParseUnknownPrefixIsRejected(t *testing.T) {
	for _, raw := range []string{"", "X001", "Q", "RB001"} {
		if _, ok := Parse(raw); ok {
			t.Errorf("expected %q to be rejected", raw)
		}
	}
}

func TestRequestBuilders(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"area status", AreaStatusRequest(1), "RA001"},
		{"area label", AreaLabelRequest(1), "AL001"},
		{"zone status", ZoneStatusRequest(3), "RZ003"},
		{"zone label", ZoneLabelRequest(3), "ZL003"},
		{"arm with code", ArmWithCode(1, ArmAway, "1234"), "AA001A1234"},
		{"disarm with code", DisarmWithCode(1, "1234"), "AD0011234"},
		{"quick arm", QuickArm(1, ArmStay), "AQ001S"},
		{"utility key", UtilityKey(7), "UK007"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
