// Package panel owns the Area and Zone record tables and the protocol
// engine that mutates them from parsed PRT3 lines and inbound MQTT
// commands. It is the sole owner of this state; everything it hands to
// other tasks is a value snapshot.
package panel

import "paraevo-mqtt/internal/prt3"

// Area represents one partition. Zero value is not valid; use NewArea.
type Area struct {
	Num         int
	Name        string
	Status      byte
	Memory      byte
	Trouble     byte
	Ready       byte
	Programming byte
	Alarm       byte
	Strobe      byte
	MQTTState   AreaState
	FirstReport bool
	Dirty       bool
}

// NewArea returns a freshly configured area record with neutral status
// bytes, awaiting its first report.
func NewArea(num int) *Area {
	return &Area{
		Num:         num,
		Status:      prt3.StatusOK,
		Memory:      prt3.StatusOK,
		Trouble:     prt3.StatusOK,
		Ready:       prt3.StatusOK,
		Programming: prt3.StatusOK,
		Alarm:       prt3.StatusOK,
		Strobe:      prt3.StatusOK,
		MQTTState:   Disarmed,
		FirstReport: true,
	}
}

// Each setter diffs against the stored value and only then sets Dirty.
// This is the one gated-mutation pattern every field update goes through.

func (a *Area) SetStatus(v byte) bool      { return setByte(&a.Status, v, &a.Dirty) }
func (a *Area) SetMemory(v byte) bool      { return setByte(&a.Memory, v, &a.Dirty) }
func (a *Area) SetTrouble(v byte) bool     { return setByte(&a.Trouble, v, &a.Dirty) }
func (a *Area) SetReady(v byte) bool       { return setByte(&a.Ready, v, &a.Dirty) }
func (a *Area) SetProgramming(v byte) bool { return setByte(&a.Programming, v, &a.Dirty) }
func (a *Area) SetAlarm(v byte) bool       { return setByte(&a.Alarm, v, &a.Dirty) }
func (a *Area) SetStrobe(v byte) bool      { return setByte(&a.Strobe, v, &a.Dirty) }

// SetName applies a trimmed label. Labels are metadata: they never set Dirty.
func (a *Area) SetName(v string) { a.Name = v }

// RecomputeState refreshes the derived MQTT state. It is idempotent and
// never sets Dirty on its own.
func (a *Area) RecomputeState() {
	a.MQTTState = DeriveAreaState(a.Status, a.Alarm, a.MQTTState)
}

// Snapshot returns an immutable copy suitable for sending over a channel.
func (a *Area) Snapshot() AreaSnapshot {
	return AreaSnapshot{
		Num: a.Num, Name: a.Name,
		Status: a.Status, Memory: a.Memory, Trouble: a.Trouble, Ready: a.Ready,
		Programming: a.Programming, Alarm: a.Alarm, Strobe: a.Strobe,
		MQTTState: a.MQTTState, FirstReport: a.FirstReport,
	}
}

// Zone represents one sensor input, permanently bound to its parent area.
type Zone struct {
	Num         int
	Area        int
	Name        string
	Status      byte
	Alarm       byte
	Fire        byte
	Supervision byte
	Battery     byte
	Bypassed    byte
	MQTTState   ZoneState
	Dirty       bool
}

// NewZone returns a freshly configured zone record bound to area.
func NewZone(num, area int) *Zone {
	return &Zone{
		Num: num, Area: area,
		Status:      prt3.ZoneClosed,
		Alarm:       prt3.StatusOK,
		Fire:        prt3.StatusOK,
		Supervision: prt3.StatusOK,
		Battery:     prt3.StatusOK,
		Bypassed:    prt3.StatusOK,
		MQTTState:   ZoneOff,
	}
}

func (z *Zone) SetStatus(v byte) bool      { return setByte(&z.Status, v, &z.Dirty) }
func (z *Zone) SetAlarm(v byte) bool       { return setByte(&z.Alarm, v, &z.Dirty) }
func (z *Zone) SetFire(v byte) bool        { return setByte(&z.Fire, v, &z.Dirty) }
func (z *Zone) SetSupervision(v byte) bool { return setByte(&z.Supervision, v, &z.Dirty) }
func (z *Zone) SetBattery(v byte) bool     { return setByte(&z.Battery, v, &z.Dirty) }
func (z *Zone) SetBypassed(v byte) bool    { return setByte(&z.Bypassed, v, &z.Dirty) }

func (z *Zone) SetName(v string) { z.Name = v }

func (z *Zone) RecomputeState() {
	z.MQTTState = DeriveZoneState(z.Status, z.Alarm, z.Fire)
}

func (z *Zone) Snapshot() ZoneSnapshot {
	return ZoneSnapshot{
		Num: z.Num, Area: z.Area, Name: z.Name,
		Status: z.Status, Alarm: z.Alarm, Fire: z.Fire,
		Supervision: z.Supervision, Battery: z.Battery, Bypassed: z.Bypassed,
		MQTTState: z.MQTTState,
	}
}

// setByte is the shared gated-mutation primitive every field setter uses.
func setByte(field *byte, v byte, dirty *bool) bool {
	if *field == v {
		return false
	}
	*field = v
	*dirty = true
	return true
}

// AreaSnapshot is an immutable, point-in-time copy of an Area record.
type AreaSnapshot struct {
	Num                                                     int
	Name                                                    string
	Status, Memory, Trouble, Ready, Programming, Alarm, Strobe byte
	MQTTState                                                AreaState
	FirstReport                                              bool
}

// ZoneSnapshot is an immutable, point-in-time copy of a Zone record.
type ZoneSnapshot struct {
	Num, Area                                    int
	Name                                         string
	Status, Alarm, Fire, Supervision, Battery, Bypassed byte
	MQTTState                                    ZoneState
}

// AlarmActive reports whether the zone's raw alarm byte is the in-alarm
// code, independent of its derived MQTTState — the MQTT alarm sub-topic
// is a distinct derivation from the same raw field (published by
// mqttbridge's PublishZone).
func (z ZoneSnapshot) AlarmActive() bool { return z.Alarm == prt3.ZoneInAlarm }
