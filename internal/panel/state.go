package panel

import "paraevo-mqtt/internal/prt3"

// AreaState is the MQTT-consumer-facing enum for an area's condition.
type AreaState string

const (
	Disarmed          AreaState = "disarmed"
	ArmedHome         AreaState = "armed_home"
	ArmedAway         AreaState = "armed_away"
	ArmedNight        AreaState = "armed_night"
	ArmedVacation     AreaState = "armed_vacation"
	ArmedCustomBypass AreaState = "armed_custom_bypass"
	Pending           AreaState = "pending"
	Triggered         AreaState = "triggered"
	Arming            AreaState = "arming"
	Disarming         AreaState = "disarming"
)

// ZoneState is the MQTT-consumer-facing enum for a zone's condition.
type ZoneState string

const (
	ZoneOff ZoneState = "off"
	ZoneOn  ZoneState = "on"
)

// DeriveAreaState computes the MQTT state from the raw status and alarm
// bytes. An alarm takes priority over everything else; an unrecognized
// status leaves the previous state unchanged rather than guessing.
func DeriveAreaState(status, alarm byte, current AreaState) AreaState {
	if alarm == prt3.AreaInAlarm {
		return Triggered
	}
	switch status {
	case prt3.AreaDisarmed:
		return Disarmed
	case prt3.AreaStayArmed:
		return ArmedHome
	case prt3.AreaArmed, prt3.AreaForceArmed, prt3.AreaInstantArmed:
		return ArmedAway
	default:
		return current
	}
}

// DeriveZoneState computes the MQTT state from the raw status, alarm and
// fire bytes: off iff the zone is closed with no alarm and no fire.
func DeriveZoneState(status, alarm, fire byte) ZoneState {
	if status == prt3.ZoneClosed && alarm == prt3.StatusOK && fire == prt3.StatusOK {
		return ZoneOff
	}
	return ZoneOn
}
