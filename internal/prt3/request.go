package prt3

import "fmt"

// ArmType selects the T field of an AA/AQ request.
type ArmType byte

const (
	ArmAway    ArmType = 'A'
	ArmStay    ArmType = 'S'
	ArmForce   ArmType = 'F'
	ArmInstant ArmType = 'I'
)

// The builders below are the only place outbound PRT3 wire formats are
// spelled out. None append a line terminator — the serial framer owns the
// trailing CR.

func AreaStatusRequest(area int) string { return fmt.Sprintf("RA%03d", area) }
func AreaLabelRequest(area int) string  { return fmt.Sprintf("AL%03d", area) }
func ZoneStatusRequest(zone int) string { return fmt.Sprintf("RZ%03d", zone) }
func ZoneLabelRequest(zone int) string  { return fmt.Sprintf("ZL%03d", zone) }

// ArmWithCode requests an armed/stay/force/instant transition using a
// user code: "AAnnnT<code>".
func ArmWithCode(area int, kind ArmType, code string) string {
	return fmt.Sprintf("AA%03d%c%s", area, kind, code)
}

// DisarmWithCode requests a disarm using a user code: "ADnnn<code>".
func DisarmWithCode(area int, code string) string {
	return fmt.Sprintf("AD%03d%s", area, code)
}

// QuickArm requests an arm transition with no user code: "AQnnnT".
func QuickArm(area int, kind ArmType) string {
	return fmt.Sprintf("AQ%03d%c", area, kind)
}

// UtilityKey requests a utility key press: "UKnnn". Caller must have
// already validated 1 <= key <= 251.
func UtilityKey(key int) string {
	return fmt.Sprintf("UK%03d", key)
}
