package panel

import (
	"log"

	"paraevo-mqtt/internal/prt3"
)

// MaxAreas and MaxZones are the EVO192 bounds; EVO48 installs simply
// never configure areas/zones above 4/48.
const (
	MaxAreas = 8
	MaxZones = 96
)

// AreaConfig and ZoneConfig describe one configured entity at startup.
type AreaConfig struct{ Num int }
type ZoneConfig struct{ Num, Area int }

// Engine owns the Area and Zone record tables and is the only component
// that mutates them. It is not safe for concurrent use — exactly one
// goroutine (the protocol task) should call its methods.
type Engine struct {
	areas     map[int]*Area
	zones     map[int]*Zone
	areaOrder []int
	zoneOrder []int
	userCode  string
}

// NewEngine builds the record tables from configuration. Order of areas
// and zones is preserved for the initial inventory sweep.
func NewEngine(areaCfg []AreaConfig, zoneCfg []ZoneConfig, userCode string) *Engine {
	e := &Engine{
		areas:    make(map[int]*Area, len(areaCfg)),
		zones:    make(map[int]*Zone, len(zoneCfg)),
		userCode: userCode,
	}
	for _, ac := range areaCfg {
		e.areas[ac.Num] = NewArea(ac.Num)
		e.areaOrder = append(e.areaOrder, ac.Num)
	}
	for _, zc := range zoneCfg {
		e.zones[zc.Num] = NewZone(zc.Num, zc.Area)
		e.zoneOrder = append(e.zoneOrder, zc.Num)
	}
	return e
}

// Result collects everything a single call into the engine produced.
type Result struct {
	SerialRequests []string
	AreaReports    []AreaSnapshot
	ZoneReports    []ZoneSnapshot
}

func (r *Result) sendSerial(req string) { r.SerialRequests = append(r.SerialRequests, req) }

func (e *Engine) emitAreaIfDirty(r *Result, a *Area) {
	if !a.Dirty {
		return
	}
	r.AreaReports = append(r.AreaReports, a.Snapshot())
	a.Dirty = false
	a.FirstReport = false
}

func (e *Engine) emitZoneIfDirty(r *Result, z *Zone) {
	if !z.Dirty {
		return
	}
	r.ZoneReports = append(r.ZoneReports, z.Snapshot())
	z.Dirty = false
}

// InitialInventoryRequests returns, in configuration order, a label then
// a status request per configured area, followed by the same per zone.
// Pacing the sends is the caller's job (§4.3).
func (e *Engine) InitialInventoryRequests() []string {
	var reqs []string
	for _, num := range e.areaOrder {
		reqs = append(reqs, prt3.AreaLabelRequest(num), prt3.AreaStatusRequest(num))
	}
	for _, num := range e.zoneOrder {
		reqs = append(reqs, prt3.ZoneLabelRequest(num), prt3.ZoneStatusRequest(num))
	}
	return reqs
}

// RefreshRequests returns a status request for every configured area.
// Zones are not refreshed periodically (§4.4).
func (e *Engine) RefreshRequests() []string {
	reqs := make([]string, 0, len(e.areaOrder))
	for _, num := range e.areaOrder {
		reqs = append(reqs, prt3.AreaStatusRequest(num))
	}
	return reqs
}

// HandleLine applies one parsed inbound PRT3 line and returns whatever
// outbound effects it produced.
func (e *Engine) HandleLine(line prt3.Line) Result {
	switch line.Kind {
	case prt3.KindAreaStatus:
		return e.handleAreaStatus(line.AreaStatus)
	case prt3.KindZoneStatus:
		return e.handleZoneStatus(line.ZoneStatus)
	case prt3.KindAreaLabel:
		var rec labeled
		if a, ok := e.areas[line.Label.Num]; ok {
			rec = a
		}
		e.handleLabel(rec, line.Label.Label)
		return Result{}
	case prt3.KindZoneLabel:
		var rec labeled
		if z, ok := e.zones[line.Label.Num]; ok {
			rec = z
		}
		e.handleLabel(rec, line.Label.Label)
		return Result{}
	case prt3.KindDisarmAck:
		return e.handleDisarmAck(line.DisarmAck)
	case prt3.KindEvent:
		return e.handleEvent(line.Event)
	default:
		return Result{}
	}
}

type labeled interface{ SetName(string) }

func (e *Engine) handleLabel(rec labeled, label string) {
	if rec == nil {
		log.Printf("panel: label for unconfigured entity, dropping")
		return
	}
	rec.SetName(label)
}

func (e *Engine) handleAreaStatus(s prt3.AreaStatus) Result {
	a, ok := e.areas[s.Area]
	if !ok {
		log.Printf("panel: area status for unconfigured area %d, dropping", s.Area)
		return Result{}
	}
	a.SetStatus(s.Status)
	a.SetMemory(s.Memory)
	a.SetTrouble(s.Trouble)
	a.SetReady(s.Ready)
	a.SetProgramming(s.Programming)
	a.SetAlarm(s.Alarm)
	a.SetStrobe(s.Strobe)
	a.RecomputeState()

	var r Result
	e.emitAreaIfDirty(&r, a)
	return r
}

func (e *Engine) handleZoneStatus(s prt3.ZoneStatus) Result {
	z, ok := e.zones[s.Zone]
	if !ok {
		log.Printf("panel: zone status for unconfigured zone %d, dropping", s.Zone)
		return Result{}
	}
	z.SetStatus(s.Status)
	z.SetAlarm(s.Alarm)
	z.SetFire(s.Fire)
	z.SetSupervision(s.Supervision)
	z.SetBattery(s.LowBattery)
	z.RecomputeState()

	var r Result
	e.emitZoneIfDirty(&r, z)

	// Gated lift: only raise the parent area's alarm if it wasn't already
	// raised, distinct in shape from the unconditional lift used by the
	// G024 event path below (both rely on the setter's own no-op check).
	if z.Alarm == prt3.ZoneInAlarm {
		if area, ok := e.areas[z.Area]; ok && area.Alarm == prt3.StatusOK {
			area.SetAlarm(prt3.AreaInAlarm)
			area.RecomputeState()
			e.emitAreaIfDirty(&r, area)
		}
	}
	return r
}

func (e *Engine) handleDisarmAck(d prt3.DisarmAck) Result {
	if !d.OK {
		return Result{}
	}
	a, ok := e.areas[d.Area]
	if !ok {
		log.Printf("panel: disarm ack for unconfigured area %d, dropping", d.Area)
		return Result{}
	}
	a.SetStatus(prt3.AreaDisarmed)
	a.RecomputeState()

	var r Result
	e.emitAreaIfDirty(&r, a)
	return r
}

func (e *Engine) handleEvent(ev prt3.Event) Result {
	switch ev.Group {
	case prt3.GroupZoneOK:
		return e.zoneStatusEvent(ev.Num, prt3.ZoneClosed)
	case prt3.GroupZoneOpen:
		return e.zoneStatusEvent(ev.Num, prt3.ZoneOpen)
	case prt3.GroupZoneTampered:
		return e.zoneStatusEvent(ev.Num, prt3.ZoneTampered)
	case prt3.GroupZoneFireLoop:
		return e.zoneStatusEvent(ev.Num, prt3.ZoneFire)

	case prt3.GroupArmingWithMaster, prt3.GroupArmingWithUserCode,
		prt3.GroupArmingWithKeyswitch, prt3.GroupSpecialArming:
		return e.armingEvent(ev)

	case prt3.GroupDisarmWithMaster, prt3.GroupDisarmWithUserCode, prt3.GroupDisarmWithKeyswitch,
		prt3.GroupDisarmAfterAlarmWithMaster, prt3.GroupDisarmAfterAlarmWithUserCode, prt3.GroupDisarmAfterAlarmWithKeyswitch,
		prt3.GroupAlarmCancelledWithMaster, prt3.GroupAlarmCancelledWithUserCode, prt3.GroupAlarmCancelledWithKeyswitch,
		prt3.GroupSpecialDisarm:
		return e.areaStatusEvent(ev.Area, prt3.AreaDisarmed)

	case prt3.GroupZoneBypassed:
		return e.zoneBypassedEvent(ev.Num)

	case prt3.GroupZoneInAlarm:
		return e.zoneAlarmEvent(ev)
	case prt3.GroupZoneFireAlarm:
		return e.zoneFireAlarmEvent(ev)
	case prt3.GroupZoneAlarmRestore:
		return e.zoneFieldEvent(ev.Num, func(z *Zone) { z.SetAlarm(prt3.StatusOK) })
	case prt3.GroupZoneFireRestore:
		return e.zoneFieldEvent(ev.Num, func(z *Zone) { z.SetFire(prt3.StatusOK) })

	case prt3.GroupZoneShutdown, prt3.GroupZoneTamper, prt3.GroupZoneTamperRestore,
		prt3.GroupSpecialTamper, prt3.GroupTroubleEvent, prt3.GroupTroubleRestore:
		log.Printf("panel: event group %d logged only", ev.Group)
		return Result{}

	case prt3.GroupStatus1:
		return e.status1Event(ev)
	case prt3.GroupStatus2:
		return e.status2Event(ev)
	case prt3.GroupStatus3:
		log.Printf("panel: status-3 event logged only")
		return Result{}

	default:
		log.Printf("panel: event group %d/%d not supported", ev.Group, ev.Num)
		return Result{}
	}
}

func (e *Engine) zoneStatusEvent(zoneNum int, status byte) Result {
	z, ok := e.zones[zoneNum]
	if !ok {
		log.Printf("panel: event for unconfigured zone %d, dropping", zoneNum)
		return Result{}
	}
	z.SetStatus(status)
	z.RecomputeState()
	var r Result
	e.emitZoneIfDirty(&r, z)
	return r
}

func (e *Engine) zoneFieldEvent(zoneNum int, mutate func(*Zone)) Result {
	z, ok := e.zones[zoneNum]
	if !ok {
		log.Printf("panel: event for unconfigured zone %d, dropping", zoneNum)
		return Result{}
	}
	mutate(z)
	z.RecomputeState()
	var r Result
	e.emitZoneIfDirty(&r, z)
	return r
}

func (e *Engine) zoneBypassedEvent(zoneNum int) Result {
	z, ok := e.zones[zoneNum]
	if !ok {
		log.Printf("panel: bypass event for unconfigured zone %d, dropping", zoneNum)
		return Result{}
	}
	z.SetBypassed(prt3.ZoneBypassed)
	var r Result
	e.emitZoneIfDirty(&r, z)
	return r
}

func (e *Engine) areaStatusEvent(areaNum int, status byte) Result {
	a, ok := e.areas[areaNum]
	if !ok {
		log.Printf("panel: event for unconfigured area %d, dropping", areaNum)
		return Result{}
	}
	a.SetStatus(status)
	a.RecomputeState()
	var r Result
	e.emitAreaIfDirty(&r, a)
	return r
}

func (e *Engine) armingEvent(ev prt3.Event) Result {
	a, ok := e.areas[ev.Area]
	if !ok {
		log.Printf("panel: arming event for unconfigured area %d, dropping", ev.Area)
		return Result{}
	}
	if a.Status != prt3.AreaDisarmed {
		return Result{}
	}
	newStatus := prt3.AreaArmed
	if ev.Group == prt3.GroupSpecialArming && ev.Num == 4 {
		newStatus = prt3.AreaStayArmed
	}
	a.SetStatus(newStatus)
	a.RecomputeState()
	var r Result
	e.emitAreaIfDirty(&r, a)
	return r
}

// zoneAlarmEvent mutates the zone then unconditionally lifts the area's
// alarm — unlike the RZ-response path, there is no explicit pre-check
// here; it relies solely on SetAlarm's own gated no-op for idempotency.
func (e *Engine) zoneAlarmEvent(ev prt3.Event) Result {
	var r Result
	if z, ok := e.zones[ev.Num]; ok {
		z.SetAlarm(prt3.ZoneInAlarm)
		z.RecomputeState()
		e.emitZoneIfDirty(&r, z)
	} else {
		log.Printf("panel: alarm event for unconfigured zone %d, dropping", ev.Num)
	}
	if a, ok := e.areas[ev.Area]; ok {
		a.SetAlarm(prt3.AreaInAlarm)
		a.RecomputeState()
		e.emitAreaIfDirty(&r, a)
	}
	return r
}

func (e *Engine) zoneFireAlarmEvent(ev prt3.Event) Result {
	var r Result
	if z, ok := e.zones[ev.Num]; ok {
		z.SetFire(prt3.ZoneFire)
		z.RecomputeState()
		e.emitZoneIfDirty(&r, z)
	} else {
		log.Printf("panel: fire alarm event for unconfigured zone %d, dropping", ev.Num)
	}
	if a, ok := e.areas[ev.Area]; ok {
		a.SetAlarm(prt3.AreaInAlarm)
		a.RecomputeState()
		e.emitAreaIfDirty(&r, a)
	}
	return r
}

func (e *Engine) status1Event(ev prt3.Event) Result {
	a, ok := e.areas[ev.Area]
	if !ok {
		log.Printf("panel: status-1 event for unconfigured area %d, dropping", ev.Area)
		return Result{}
	}
	switch ev.Num {
	case 2:
		a.SetStatus(prt3.AreaStayArmed)
	case 0, 1, 3:
		a.SetStatus(prt3.AreaArmed)
	case 4, 5, 6, 7:
		a.SetAlarm(prt3.AreaInAlarm)
	default:
		return Result{}
	}
	a.RecomputeState()
	var r Result
	e.emitAreaIfDirty(&r, a)
	return r
}

func (e *Engine) status2Event(ev prt3.Event) Result {
	a, ok := e.areas[ev.Area]
	if !ok {
		log.Printf("panel: status-2 event for unconfigured area %d, dropping", ev.Area)
		return Result{}
	}
	switch ev.Num {
	case 3:
		a.SetTrouble(prt3.AreaTrouble)
	case 4:
		a.SetMemory(prt3.AreaZoneInMemory)
	default:
		return Result{}
	}
	a.RecomputeState()
	var r Result
	e.emitAreaIfDirty(&r, a)
	return r
}

// HandleCommand translates an inbound MQTT command into panel requests.
func (e *Engine) HandleCommand(cmd Command) Result {
	switch cmd.Kind {
	case CmdAreaControl:
		return e.handleAreaControl(cmd)
	case CmdUtilityKey:
		return e.handleUtilityKey(cmd.UtilityKeyNum)
	default:
		return Result{}
	}
}

func (e *Engine) handleAreaControl(cmd Command) Result {
	if _, ok := e.areas[cmd.Area]; !ok {
		log.Printf("panel: control command for unconfigured area %d, dropping", cmd.Area)
		return Result{}
	}

	var r Result
	switch cmd.Action {
	case ActionArmAway:
		if e.userCode != "" {
			r.sendSerial(prt3.ArmWithCode(cmd.Area, prt3.ArmAway, e.userCode))
		} else {
			r.sendSerial(prt3.QuickArm(cmd.Area, prt3.ArmAway))
		}
	case ActionArmHome:
		// Stay-arm with a user code does not work through PRT3; always
		// quick-arm regardless of configuration.
		r.sendSerial(prt3.QuickArm(cmd.Area, prt3.ArmStay))
	case ActionDisarm:
		if e.userCode == "" {
			log.Printf("panel: disarm for area %d requires a user code, dropping", cmd.Area)
			return Result{}
		}
		r.sendSerial(prt3.DisarmWithCode(cmd.Area, e.userCode))
	}
	return r
}

func (e *Engine) handleUtilityKey(num int) Result {
	if num < 1 || num > 251 {
		log.Printf("panel: utility key %d out of range, dropping", num)
		return Result{}
	}
	var r Result
	r.sendSerial(prt3.UtilityKey(num))
	return r
}
