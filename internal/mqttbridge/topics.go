package mqttbridge

import "fmt"

func daemonTopic(prefix string) string { return prefix + "/daemon" }

func areaSimpleTopic(prefix string, area int) string {
	return fmt.Sprintf("%s/area/%d", prefix, area)
}

func areaStateTopic(prefix string, area int) string {
	return fmt.Sprintf("%s/area/%d/state", prefix, area)
}

func areaSetTopic(prefix string, area int) string {
	return fmt.Sprintf("%s/area/%d/set", prefix, area)
}

func zoneSimpleTopic(prefix string, area, zone int) string {
	return fmt.Sprintf("%s/area/%d/zone/%d", prefix, area, zone)
}

func zoneAlarmTopic(prefix string, area, zone int) string {
	return fmt.Sprintf("%s/area/%d/zone/%d/alarm", prefix, area, zone)
}

func zoneStateTopic(prefix string, area, zone int) string {
	return fmt.Sprintf("%s/area/%d/zone/%d/state", prefix, area, zone)
}

func utilityKeyTopic(prefix string) string { return prefix + "/utilitykey" }
