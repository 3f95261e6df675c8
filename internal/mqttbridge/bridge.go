// Package mqttbridge publishes panel state to MQTT and turns inbound
// MQTT commands into panel.Command values. It wraps a Paho client the
// same way the call-monitor publisher the rest of this codebase is
// grounded on wraps one, but bidirectionally: presence/state/zone
// topics out, area-control/utility-key topics in.
package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"paraevo-mqtt/internal/metrics"
	"paraevo-mqtt/internal/panel"
	"paraevo-mqtt/internal/publisher"
)

const qos = 1

// Options configures a Bridge.
type Options struct {
	Server   string
	Port     int
	ClientID string
	Login    string
	Password string
	Retain   bool
	Prefix   string
}

// mqttClient is the slice of mqtt.Client that Bridge actually drives.
// Declaring it narrowly lets tests substitute a fake without standing up
// a broker; *mqtt.client (via mqtt.NewClient) satisfies it structurally.
type mqttClient interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Bridge owns the MQTT connection for the daemon's lifetime. It is safe
// for concurrent use: publishes and the inbound command channel may be
// driven from different goroutines.
type Bridge struct {
	client mqttClient
	opts   Options

	commands chan panel.Command

	mu              sync.Mutex
	subscribedAreas map[int]bool
}

// Bridge publishes and closes the same way publisher.Publisher expects,
// so it can stand in wherever that narrower outbound-only interface is
// used.
var _ publisher.Publisher = (*Bridge)(nil)

// New connects to the broker, installs the last-will, and subscribes to
// the utility-key topic. The returned Bridge publishes P/daemon=online
// once connected.
func New(opts Options) (*Bridge, error) {
	b := &Bridge{
		opts:            opts,
		commands:        make(chan panel.Command, 32),
		subscribedAreas: make(map[int]bool),
	}

	broker := fmt.Sprintf("tcp://%s:%d", opts.Server, opts.Port)
	clientOpts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(opts.ClientID).
		SetUsername(opts.Login).
		SetPassword(opts.Password).
		SetWill(daemonTopic(opts.Prefix), "offline", qos, opts.Retain).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(60 * time.Second).
		SetOnConnectHandler(b.onConnect)

	b.client = mqtt.NewClient(clientOpts)
	token := b.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", broker, err)
	}
	return b, nil
}

func (b *Bridge) onConnect(c mqtt.Client) {
	if token := c.Publish(daemonTopic(b.opts.Prefix), qos, b.opts.Retain, "online"); token.Wait() && token.Error() != nil {
		metrics.MQTTPublishErrors.Inc()
	}
	if token := c.Subscribe(utilityKeyTopic(b.opts.Prefix), qos, b.handleUtilityKey); token.Wait() && token.Error() != nil {
		metrics.MQTTPublishErrors.Inc()
	}
}

// Commands returns the channel of inbound, decoded MQTT commands.
func (b *Bridge) Commands() <-chan panel.Command { return b.commands }

// SubscribeArea subscribes to P/area/<n>/set for the first time; repeat
// calls for an already-subscribed area are no-ops. Subscription is
// deferred to the first report per area (§5 startup handshake).
func (b *Bridge) SubscribeArea(area int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribedAreas[area] {
		return
	}
	b.subscribedAreas[area] = true
	topic := areaSetTopic(b.opts.Prefix, area)
	token := b.client.Subscribe(topic, qos, func(c mqtt.Client, m mqtt.Message) {
		b.handleAreaSet(area, m)
	})
	if token.Wait() && token.Error() != nil {
		log.Printf("mqttbridge: subscribing to %s: %v", topic, token.Error())
	}
}

func (b *Bridge) handleAreaSet(area int, m mqtt.Message) {
	var action panel.AreaAction
	switch strings.TrimSpace(string(m.Payload())) {
	case "ARM_AWAY":
		action = panel.ActionArmAway
	case "ARM_HOME":
		action = panel.ActionArmHome
	case "DISARM":
		action = panel.ActionDisarm
	default:
		metrics.CommandsDropped.Inc()
		return
	}
	b.commands <- panel.Command{Kind: panel.CmdAreaControl, Area: area, Action: action}
}

func (b *Bridge) handleUtilityKey(c mqtt.Client, m mqtt.Message) {
	n, err := strconv.Atoi(strings.TrimSpace(string(m.Payload())))
	if err != nil {
		metrics.CommandsDropped.Inc()
		return
	}
	b.commands <- panel.Command{Kind: panel.CmdUtilityKey, UtilityKeyNum: n}
}

// areaStatePayload mirrors the raw wire codes, not the derived enum.
type areaStatePayload struct {
	Num         int    `json:"num"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Memory      string `json:"memory"`
	Trouble     string `json:"trouble"`
	Ready       string `json:"ready"`
	Programming string `json:"programming"`
	Alarm       string `json:"alarm"`
	Strobe      string `json:"strobe"`
}

type zoneStatePayload struct {
	Num         int    `json:"num"`
	Area        int    `json:"area"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Alarm       string `json:"alarm"`
	Fire        string `json:"fire"`
	Supervision string `json:"supervision"`
	Battery     string `json:"battery"`
	Bypassed    string `json:"bypassed"`
}

// PublishArea sends the simple state, the JSON state, and (lazily)
// subscribes the area's control topic.
func (b *Bridge) PublishArea(ctx context.Context, a panel.AreaSnapshot) error {
	b.SubscribeArea(a.Num)

	if err := b.publish(ctx, areaSimpleTopic(b.opts.Prefix, a.Num), string(a.MQTTState)); err != nil {
		return err
	}

	payload, err := json.Marshal(areaStatePayload{
		Num: a.Num, Name: a.Name,
		Status: string(a.Status), Memory: string(a.Memory), Trouble: string(a.Trouble),
		Ready: string(a.Ready), Programming: string(a.Programming),
		Alarm: string(a.Alarm), Strobe: string(a.Strobe),
	})
	if err != nil {
		return fmt.Errorf("marshaling area state: %w", err)
	}
	return b.publish(ctx, areaStateTopic(b.opts.Prefix, a.Num), string(payload))
}

// PublishZone sends the simple on/off state, the independent alarm
// sub-topic, and the JSON state.
func (b *Bridge) PublishZone(ctx context.Context, z panel.ZoneSnapshot) error {
	if err := b.publish(ctx, zoneSimpleTopic(b.opts.Prefix, z.Area, z.Num), string(z.MQTTState)); err != nil {
		return err
	}

	alarm := "off"
	if z.AlarmActive() {
		alarm = "on"
	}
	if err := b.publish(ctx, zoneAlarmTopic(b.opts.Prefix, z.Area, z.Num), alarm); err != nil {
		return err
	}

	payload, err := json.Marshal(zoneStatePayload{
		Num: z.Num, Area: z.Area, Name: z.Name,
		Status: string(z.Status), Alarm: string(z.Alarm), Fire: string(z.Fire),
		Supervision: string(z.Supervision), Battery: string(z.Battery), Bypassed: string(z.Bypassed),
	})
	if err != nil {
		return fmt.Errorf("marshaling zone state: %w", err)
	}
	return b.publish(ctx, zoneStateTopic(b.opts.Prefix, z.Area, z.Num), string(payload))
}

// Publish implements publisher.Publisher.
func (b *Bridge) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.publish(ctx, topic, string(payload))
}

// PublishPresence re-announces P/daemon=online, independent of the area
// status refresh period. cmd/paraevo-mqtt calls this on a 60-second
// ticker so the presence topic stays fresh between connects even if the
// broker never redelivers the retained message.
func (b *Bridge) PublishPresence(ctx context.Context) error {
	return b.publish(ctx, daemonTopic(b.opts.Prefix), "online")
}

func (b *Bridge) publish(_ context.Context, topic, payload string) error {
	metrics.MQTTPublishes.Inc()
	token := b.client.Publish(topic, qos, b.opts.Retain, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		metrics.MQTTPublishErrors.Inc()
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Close publishes the offline presence message and disconnects.
func (b *Bridge) Close() error {
	b.publish(context.Background(), daemonTopic(b.opts.Prefix), "offline")
	b.client.Disconnect(1000)
	return nil
}
