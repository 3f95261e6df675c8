package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paraevo-mqtt/internal/config"
	"paraevo-mqtt/internal/metrics"
	"paraevo-mqtt/internal/mqttbridge"
	"paraevo-mqtt/internal/panel"
	"paraevo-mqtt/internal/prt3"
	"paraevo-mqtt/internal/serialio"
)

const version = "1.0.0"

// inventoryPace matches the panel's half-duplex turnaround observed in
// the reference implementation.
const inventoryPace = 20 * time.Millisecond

// presenceInterval re-announces the daemon's online presence, independent
// of --status_period.
const presenceInterval = 60 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if verr, ok := err.(*config.ValidationError); ok {
			fmt.Fprintln(os.Stderr, verr.Error())
			os.Exit(verr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if cfg.Version {
		fmt.Println("paraevo-mqtt " + version)
		return
	}
	if cfg.Help {
		fmt.Fprintln(os.Stderr, "usage: paraevo-mqtt --device=<path> --mqtt_server=<host> --area=<n> --zones=<csv> [...]")
		return
	}

	if !cfg.Daemon {
		log.Printf("paraevo-mqtt %s starting, %d area(s), %d zone(s)", version, len(cfg.Areas), len(cfg.Zones))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down", sig)
		cancel()
	}()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil && ctx.Err() == nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	port, err := serialio.Open(cfg.Device)
	if err != nil {
		log.Fatalf("opening serial device: %v", err)
	}
	defer port.Close()
	framer := serialio.NewFramer(port)

	bridge, err := mqttbridge.New(mqttbridge.Options{
		Server:   cfg.MQTTServer,
		Port:     cfg.MQTTPort,
		ClientID: cfg.MQTTClientID,
		Login:    cfg.MQTTLogin,
		Password: cfg.MQTTPassword,
		Retain:   cfg.MQTTRetain,
		Prefix:   cfg.MQTTTopic,
	})
	if err != nil {
		log.Fatalf("connecting to MQTT: %v", err)
	}
	defer bridge.Close()

	engine := panel.NewEngine(cfg.Areas, cfg.Zones, cfg.UserCode)

	linesCh := make(chan prt3.Line, 64)
	writeCh := make(chan string, 64)

	go func() {
		serialReader(ctx, framer, linesCh, cfg.Verbose)
		cancel() // a failed serial read shuts the whole daemon down
	}()
	go serialWriter(ctx, port, writeCh, cfg.Verbose)
	go inventoryTask(ctx, engine, writeCh)
	go presenceTask(ctx, bridge, presenceInterval)

	protocolLoop(ctx, engine, bridge, linesCh, writeCh, time.Duration(cfg.StatusPeriod)*time.Second)

	log.Println("shutdown complete")
}

// serialReader reads framed lines, parses them, and forwards recognized
// ones to the protocol task. It exits (and cancels nothing itself) when
// the underlying read fails or the context is done; main cancels the root
// context once it has returned.
func serialReader(ctx context.Context, framer *serialio.Framer, out chan<- prt3.Line, verbose bool) {
	for {
		raw, err := framer.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("serial read failed, shutting down: %v", err)
			return
		}
		if verbose {
			log.Printf("serial <- %q", raw)
		}
		line, ok := prt3.Parse(raw)
		if !ok {
			log.Printf("dropping unrecognized line %q", raw)
			continue
		}
		metrics.LinesParsed.WithLabelValues(kindLabel(line.Kind)).Inc()
		select {
		case out <- line:
		case <-ctx.Done():
			return
		}
	}
}

func kindLabel(k prt3.Kind) string {
	switch k {
	case prt3.KindEvent:
		return "event"
	case prt3.KindAreaStatus:
		return "area_status"
	case prt3.KindZoneStatus:
		return "zone_status"
	case prt3.KindAreaLabel:
		return "area_label"
	case prt3.KindZoneLabel:
		return "zone_label"
	case prt3.KindDisarmAck:
		return "disarm_ack"
	default:
		return "unknown"
	}
}

func serialWriter(ctx context.Context, port *serialio.Port, in <-chan string, verbose bool) {
	for {
		select {
		case req := <-in:
			if verbose {
				log.Printf("serial -> %q", req)
			}
			if err := serialio.WriteLine(port, req); err != nil {
				log.Printf("serial write failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// inventoryTask sends the one-shot startup sweep, paced so the
// half-duplex panel has time to answer each request.
func inventoryTask(ctx context.Context, engine *panel.Engine, out chan<- string) {
	for _, req := range engine.InitialInventoryRequests() {
		select {
		case out <- req:
		case <-ctx.Done():
			return
		}
		select {
		case <-time.After(inventoryPace):
		case <-ctx.Done():
			return
		}
	}
}

// presenceTask re-publishes the daemon's online presence on a fixed
// interval, independent of the area status refresh period — a retained
// LWT counterpart only covers the connect moment, not a broker that
// drops the retained message or a subscriber that joins mid-session.
func presenceTask(ctx context.Context, bridge *mqttbridge.Bridge, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := bridge.PublishPresence(ctx); err != nil {
				log.Printf("republishing presence: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// protocolLoop is the single goroutine that owns the engine: it drains
// inbound lines and MQTT commands, runs the idle-triggered status
// refresh, and fans out whatever the engine produces to the serial
// writer and the MQTT bridge.
//
// The refresh fires only once the loop has sat idle for period — it is a
// timer reset on every line/command, not a ticker on a fixed cadence, so
// sustained traffic never triggers gratuitous extra polling.
func protocolLoop(ctx context.Context, engine *panel.Engine, bridge *mqttbridge.Bridge, lines <-chan prt3.Line, writeCh chan<- string, period time.Duration) {
	timer := time.NewTimer(period)
	defer timer.Stop()

	resetTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(period)
	}

	for {
		select {
		case line := <-lines:
			apply(ctx, engine.HandleLine(line), bridge, writeCh)
			resetTimer()

		case cmd := <-bridge.Commands():
			apply(ctx, engine.HandleCommand(cmd), bridge, writeCh)
			resetTimer()

		case <-timer.C:
			for _, req := range engine.RefreshRequests() {
				select {
				case writeCh <- req:
				case <-ctx.Done():
					return
				}
			}
			timer.Reset(period)

		case <-ctx.Done():
			return
		}
	}
}

func apply(ctx context.Context, res panel.Result, bridge *mqttbridge.Bridge, writeCh chan<- string) {
	for _, req := range res.SerialRequests {
		select {
		case writeCh <- req:
		case <-ctx.Done():
			return
		}
	}
	for _, a := range res.AreaReports {
		metrics.ReportsEmitted.WithLabelValues("area").Inc()
		if err := bridge.PublishArea(ctx, a); err != nil {
			log.Printf("publishing area %d: %v", a.Num, err)
		}
	}
	for _, z := range res.ZoneReports {
		metrics.ReportsEmitted.WithLabelValues("zone").Inc()
		if err := bridge.PublishZone(ctx, z); err != nil {
			log.Printf("publishing zone %d: %v", z.Num, err)
		}
	}
}
