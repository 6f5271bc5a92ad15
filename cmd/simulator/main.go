package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"trackgen/internal/config"
	"trackgen/internal/protocol/gps103"
	"trackgen/internal/simulator"
	"trackgen/internal/track"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	simCfg := cfg.Simulator

	waypoints, err := simCfg.WaypointLoop()
	if err != nil {
		log.Fatalf("Invalid waypoints: %v", err)
	}
	trk, err := track.Build(waypoints, simCfg.Step)
	if err != nil {
		log.Fatalf("Failed to build track: %v", err)
	}
	log.Printf("Built %d-point track from %d waypoints", trk.Len(), len(waypoints))

	if simCfg.TrackGeoJSON != "" {
		data, err := trk.GeoJSON()
		if err != nil {
			log.Fatalf("Failed to render track: %v", err)
		}
		if err := os.WriteFile(simCfg.TrackGeoJSON, data, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", simCfg.TrackGeoJSON, err)
		}
		log.Printf("Wrote track to %s", simCfg.TrackGeoJSON)
	}

	encoder, err := gps103.NewEncoder(gps103.Format(simCfg.Format))
	if err != nil {
		log.Fatalf("Invalid format: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialer := net.Dialer{Timeout: simCfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", simCfg.Address)
	if err != nil {
		log.Fatalf("%v: dial %s: %v", simulator.ErrTransport, simCfg.Address, err)
	}
	defer conn.Close()
	log.Printf("Connected to %s", simCfg.Address)

	sim, err := simulator.New(conn, trk, simulator.Options{
		DeviceID: simCfg.DeviceID,
		DriverID: simCfg.DriverID,
		Period:   simCfg.Period,
		Speed:    simCfg.Speed,
		Reports:  simCfg.Reports,
		ReadPoll: simCfg.ReadPoll,
		Encoder:  encoder,
	})
	if err != nil {
		log.Fatalf("Failed to create simulator: %v", err)
	}

	if err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Simulator stopped: %v", err)
	}
	log.Println("Simulator stopped")
}
