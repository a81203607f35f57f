package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jusunglee/departures-go/internal/config"
	"github.com/jusunglee/departures-go/internal/models"
	"github.com/jusunglee/departures-go/pkg/departures"
)

func main() {
	var (
		configFile = flag.String("config", "", "YAML config file")
		apiKey     = flag.String("transitland-api-key", "", "Transitland API key (overrides config)")
		lat        = flag.Float64("lat", 43.6453, "Latitude")
		lon        = flag.Float64("lon", -79.3806, "Longitude")
		radius     = flag.Int("radius", 0, "Search radius in metres (0 uses config)")
		device     = flag.String("device", "", "Device the stops are remembered for")
		refresh    = flag.Bool("refresh", false, "Run a refresh cycle after the first cycle")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *apiKey != "" {
		cfg.TransitlandAPIKey = *apiKey
	}
	if cfg.TransitlandAPIKey == "" {
		logger.Error("Transitland API key required (use -transitland-api-key flag or TRANSITLAND_API_KEY env var)")
		os.Exit(1)
	}
	// the CLI never runs the background refresher
	cfg.RefreshInterval = 0

	client, err := departures.NewLocal(*cfg, departures.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to create departures client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx := context.Background()

	out := client.Locate(ctx, *device, departures.FixedPosition{Lat: *lat, Lon: *lon}, *radius)
	fmt.Printf("\nDepartures near (%.4f, %.4f):\n", *lat, *lon)
	printOutcome(out)

	if *refresh {
		out = client.RefreshCycle(ctx, *device)
		fmt.Println("\nAfter refresh:")
		printOutcome(out)
	}

	if !out.OK() {
		os.Exit(1)
	}
}

func printOutcome(out departures.Outcome) {
	if !out.OK() {
		fmt.Printf("  error %d (%s): %v\n", out.Code, out.Code, out.Err)
		return
	}

	source := string(out.Source)
	if out.FellBack {
		source += " (fallback)"
	}
	fmt.Printf("  %d routes from %s\n", out.Record.Count, source)

	for _, s := range out.Record.Slots {
		fmt.Printf("  %3d %s  %-6s %-24s %s  [%s]\n",
			s.ETA, s.Unit, s.RouteNumber, s.DestName, s.StopName, vehicleLabel(s))
	}
}

func vehicleLabel(s models.Slot) string {
	return fmt.Sprintf("%s 0x%02x", s.VehicleType, uint8(s.Color))
}
