package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"transit_router/internal/logging"
	"transit_router/pkg/catalogue"
	"transit_router/pkg/config"
	"transit_router/pkg/ingest"
)

var rootCmd = &cobra.Command{
	Use:               "transit",
	Short:             "Transit catalogue and router",
	Long:              "Loads bus stops and routes, answers statistics and route requests, and serves them over HTTP",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	configPath string
	quiet      bool

	cfg config.AppConfig
)

// Data source flags shared by serve and convert.
var (
	jsonPath string
	csvDir   string
	osmPath  string
	bboxSpec string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults apply when empty)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Discard log output")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(convertCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	// stdout carries command output, so logs go to stderr.
	logging.Init(os.Stderr)
	if quiet {
		logging.Quiet()
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded
	return nil
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&jsonPath, "json", "", "", "JSON request document with base_requests")
	cmd.Flags().StringVarP(&csvDir, "csv", "", "", "Directory with stops.csv, distances.csv, buses.csv, bus_stops.csv")
	cmd.Flags().StringVarP(&osmPath, "osm", "", "", "OSM extract (.osm.pbf or .osm)")
	cmd.Flags().StringVarP(&bboxSpec, "bbox", "", "", "OSM bounding box filter: minLat,minLng,maxLat,maxLng")
	cmd.MarkFlagsMutuallyExclusive("json", "csv", "osm")
}

func parseBBox(s string) (ingest.BBox, error) {
	if s == "" {
		return ingest.BBox{}, nil
	}
	var minLat, minLng, maxLat, maxLng float64
	if _, err := fmt.Sscanf(s, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
		return ingest.BBox{}, fmt.Errorf("invalid bbox %q (expected minLat,minLng,maxLat,maxLng): %w", s, err)
	}
	if minLat > maxLat || minLng > maxLng {
		return ingest.BBox{}, fmt.Errorf("invalid bbox %q: min exceeds max", s)
	}
	return ingest.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}, nil
}

// loadStore fills a catalogue from whichever source flag is set.
func loadStore(ctx context.Context) (*catalogue.Store, error) {
	start := time.Now()
	store := catalogue.NewStore()

	switch {
	case jsonPath != "":
		log.Printf("Loading request document %s...", jsonPath)
		f, err := os.Open(jsonPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		doc, err := ingest.DecodeDocument(f)
		if err != nil {
			return nil, err
		}
		if err := doc.Apply(store); err != nil {
			return nil, err
		}

	case csvDir != "":
		log.Printf("Loading CSV tables from %s...", csvDir)
		if err := ingest.LoadCSV(os.DirFS(csvDir), store); err != nil {
			return nil, err
		}

	case osmPath != "":
		bbox, err := parseBBox(bboxSpec)
		if err != nil {
			return nil, err
		}
		if !bbox.IsZero() {
			log.Printf("Using bounding box filter: lat [%.4f, %.4f], lng [%.4f, %.4f]",
				bbox.MinLat, bbox.MaxLat, bbox.MinLng, bbox.MaxLng)
		}
		log.Printf("Parsing OSM data from %s...", osmPath)
		f, err := os.Open(osmPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		res, err := ingest.ParseOSM(ctx, f, ingest.OSMOptions{Format: ingest.FormatFromPath(osmPath), BBox: bbox})
		if err != nil {
			return nil, err
		}
		log.Printf("Parsed %d stops, %d routes", len(res.Stops), len(res.Routes))
		if err := res.Apply(store); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("one of --json, --csv or --osm is required")
	}

	if err := applyDefaultSettings(store); err != nil {
		return nil, err
	}
	log.Printf("Catalogue: %d stops, %d buses in %s",
		store.NumStops(), len(store.Buses()), time.Since(start).Round(time.Millisecond))
	return store, nil
}

// applyDefaultSettings fills routing settings from config when the data
// source carried none.
func applyDefaultSettings(store *catalogue.Store) error {
	if _, ok := store.RoutingSettings(); ok {
		return nil
	}
	if err := store.AddSpeedAndWait(cfg.Routing.BusVelocity, cfg.Routing.BusWaitTime); err != nil {
		return fmt.Errorf("input has no routing_settings and config defaults are unusable: %w", err)
	}
	log.Printf("Using config routing settings: velocity %.1f km/h, wait %.1f min",
		cfg.Routing.BusVelocity, cfg.Routing.BusWaitTime)
	return nil
}
