package main

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"transit_router/pkg/api"
	"transit_router/pkg/transit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the catalogue and router over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

var (
	addr    string
	envFile string
)

func init() {
	addSourceFlags(serveCmd)
	serveCmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides config and TRANSIT_ADDR)")
	serveCmd.Flags().StringVarP(&envFile, "env-file", "", ".env", "Environment file loaded before startup")
}

func serve(cmd *cobra.Command, args []string) error {
	// A missing env file is fine; the process environment still applies.
	_ = godotenv.Load(envFile)

	start := time.Now()
	store, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}

	router, err := transit.NewRouter(store)
	if err != nil {
		return err
	}
	log.Printf("Ready in %s", time.Since(start).Round(time.Millisecond))

	serverCfg := cfg.Server
	if env := os.Getenv("TRANSIT_ADDR"); env != "" {
		serverCfg.Addr = env
	}
	if addr != "" {
		serverCfg.Addr = addr
	}

	svc := api.NewService(store, router, cfg.Snap.MaxDistanceMeters)
	handlers := api.NewHandlers(svc, cfg.Snap.MaxDistanceMeters)
	srv := api.NewServer(api.ConfigFrom(serverCfg), handlers)

	if err := api.ListenAndServe(srv); err != nil {
		log.Printf("Server stopped: %v", err)
		return err
	}
	return nil
}
