package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"transit_router/pkg/ingest"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Converts CSV tables or an OSM extract into a JSON request document",
	Args:  cobra.NoArgs,
	RunE:  convert,
}

var outputPath string

func init() {
	addSourceFlags(convertCmd)
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (stdout when empty)")
}

func convert(cmd *cobra.Command, args []string) error {
	store, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
		log.Printf("Writing request document to %s...", outputPath)
	}
	return ingest.FromStore(store).Encode(out)
}
