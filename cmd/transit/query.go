package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"transit_router/pkg/catalogue"
	"transit_router/pkg/ingest"
	"transit_router/pkg/requests"
	"transit_router/pkg/transit"
)

var queryCmd = &cobra.Command{
	Use:   "query [file]",
	Short: "Answers the stat_requests of a JSON request document",
	Long:  "Reads a request document from file (stdin when omitted) and prints the answers as a JSON array",
	Args:  cobra.MaximumNArgs(1),
	RunE:  query,
}

var compact bool

func init() {
	queryCmd.Flags().BoolVarP(&compact, "compact", "", false, "Print answers without indentation")
}

func query(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	return runQuery(in, cmd.OutOrStdout())
}

func runQuery(in io.Reader, out io.Writer) error {
	doc, err := ingest.DecodeDocument(in)
	if err != nil {
		return err
	}
	store := catalogue.NewStore()
	if err := doc.Apply(store); err != nil {
		return err
	}
	if err := applyDefaultSettings(store); err != nil {
		return err
	}

	router, err := transit.NewRouter(store)
	if err != nil {
		return err
	}
	answers := requests.NewHandler(store, router).Evaluate(doc.StatRequests)

	enc := json.NewEncoder(out)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(answers)
}
