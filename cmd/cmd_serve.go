// cmd_serve.go - HTTP-Server starten
// Hauptfunktionen: RunServer
package cmd

import (
	"errors"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ollama/patchseq/envconfig"
	"github.com/ollama/patchseq/server"
)

// newServeCmd - Erstellt den serve Command
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start the patch HTTP server",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}
}

// RunServer - Startet den patchseq-Server auf PATCHSEQ_HOST
func RunServer(_ *cobra.Command, _ []string) error {
	ln, err := net.Listen("tcp", envconfig.Host().Host)
	if err != nil {
		return err
	}

	err = server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}
