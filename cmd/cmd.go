// Package cmd - CLI-Einstiegspunkt fuer patchseq
// Beinhaltet: NewCLI, Environment-Dokumentation, gemeinsame Flags
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/containerd/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ollama/patchseq/envconfig"
	"github.com/ollama/patchseq/logutil"
	"github.com/ollama/patchseq/params"
	"github.com/ollama/patchseq/pipeline"
	"github.com/ollama/patchseq/version"
)

// appendEnvDocs - Haengt Environment-Variablen an die Hilfe an
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	if runtime.GOOS == "windows" && term.IsTerminal(int(os.Stdout.Fd())) {
		console.ConsoleFromFile(os.Stdin) //nolint:errcheck
	}

	rootCmd := &cobra.Command{
		Use:           "patchseq",
		Short:         "Image to patch-sequence preprocessing",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logutil.NewLogger(cmd.ErrOrStderr(), envconfig.LogLevel()))
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	// Commands erstellen
	patchCmd := newPatchCmd()
	batchCmd := newBatchCmd()
	inspectCmd := newInspectCmd()
	paramsCmd := newParamsCmd()
	serveCmd := newServeCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()
	geometry := []envconfig.EnvVar{
		envVars["PATCHSEQ_PARAMS"],
		envVars["PATCHSEQ_PATCH_DIM"],
		envVars["PATCHSEQ_WIDTH"],
		envVars["PATCHSEQ_HEIGHT"],
		envVars["PATCHSEQ_CHANNELS"],
		envVars["PATCHSEQ_STRICT"],
	}

	for _, cmd := range []*cobra.Command{patchCmd, batchCmd, paramsCmd, serveCmd} {
		switch cmd {
		case batchCmd:
			appendEnvDocs(cmd, append(geometry, envVars["PATCHSEQ_NUM_PARALLEL"]))
		case serveCmd:
			appendEnvDocs(cmd, append(geometry,
				envVars["PATCHSEQ_DEBUG"],
				envVars["PATCHSEQ_HOST"],
				envVars["PATCHSEQ_ORIGINS"],
				envVars["PATCHSEQ_NUM_PARALLEL"],
				envVars["PATCHSEQ_MAX_BATCH"],
			))
		default:
			appendEnvDocs(cmd, geometry)
		}
	}

	rootCmd.AddCommand(
		serveCmd,
		patchCmd,
		batchCmd,
		inspectCmd,
		paramsCmd,
	)

	return rootCmd
}

// versionHandler - Gibt die Client-Version aus
func versionHandler(cmd *cobra.Command, _ []string) {
	cmd.Printf("patchseq version is %s\n", version.Version)
}

// ============================================================================
// Gemeinsame Geometrie-Flags
// ============================================================================

// addGeometryFlags - Registriert Flags die PATCHSEQ_* Werte ueberschreiben
func addGeometryFlags(cmd *cobra.Command) {
	cmd.Flags().String("params", "", "JSON file with hyperparameters (replaces PATCHSEQ_PARAMS, PATCHSEQ_* still apply)")
	cmd.Flags().Int("patch-dim", 0, "Patches per axis")
	cmd.Flags().Int("width", 0, "Canvas width in pixels")
	cmd.Flags().Int("height", 0, "Canvas height in pixels")
	cmd.Flags().Int("channels", 0, "Number of channels (1 or 3)")
	cmd.Flags().Bool("strict", false, "Fail when the image does not divide evenly into patches")
}

// paramsFromFlags - Default < --params bzw. PATCHSEQ_PARAMS < PATCHSEQ_* < Flags
func paramsFromFlags(cmd *cobra.Command) (params.Params, error) {
	path, _ := cmd.Flags().GetString("params")
	p, err := params.Resolve(path)
	if err != nil {
		return p, err
	}

	for flag, field := range map[string]*int{
		"patch-dim": &p.PatchDim,
		"width":     &p.Width,
		"height":    &p.Height,
		"channels":  &p.Channels,
	} {
		if cmd.Flags().Changed(flag) {
			*field, _ = cmd.Flags().GetInt(flag)
		}
	}

	return p, p.Validate()
}

// processorFromFlags - Erstellt einen Processor aus Flags und Environment
func processorFromFlags(cmd *cobra.Command) (*pipeline.Processor, error) {
	p, err := paramsFromFlags(cmd)
	if err != nil {
		return nil, err
	}

	strict := envconfig.Strict()
	if cmd.Flags().Changed("strict") {
		strict, _ = cmd.Flags().GetBool("strict")
	}

	return pipeline.New(p, pipeline.WithStrict(strict))
}
