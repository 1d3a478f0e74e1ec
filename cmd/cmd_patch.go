// cmd_patch.go - Patch-Erzeugung fuer einzelne Bilder und Batches
// Hauptfunktionen: PatchHandler, BatchHandler, writeSamples
package cmd

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ollama/patchseq/patch"
	"github.com/ollama/patchseq/pipeline"
	"github.com/ollama/patchseq/safetensors"
)

// newPatchCmd - Erstellt den patch Command
func newPatchCmd() *cobra.Command {
	patchCmd := &cobra.Command{
		Use:   "patch IMAGE",
		Short: "Convert an image into a flat patch matrix",
		Long:  "Convert an image into a flat patch matrix. Use - to read the image from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE:  PatchHandler,
	}

	addGeometryFlags(patchCmd)
	patchCmd.Flags().StringP("output", "o", "", "Write the patch matrix to a safetensors file")
	patchCmd.Flags().String("dtype", "f32", "Output data type (f32, f16, bf16)")

	return patchCmd
}

// newBatchCmd - Erstellt den batch Command
func newBatchCmd() *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch IMAGE...",
		Short: "Convert several images in parallel into one safetensors file",
		Args:  cobra.MinimumNArgs(1),
		RunE:  BatchHandler,
	}

	addGeometryFlags(batchCmd)
	batchCmd.Flags().StringP("output", "o", "", "safetensors output file")
	batchCmd.Flags().String("dtype", "f32", "Output data type (f32, f16, bf16)")
	batchCmd.MarkFlagRequired("output") //nolint:errcheck

	return batchCmd
}

// PatchHandler - Verarbeitet ein Bild und schreibt optional safetensors
func PatchHandler(cmd *cobra.Command, args []string) error {
	dtype, err := dtypeFromFlags(cmd)
	if err != nil {
		return err
	}

	proc, err := processorFromFlags(cmd)
	if err != nil {
		return err
	}

	var sample *pipeline.Sample
	if args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		sample, err = proc.ProcessBytes(cmd.Context(), "stdin", data)
		if err != nil {
			return err
		}
	} else {
		sample, err = proc.ProcessFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
	}

	samples := []*pipeline.Sample{sample}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := writeSamples(output, proc, samples, dtype, "patches"); err != nil {
			return err
		}
	}

	renderSamples(cmd.OutOrStdout(), samples)
	return nil
}

// BatchHandler - Verarbeitet mehrere Bilder parallel in eine Datei
func BatchHandler(cmd *cobra.Command, args []string) error {
	dtype, err := dtypeFromFlags(cmd)
	if err != nil {
		return err
	}

	proc, err := processorFromFlags(cmd)
	if err != nil {
		return err
	}

	samples, err := proc.ProcessFiles(cmd.Context(), args)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if err := writeSamples(output, proc, samples, dtype, ""); err != nil {
		return err
	}

	renderSamples(cmd.OutOrStdout(), samples)
	return nil
}

func dtypeFromFlags(cmd *cobra.Command) (safetensors.DType, error) {
	s, _ := cmd.Flags().GetString("dtype")
	return safetensors.ParseDType(s)
}

// writeSamples - Schreibt Samples als safetensors; name == "" vergibt image.NNNN
func writeSamples(path string, proc *pipeline.Processor, samples []*pipeline.Sample, dtype safetensors.DType, name string) error {
	p := proc.Params()
	metadata := map[string]string{
		"patch_dim": strconv.Itoa(p.PatchDim),
		"width":     strconv.Itoa(p.Width),
		"height":    strconv.Itoa(p.Height),
		"channels":  strconv.Itoa(p.Channels),
	}

	entries := make([]safetensors.Entry, len(samples))
	for i, s := range samples {
		n := name
		if n == "" {
			// fuehrende Nullen halten die sortierten Header-Namen in Eingabereihenfolge
			n = fmt.Sprintf("image.%04d", i)
		}
		metadata[n+".source"] = s.Source

		entries[i] = safetensors.Entry{
			Name:  n,
			Shape: s.Patches.Shape(),
			Data:  s.Patches.Data(),
		}
	}

	return safetensors.WriteFile(path, entries, dtype, metadata)
}

// renderSamples - Tabelle mit Quelle, Originalgroesse, Shape und Wertebereich
func renderSamples(w io.Writer, samples []*pipeline.Sample) {
	var data [][]string
	for _, s := range samples {
		values := s.Patches.Data()
		data = append(data, []string{
			s.Source,
			fmt.Sprintf("%dx%d", s.Width, s.Height),
			strconv.Itoa(s.Patches.Shape()[0]),
			patch.FormatShape(s.Patches.Shape()),
			fmt.Sprintf("%.4f", slices.Min(values)),
			fmt.Sprintf("%.4f", slices.Max(values)),
		})
	}

	renderTable(w, []string{"SOURCE", "SIZE", "PATCHES", "SHAPE", "MIN", "MAX"}, data)
}
