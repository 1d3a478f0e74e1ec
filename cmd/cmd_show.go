// cmd_show.go - Anzeige von safetensors-Dateien und effektiven Parametern
// Hauptfunktionen: InspectHandler, ParamsHandler
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ollama/patchseq/patch"
	"github.com/ollama/patchseq/safetensors"
)

// newInspectCmd - Erstellt den inspect Command
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "List the tensors of a safetensors file",
		Args:  cobra.ExactArgs(1),
		RunE:  InspectHandler,
	}
}

// newParamsCmd - Erstellt den params Command
func newParamsCmd() *cobra.Command {
	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "Show the effective parameters",
		Args:  cobra.NoArgs,
		RunE:  ParamsHandler,
	}

	addGeometryFlags(paramsCmd)
	paramsCmd.Flags().Bool("json", false, "Print parameters as JSON")

	return paramsCmd
}

// InspectHandler - Zeigt Tensoren und Metadaten einer safetensors-Datei
func InspectHandler(cmd *cobra.Command, args []string) error {
	f, err := safetensors.ReadFile(args[0])
	if err != nil {
		return err
	}

	var data [][]string
	for _, e := range f.Tensors {
		data = append(data, []string{e.Name, string(f.DType[e.Name]), patch.FormatShape(e.Shape)})
	}
	renderTable(cmd.OutOrStdout(), []string{"NAME", "DTYPE", "SHAPE"}, data)

	if len(f.Metadata) > 0 {
		keys := make([]string, 0, len(f.Metadata))
		for k := range f.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		data = data[:0]
		for _, k := range keys {
			data = append(data, []string{k, f.Metadata[k]})
		}

		fmt.Fprintln(cmd.OutOrStdout())
		renderTable(cmd.OutOrStdout(), []string{"KEY", "VALUE"}, data)
	}

	return nil
}

// ParamsHandler - Zeigt die Parameter nach Environment und Flags
func ParamsHandler(cmd *cobra.Command, _ []string) error {
	p, err := paramsFromFlags(cmd)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}

	data := [][]string{
		{"patch_dim", strconv.Itoa(p.PatchDim)},
		{"width", strconv.Itoa(p.Width)},
		{"height", strconv.Itoa(p.Height)},
		{"channels", strconv.Itoa(p.Channels)},
		{"patch_size", strconv.Itoa(p.PatchSize())},
		{"encoder_length", strconv.Itoa(p.EncoderLength())},
		{"encoder_embedding_dim", strconv.Itoa(p.EncoderEmbeddingDim())},
		{"d_model_encoder", strconv.Itoa(p.DModelEncoder)},
		{"d_model_decoder", strconv.Itoa(p.DModelDecoder)},
		{"decoder_length", strconv.Itoa(p.DecoderLength)},
		{"num_encoder_layers", strconv.Itoa(p.NumEncoderLayers)},
		{"num_decoder_layers", strconv.Itoa(p.NumDecoderLayers)},
		{"num_heads", strconv.Itoa(p.NumHeads)},
		{"vocab_size", strconv.Itoa(p.VocabSize)},
		{"device", p.Device},
		{"seed", strconv.FormatInt(p.Seed, 10)},
		{"batch_size", strconv.Itoa(p.BatchSize)},
		{"epochs", strconv.Itoa(p.Epochs)},
		{"learning_rate", strconv.FormatFloat(p.LearningRate, 'g', -1, 64)},
	}
	renderTable(cmd.OutOrStdout(), []string{"PARAMETER", "VALUE"}, data)

	return nil
}

func renderTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}
