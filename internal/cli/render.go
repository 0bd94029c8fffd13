package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lazypower/thoughtgraph/internal/fetch"
	"github.com/lazypower/thoughtgraph/internal/graph"
	"github.com/lazypower/thoughtgraph/internal/ui"
	"github.com/lazypower/thoughtgraph/internal/viewer"
)

var (
	renderBackend string
	renderFile    string
	renderTicks   int
	renderOut     string
	renderStrict  bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Lay out the graph once and write it as SVG",
	Long: "render fetches the graph from a backend (or reads a JSON/YAML snapshot), " +
		"runs the force layout until it settles and writes the final frame as SVG.",
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderBackend, "backend", "", "content API base URL (default from config)")
	renderCmd.Flags().StringVar(&renderFile, "file", "", "read the graph from a .json or .yaml snapshot instead")
	renderCmd.Flags().IntVar(&renderTicks, "ticks", 300, "maximum layout ticks")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "-", "output file, - for stdout")
	renderCmd.Flags().BoolVar(&renderStrict, "strict", false, "fail on links to unknown nodes instead of dropping them")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, logger := appConfig, appLogger

	opts, err := viewOptions(cfg, logger, nil)
	if err != nil {
		return err
	}
	opts.Manual = true
	if renderStrict {
		opts.Policy = graph.FailFast
	}

	var src fetch.Source
	switch {
	case renderFile != "":
		src = fetch.FileSource{Path: renderFile}
	case renderBackend != "":
		src = fetch.NewClient(renderBackend, cfg.BackendTimeout())
	default:
		src = fetch.NewClient(cfg.BackendURL(), cfg.BackendTimeout())
	}

	v := viewer.New(src, opts)
	defer v.Unmount()

	if err := v.Mount(cmd.Context()); err != nil {
		return err
	}
	if v.Status() == viewer.StatusEmpty {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Warn.Sprint("graph has no nodes, nothing to render"))
		return nil
	}

	ticks, err := v.Settle(renderTicks)
	if err != nil {
		return err
	}

	if err := writeOut(cmd.Context(), cmd.OutOrStdout(), renderOut, v.WriteSVG); err != nil {
		return err
	}

	st := v.Stats()
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %d nodes, %d links (%d dropped), %d ticks, settled %s\n",
		ui.Brand.Sprint("thoughtgraph"), st.Nodes, st.Links, st.Dropped, ticks, ui.StatusIcon(st.Settled))
	return nil
}

func writeOut(ctx context.Context, stdout io.Writer, path string, write func(io.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if path == "-" || path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
