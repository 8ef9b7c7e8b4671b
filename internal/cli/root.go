package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tinyalpaca/alpacagen/internal/config"
	"github.com/tinyalpaca/alpacagen/internal/document"
	"github.com/tinyalpaca/alpacagen/internal/loader"
	"github.com/tinyalpaca/alpacagen/internal/model"
	"github.com/tinyalpaca/alpacagen/internal/refs"
	"github.com/tinyalpaca/alpacagen/internal/report"
	"github.com/tinyalpaca/alpacagen/internal/specsource"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "alpacagen",
		Short: "Inspect the ASCOM Alpaca device API spec for device adapter generation",
		Long: `alpacagen reads the Alpaca device API spec (from a local cache, or the
ASCOM site on first use), indexes its components, and resolves $ref pointers.

Run without a subcommand it prints the spec's top-level keys, the component
index, and one operation with its references resolved.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runInspect,
	}

	config.BindCommonFlags(root)

	flags := root.Flags()
	flags.String("operation-path", "", "Path of the operation to dump (default: "+config.DefaultOperationPath+")")
	flags.String("operation-method", "", "Method of the operation to dump (default: "+config.DefaultOperationMethod+")")
	flags.Bool("raw", false, "Dump the operation without resolving references")

	root.AddCommand(
		newFetchCmd(),
		newComponentsCmd(),
		newResolveCmd(),
		newDeviceTypesCmd(),
		newOperationsCmd(),
		newValidateCmd(),
	)

	return root
}

// session is the state every command starts from: config, the spec text
// and its parsed document.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	data   []byte
	origin specsource.Origin
	doc    document.Mapping
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	provider := &specsource.Provider{
		URL:       cfg.SpecURL,
		CacheFile: cfg.CacheFile,
		Logger:    logger,
	}
	data, origin, err := provider.Get(cmd.Context())
	if err != nil {
		return nil, err
	}

	doc, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing spec: %w", err)
	}

	return &session{
		cfg:    cfg,
		logger: logger,
		data:   data,
		origin: origin,
		doc:    doc,
	}, nil
}

func (s *session) index() (refs.Index, error) {
	idx, err := refs.BuildIndex(s.doc)
	if err != nil {
		return nil, fmt.Errorf("indexing components: %w", err)
	}
	s.logger.Debug("indexed components", "count", idx.Len())
	return idx, nil
}

// typed loads the spec through libopenapi into the operation model.
func (s *session) typed(cmd *cobra.Command) (*loader.Result, *model.Spec, error) {
	result, err := loader.Load(s.data)
	if err != nil {
		return nil, nil, fmt.Errorf("loading spec: %w", err)
	}

	for _, w := range result.Warnings {
		cmd.PrintErrf("Warning: %s\n", w)
	}

	spec, err := loader.Transform(result)
	if err != nil {
		return nil, nil, fmt.Errorf("transforming spec: %w", err)
	}
	return result, spec, nil
}

func (s *session) renderer() (*report.Renderer, error) {
	r, err := report.New(s.cfg.Templates.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading report templates: %w", err)
	}
	return r, nil
}

// operationNode returns the raw definition of one operation.
func operationNode(doc document.Mapping, method model.Method, path string) (document.Node, error) {
	paths, err := refs.Paths(doc)
	if err != nil {
		return nil, err
	}
	item, ok := paths[path].(document.Mapping)
	if !ok {
		return nil, fmt.Errorf("path not found: %s", path)
	}
	op, ok := item[strings.ToLower(string(method))]
	if !ok {
		return nil, fmt.Errorf("operation not found: %s %s", method, path)
	}
	return op, nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	idx, err := s.index()
	if err != nil {
		return err
	}

	method := s.cfg.Method()
	op, err := operationNode(s.doc, method, s.cfg.Operation.Path)
	if err != nil {
		return err
	}

	raw, _ := cmd.Flags().GetBool("raw")
	if !raw {
		op, err = refs.Resolve(op, idx)
		if err != nil {
			return fmt.Errorf("resolving %s %s: %w", method, s.cfg.Operation.Path, err)
		}
	}

	dump, err := document.Marshal(op)
	if err != nil {
		return err
	}

	r, err := s.renderer()
	if err != nil {
		return err
	}
	out, err := r.Inspect(report.Inspect{
		SpecKeys:      s.doc.Keys(),
		ComponentKeys: idx.Keys(),
		Method:        method,
		Path:          s.cfg.Operation.Path,
		Operation:     string(dump),
		Resolved:      !raw,
	})
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
