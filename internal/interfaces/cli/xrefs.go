package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/aopwiki-graph/internal/application/resolution"
	"github.com/turtacn/aopwiki-graph/internal/bootstrap"
	"github.com/turtacn/aopwiki-graph/internal/config"
	"github.com/turtacn/aopwiki-graph/internal/domain/xref"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// newResolver builds the batch resolver from configuration without opening
// the ledger or sinks.  Tests replace it.
var newResolver = func(cfg *config.Config, log logging.Logger) (resolution.Service, error) {
	infra := &bootstrap.Infrastructure{Config: cfg, Logger: log}
	client, err := infra.MappingClient()
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New(errors.ErrCodeValidation, "the mapping service is disabled in the configuration")
	}
	return infra.Resolver(client), nil
}

func newXrefsCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "xrefs KEY...",
		Short: "Resolve CAS numbers or gene symbols through BridgeDb",
		Example: `  aopgraph xrefs --kind chemical 50-00-0 7440-43-9
  aopgraph xrefs --kind gene BRCA1 TP53 -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			k, err := xref.ParseKind(kind)
			if err != nil {
				return err
			}
			return runXrefs(cmd, cliCtx, k, args)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(xref.KindChemical), "key kind: chemical (CAS number) or gene (HGNC symbol)")
	return cmd
}

func runXrefs(cmd *cobra.Command, cliCtx *CLIContext, kind xref.Kind, keys []string) error {
	resolver, err := newResolver(cliCtx.Config, cliCtx.Logger)
	if err != nil {
		return err
	}

	ctx, cancel := operationContext(cmd, cliCtx)
	defer cancel()

	results, err := resolver.ResolveBatch(ctx, kind, keys)
	if err != nil {
		return err
	}

	view := xrefsView{Kind: string(kind)}
	for _, key := range keys {
		res, ok := results[key]
		if !ok {
			continue
		}
		row := xrefResultView{Key: key, Path: string(res.Path)}
		for _, r := range res.Refs.Refs() {
			row.Refs = append(row.Refs, r.ID())
		}
		if res.Err != nil {
			row.Error = res.Err.Error()
		}
		view.Results = append(view.Results, row)
	}
	return PrintResult(cmd, view)
}

type xrefResultView struct {
	Key   string   `json:"key"`
	Path  string   `json:"path"`
	Refs  []string `json:"refs"`
	Error string   `json:"error,omitempty"`
}

type xrefsView struct {
	Kind    string           `json:"kind"`
	Results []xrefResultView `json:"results"`
}

func (v xrefsView) String() string {
	var sb strings.Builder
	for _, r := range v.Results {
		fmt.Fprintf(&sb, "%s\t%s\n", r.Key, strings.Join(r.Refs, " "))
		if r.Error != "" {
			fmt.Fprintf(&sb, "  unresolved: %s\n", r.Error)
		}
	}
	return sb.String()
}

func (v xrefsView) TableHeaders() []string { return []string{"KEY", "PATH", "REFERENCES", "ERROR"} }

func (v xrefsView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Results))
	for _, r := range v.Results {
		rows = append(rows, []string{r.Key, r.Path, strings.Join(r.Refs, ", "), r.Error})
	}
	return rows
}
