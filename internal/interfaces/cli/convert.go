package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/aopwiki-graph/internal/application/conversion"
	"github.com/turtacn/aopwiki-graph/internal/bootstrap"
	"github.com/turtacn/aopwiki-graph/internal/config"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

// converter is the part of conversion.Service the convert command uses.
type converter interface {
	Run(ctx context.Context, req conversion.Request) (*conversion.RunSummary, error)
}

// newConverter opens the configured infrastructure and returns a converter
// with its release func.  Tests replace it.
var newConverter = func(ctx context.Context, cfg *config.Config, log logging.Logger) (converter, func(), error) {
	infra, err := bootstrap.Open(ctx, cfg, log, bootstrap.Options{Migrate: true})
	if err != nil {
		return nil, nil, err
	}
	svc, err := infra.ConversionService()
	if err != nil {
		infra.Close()
		return nil, nil, err
	}
	return svc, infra.Close, nil
}

type convertOptions struct {
	source     string
	object     string
	lexicon    string
	exceptions string
	outDir     string
	sinks      []string
	noMapping  bool
}

func newConvertCmd() *cobra.Command {
	o := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert an AOP-Wiki XML export into N-Triples",
		Long: "Convert parses an AOP-Wiki XML export, finds gene mentions against the HGNC\n" +
			"lexicon, resolves chemical and gene identifiers through BridgeDb and writes\n" +
			"AOPWikiRDF.nt, AOPWikiRDF-Genes.nt and AOPWikiRDF-Void.nt.",
		Example: "  aopgraph convert --source aop-wiki-xml-2024-01-01 --lexicon HGNCgenes.txt\n" +
			"  aopgraph convert --object aopwiki/exports/aop-wiki-xml-2024-01-01.gz --sinks ntriples,minio",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runConvert(cmd, cliCtx, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.source, "source", "", "local AOP-Wiki XML export (.gz is decompressed)")
	f.StringVar(&o.object, "object", "", "export in object storage as bucket/object")
	f.StringVar(&o.lexicon, "lexicon", "", "HGNC gene table (overrides lexicon.hgnc_path)")
	f.StringVar(&o.exceptions, "exceptions", "", "gene false-positive exception table (YAML)")
	f.StringVar(&o.outDir, "out", "", "output directory (overrides output.dir)")
	f.StringSliceVar(&o.sinks, "sinks", nil, "output sinks: ntriples, neo4j, minio")
	f.BoolVar(&o.noMapping, "no-mapping", false, "skip BridgeDb; every identifier resolves empty")
	return cmd
}

// apply folds the flags into cfg.
func (o *convertOptions) apply(cfg *config.Config) error {
	if o.source != "" {
		cfg.Source.XMLPath = o.source
	}
	if o.object != "" {
		bucket, object, ok := strings.Cut(o.object, "/")
		if !ok || bucket == "" || object == "" {
			return errors.New(errors.ErrCodeValidation, "--object must be bucket/object").WithDetail(o.object)
		}
		cfg.Source.XMLPath = ""
		cfg.Source.Bucket, cfg.Source.Object = bucket, object
	}
	if o.lexicon != "" {
		cfg.Lexicon.HGNCPath = o.lexicon
	}
	if o.exceptions != "" {
		cfg.Lexicon.ExceptionsPath = o.exceptions
	}
	if o.outDir != "" {
		cfg.Output.Dir = o.outDir
	}
	if len(o.sinks) > 0 {
		for _, s := range o.sinks {
			switch s {
			case config.SinkNTriples, config.SinkNeo4j, config.SinkMinIO:
			default:
				return errors.New(errors.ErrCodeValidation, "unknown sink").WithDetail(s)
			}
		}
		cfg.Output.Sinks = o.sinks
	}
	if o.noMapping {
		cfg.BridgeDb.Disabled = true
	}
	return nil
}

func runConvert(cmd *cobra.Command, cliCtx *CLIContext, o *convertOptions) error {
	cfg := cliCtx.Config
	if err := o.apply(cfg); err != nil {
		return err
	}

	ctx, cancel := operationContext(cmd, cliCtx)
	defer cancel()

	svc, release, err := newConverter(ctx, cfg, cliCtx.Logger)
	if err != nil {
		return err
	}
	defer release()

	sum, err := svc.Run(ctx, conversion.RequestFromConfig(cfg))
	if sum != nil {
		if perr := PrintResult(cmd, newRunView(sum)); perr != nil {
			return perr
		}
	}
	return err
}

// runView is the printable form of a run summary.
type runView struct {
	RunID        string         `json:"run_id"`
	Source       string         `json:"source"`
	Status       string         `json:"status"`
	Duration     string         `json:"duration"`
	Counts       map[string]int `json:"counts,omitempty"`
	GeneMentions int            `json:"gene_mentions"`
	SoftFailures int            `json:"soft_failures"`
	Triples      map[string]int `json:"triples,omitempty"`
	Outputs      []string       `json:"outputs,omitempty"`
	Error        string         `json:"error,omitempty"`
}

func newRunView(sum *conversion.RunSummary) runView {
	r := sum.Run
	v := runView{
		RunID:        r.ID.String(),
		Source:       r.Source,
		Status:       string(r.Status),
		Duration:     r.Duration().String(),
		Counts:       r.Counts,
		GeneMentions: r.GeneMentions,
		SoftFailures: r.SoftFailures,
		Outputs:      r.Outputs,
		Error:        r.Error,
	}
	if sum.Triples.CoreTriples > 0 || sum.Triples.GenesTriples > 0 {
		v.Triples = map[string]int{"core": sum.Triples.CoreTriples, "genes": sum.Triples.GenesTriples}
	}
	return v
}

func (v runView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s %s in %s\n", v.RunID, v.Status, v.Duration)
	for _, k := range sortedKeys(v.Counts) {
		fmt.Fprintf(&sb, "  %-24s %d\n", k, v.Counts[k])
	}
	fmt.Fprintf(&sb, "  %-24s %d\n", "gene mentions", v.GeneMentions)
	fmt.Fprintf(&sb, "  %-24s %d\n", "soft failures", v.SoftFailures)
	for _, k := range sortedKeys(v.Triples) {
		fmt.Fprintf(&sb, "  %-24s %d\n", k+" triples", v.Triples[k])
	}
	for _, out := range v.Outputs {
		fmt.Fprintf(&sb, "  wrote %s\n", out)
	}
	if v.Error != "" {
		fmt.Fprintf(&sb, "  error: %s\n", v.Error)
	}
	return sb.String()
}

func (v runView) TableHeaders() []string { return []string{"METRIC", "VALUE"} }

func (v runView) TableRows() [][]string {
	rows := [][]string{{"run", v.RunID}, {"status", v.Status}, {"duration", v.Duration}}
	for _, k := range sortedKeys(v.Counts) {
		rows = append(rows, []string{k, strconv.Itoa(v.Counts[k])})
	}
	rows = append(rows,
		[]string{"gene mentions", strconv.Itoa(v.GeneMentions)},
		[]string{"soft failures", strconv.Itoa(v.SoftFailures)})
	return rows
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
