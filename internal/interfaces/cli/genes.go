package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/aopwiki-graph/internal/domain/gene"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

type genesOptions struct {
	lexicon    string
	exceptions string
	explain    bool
}

func newGenesCmd() *cobra.Command {
	o := &genesOptions{}
	cmd := &cobra.Command{
		Use:   "genes [text...]",
		Short: "Find HGNC gene mentions in free text",
		Long: "Genes runs the gene mention extractor over the given text, or over stdin\n" +
			"when no text argument is given.",
		Example: `  aopgraph genes --lexicon HGNCgenes.txt "Loss of (BRCA1) function"
  echo "TP53 [mutant] cells" | aopgraph genes --explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runGenes(cmd, cliCtx, o, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.lexicon, "lexicon", "", "HGNC gene table (overrides lexicon.hgnc_path)")
	f.StringVar(&o.exceptions, "exceptions", "", "gene false-positive exception table (YAML)")
	f.BoolVar(&o.explain, "explain", false, "also list rejected genes and why")
	return cmd
}

func runGenes(cmd *cobra.Command, cliCtx *CLIContext, o *genesOptions, args []string) error {
	path := o.lexicon
	if path == "" {
		path = cliCtx.Config.Lexicon.HGNCPath
	}
	if path == "" {
		return errors.New(errors.ErrCodeValidation, "no gene lexicon given; use --lexicon")
	}
	exceptionsPath := o.exceptions
	if exceptionsPath == "" {
		exceptionsPath = cliCtx.Config.Lexicon.ExceptionsPath
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeLexiconUnreadable, "opening gene lexicon").WithDetail("path=" + path)
	}
	defer f.Close()
	lex, err := gene.LoadLexicon(f, cliCtx.Logger)
	if err != nil {
		return err
	}
	exceptions, err := gene.LoadExceptionTable(exceptionsPath)
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	if len(args) == 0 {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeBadRequest, "reading text from stdin")
		}
		text = string(b)
	}

	matches, rejections := gene.NewExtractor(lex, exceptions, cliCtx.Logger).ExtractDetailed(text)
	view := genesView{Genes: make([]geneMatchView, 0, len(matches))}
	for _, m := range matches {
		view.Genes = append(view.Genes, geneMatchView{Gene: m.GeneID, Alias: m.Alias, Variant: m.Variant})
	}
	if o.explain {
		for _, r := range rejections {
			view.Rejected = append(view.Rejected, geneMatchView{Gene: r.GeneID, Alias: r.Alias, Variant: r.Variant, Reason: r.Reason})
		}
	}
	return PrintResult(cmd, view)
}

type geneMatchView struct {
	Gene    string `json:"gene"`
	Alias   string `json:"alias"`
	Variant string `json:"variant"`
	Reason  string `json:"reason,omitempty"`
}

type genesView struct {
	Genes    []geneMatchView `json:"genes"`
	Rejected []geneMatchView `json:"rejected,omitempty"`
}

// String lists each gene once.
func (v genesView) String() string {
	var sb strings.Builder
	seen := make(map[string]bool)
	for _, g := range v.Genes {
		if !seen[g.Gene] {
			seen[g.Gene] = true
			fmt.Fprintln(&sb, g.Gene)
		}
	}
	for _, r := range v.Rejected {
		fmt.Fprintf(&sb, "rejected %s (%s): %s\n", r.Gene, r.Alias, r.Reason)
	}
	return sb.String()
}

func (v genesView) TableHeaders() []string { return []string{"GENE", "ALIAS", "VARIANT", "REJECTED"} }

func (v genesView) TableRows() [][]string {
	rows := make([][]string, 0, len(v.Genes)+len(v.Rejected))
	for _, g := range v.Genes {
		rows = append(rows, []string{g.Gene, g.Alias, g.Variant, ""})
	}
	for _, r := range v.Rejected {
		rows = append(rows, []string{r.Gene, r.Alias, r.Variant, r.Reason})
	}
	return rows
}
