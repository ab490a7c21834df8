package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medcodelab/substance-mapper/internal/application/substancematch"
	"github.com/medcodelab/substance-mapper/internal/config"
	"github.com/medcodelab/substance-mapper/internal/domain/matching"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/logging"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/vocabulary/httpcsv"
	"github.com/medcodelab/substance-mapper/internal/tabular"
	"github.com/medcodelab/substance-mapper/pkg/errors"
)

// matchOptions holds the flags of the match subcommand.
type matchOptions struct {
	inPath       string
	column       string
	outPath      string
	outputColumn string
	separator    string

	threshold      float64
	onlyFirstMatch bool
	maxPerMatchID  int
	preprocess     bool
	workers        int
}

// NewMatchCmd maps free-text records, either positional arguments or one
// column of a delimited file.
func NewMatchCmd(root *RootOptions) *cobra.Command {
	opts := &matchOptions{}

	cmd := &cobra.Command{
		Use:   "match [records...]",
		Short: "Map free-text substance mentions to the reference vocabulary",
		Long: "Match maps each given record (or each cell of --column in --in) to the\n" +
			"canonical vocabulary texts. The output always has one value per input\n" +
			"record; records without a qualifying match yield an empty value.",
		Example: `  submap match "Tamoxifen und Letrozol"
  submap match --in therapies.csv --column substanz --out matched.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, root, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.inPath, "in", "", "delimited input file")
	f.StringVar(&opts.column, "column", "", "input column to match (required with --in)")
	f.StringVar(&opts.outPath, "out", "", "output file (default: stdout)")
	f.StringVar(&opts.outputColumn, "output-column", "", "name of the appended column (default: <column>_matched)")
	f.StringVar(&opts.separator, "separator", ";", "field separator of the input file")

	f.Float64Var(&opts.threshold, "threshold", 0, "minimum similarity score in (0, 1]")
	f.BoolVar(&opts.onlyFirstMatch, "only-first-match", false, "stop each record at its first match")
	f.IntVar(&opts.maxPerMatchID, "max-per-match-id", 0, "cap per vocabulary entry within one record")
	f.BoolVar(&opts.preprocess, "preprocess", false, "rewrite known abbreviations before matching")
	f.IntVar(&opts.workers, "workers", 0, "records matched concurrently")

	return cmd
}

func runMatch(cmd *cobra.Command, root *RootOptions, opts *matchOptions, args []string) error {
	if opts.inPath == "" && len(args) == 0 {
		return errors.New(errors.ErrCodeValidation, "provide records as arguments or a file via --in")
	}
	if opts.inPath != "" && opts.column == "" {
		return errors.New(errors.ErrCodeValidation, "--column is required with --in")
	}
	if len([]rune(opts.separator)) != 1 {
		return errors.New(errors.ErrCodeValidation, "--separator must be a single character")
	}

	cfg, log, err := loadConfig(root)
	if err != nil {
		return err
	}

	svc, err := buildMatchService(cmd, cfg, opts, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := svc.RefreshVocabulary(ctx); err != nil {
		return err
	}

	if opts.inPath == "" {
		outputs, err := svc.MatchTexts(ctx, args)
		if err != nil {
			return err
		}
		for _, out := range outputs {
			fmt.Fprintln(cmd.OutOrStdout(), out)
		}
		return nil
	}

	return matchFile(cmd, svc, opts)
}

// buildMatchService constructs the matcher from configuration with flag
// overrides applied, wired to the configured vocabulary source.
func buildMatchService(cmd *cobra.Command, cfg *config.Config, opts *matchOptions, log logging.Logger) (*substancematch.Service, error) {
	mOpts := matching.Options{
		Threshold:      cfg.Matcher.Threshold,
		OnlyFirstMatch: cfg.Matcher.OnlyFirstMatch,
		MaxPerMatchID:  cfg.Matcher.MaxPerMatchID,
		SplitPattern:   cfg.Matcher.SplitPattern,
		JoinDelimiter:  cfg.Matcher.JoinDelimiter,
		Preprocess:     cfg.Matcher.Preprocess,
		Workers:        cfg.Matcher.Workers,
	}
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		mOpts.Threshold = opts.threshold
	}
	if flags.Changed("only-first-match") {
		mOpts.OnlyFirstMatch = opts.onlyFirstMatch
	}
	if flags.Changed("max-per-match-id") {
		mOpts.MaxPerMatchID = opts.maxPerMatchID
	}
	if flags.Changed("preprocess") {
		mOpts.Preprocess = opts.preprocess
	}
	if flags.Changed("workers") {
		mOpts.Workers = opts.workers
	}

	matcher, err := matching.NewMatcher(mOpts, nil)
	if err != nil {
		return nil, err
	}

	provider, err := httpcsv.NewProvider(httpcsv.Config{
		URL:          cfg.Vocabulary.URL,
		IDColumn:     cfg.Vocabulary.IDColumn,
		TextColumn:   cfg.Vocabulary.TextColumn,
		Separator:    cfg.Vocabulary.Separator,
		FetchTimeout: cfg.Vocabulary.FetchTimeout,
	}, log)
	if err != nil {
		return nil, err
	}

	return substancematch.NewService(substancematch.Dependencies{
		Matcher:  matcher,
		Provider: provider,
		Logger:   log,
		Source:   "cli",
	})
}

// matchFile maps one column of a delimited file and writes the table back
// with the matched column appended.  The row count never changes.
func matchFile(cmd *cobra.Command, svc *substancematch.Service, opts *matchOptions) error {
	sep := []rune(opts.separator)[0]

	table, err := tabular.ReadFile(opts.inPath, sep)
	if err != nil {
		return err
	}
	records, err := table.Column(opts.column)
	if err != nil {
		return err
	}

	outputs, err := svc.MatchTexts(cmd.Context(), records)
	if err != nil {
		return err
	}

	outputColumn := opts.outputColumn
	if outputColumn == "" {
		outputColumn = opts.column + "_matched"
	}
	if err := table.AppendColumn(outputColumn, outputs); err != nil {
		return err
	}

	if opts.outPath == "" {
		return table.Write(cmd.OutOrStdout())
	}
	if err := table.WriteFile(opts.outPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s\n", len(table.Rows), opts.outPath)
	return nil
}
