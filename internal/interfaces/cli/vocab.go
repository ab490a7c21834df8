package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/medcodelab/substance-mapper/internal/infrastructure/vocabulary/httpcsv"
)

// NewVocabCmd inspects the reference vocabulary.
func NewVocabCmd(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Inspect the reference vocabulary",
	}
	cmd.AddCommand(newVocabFetchCmd(root))
	return cmd
}

func newVocabFetchCmd(root *RootOptions) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the reference vocabulary and report its size and version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(root)
			if err != nil {
				return err
			}

			provider, err := httpcsv.NewProvider(httpcsv.Config{
				URL:          cfg.Vocabulary.URL,
				IDColumn:     cfg.Vocabulary.IDColumn,
				TextColumn:   cfg.Vocabulary.TextColumn,
				Separator:    cfg.Vocabulary.Separator,
				FetchTimeout: cfg.Vocabulary.FetchTimeout,
			}, log)
			if err != nil {
				return err
			}

			vocab, err := provider.Fetch(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entries: %d\n", vocab.Len())
			fmt.Fprintf(out, "Version: %s\n", vocab.Version())
			if vocab.IsEmpty() {
				fmt.Fprintln(out, "Warning: the reference vocabulary is empty")
			}
			if show {
				for _, e := range vocab.Entries() {
					fmt.Fprintf(out, "%s\t%s\n", e.ID, e.Text)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "print every entry")
	return cmd
}
