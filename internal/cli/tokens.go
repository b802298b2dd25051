package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokensCmd() *cobra.Command {
	var tokenizer string

	cmd := &cobra.Command{
		Use:   "tokens FILE...",
		Short: "Estimate the token count of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, b, err := loadBudgeter(cmd.Context(), tokenizer)
			if err != nil {
				return err
			}
			total := 0
			for _, path := range args {
				text, err := readText(path)
				if err != nil {
					return err
				}
				n := b.EstimateTokens(text)
				total += n
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", n, path)
			}
			if len(args) > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\ttotal\n", total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tokenizer, "tokenizer", "", "heuristic or tiktoken (defaults to DIGEST_TOKENIZER)")
	return cmd
}
