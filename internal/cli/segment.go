package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docdigest/internal/domain/segment"
)

func newSegmentCmd() *cobra.Command {
	var (
		maxTokens int
		tokenizer string
	)

	cmd := &cobra.Command{
		Use:   "segment FILE",
		Short: "Print the chunks a file is split into",
		Long: `Split a file the way the summarizer sees it: paragraphs first, then
sentences, then words, each chunk within the token limit. A single word
longer than the limit is printed alone and flagged oversized.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, b, err := loadBudgeter(cmd.Context(), tokenizer)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-tokens") {
				maxTokens = cfg.ChunkTokenLimit
			}
			text, err := readText(args[0])
			if err != nil {
				return err
			}

			chunks := segment.New(b).Segment(text, maxTokens)
			out := cmd.OutOrStdout()
			for _, c := range chunks {
				flag := ""
				if c.Oversized {
					flag = " oversized"
				}
				fmt.Fprintf(out, "#%d tokens=%d bytes=%d-%d%s\n%s\n\n", c.Index, c.Tokens, c.Start, c.End, flag, c.Text)
			}
			fmt.Fprintf(out, "%d chunks, limit %d tokens\n", len(chunks), maxTokens)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "chunk token limit (defaults to DIGEST_CHUNK_TOKEN_LIMIT)")
	cmd.Flags().StringVar(&tokenizer, "tokenizer", "", "heuristic or tiktoken (defaults to DIGEST_TOKENIZER)")
	return cmd
}
