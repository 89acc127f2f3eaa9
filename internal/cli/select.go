package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/paper-nest/backend/internal/models"
	"github.com/paper-nest/backend/internal/papers"
	"github.com/spf13/cobra"
)

func newSelectCmd() *cobra.Command {
	var (
		req    models.SelectRequest
		format string
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select and print a paper without saving it",
		Example: `  paper-nest select --exam CET --standard 11th --subject Biology --count 20
  paper-nest select --exam CET --standard 11th --subject Biology --chapter "Plant Kingdom" --fixed --seed abc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			a, err := newApp(cfg, log, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.papers.Select(cmd.Context(), req)
			if err != nil {
				return err
			}
			paper := a.papers.Format(res.Selected)

			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(papers.BuildPayload(paper, res.Seed, res.SourceID))
			case "text":
				printPaper(cmd.OutOrStdout(), paper, res.Seed, res.SourceID)
				return nil
			default:
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Exam, "exam", "", "Exam name, e.g. CET")
	f.StringSliceVar((*[]string)(&req.Standards), "standard", nil, "Standard(s); repeat or comma-separate")
	f.StringSliceVar((*[]string)(&req.Subjects), "subject", nil, "Subject(s); repeat or comma-separate")
	f.StringSliceVar((*[]string)(&req.Chapters), "chapter", nil, "Chapter(s); repeat or comma-separate")
	f.IntVar(&req.Count, "count", 0, "Number of questions (0 = all matching)")
	f.BoolVar(&req.Fixed, "fixed", false, "Fixed paper: with chapters, include every matching question")
	f.StringVar(&req.Seed, "seed", "", "Seed to reproduce an earlier paper")
	f.StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

func printPaper(w io.Writer, paper models.FormattedPaper, seed, sourceID string) {
	fmt.Fprintf(w, "seed: %s\nsource: %s\nquestions: %d\n\n", seed, sourceID, len(paper.Questions))
	for _, q := range paper.Questions {
		fmt.Fprintf(w, "%d. [%s, %d mark(s)] %s\n", q.Number, q.Chapter, q.Marks, q.Question)
		for i, o := range q.Options {
			fmt.Fprintf(w, "   %c) %s\n", 'A'+i, o)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Answers:")
	for _, a := range strings.Split(paper.AnswersBlob, " | ") {
		if a != "" {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
}
