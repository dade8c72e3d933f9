package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studentai/internal/quiz"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Work with quiz text and score history",
}

var quizParseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse tagged quiz text (TYPE:/Q:/A:/OPTIONS:/EXPLANATION:) and print the questions",
	Long:  "Parse tagged quiz text and print the questions. Use - to read from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("read quiz text: %w", err)
		}

		questions := quiz.TagParser{}.Parse(string(data))
		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(questions)
		}
		if len(questions) == 0 {
			fmt.Fprintln(out, "No questions found.")
			return nil
		}
		for i, q := range questions {
			fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d. [%s] %s", i+1, q.Type, q.Prompt)))
			if len(q.Options) > 0 {
				fmt.Fprintf(out, "   Options: %s\n", strings.Join(q.Options, " | "))
			}
			answer := q.Answer
			if answer == "" {
				answer = dimStyle.Render("(missing)")
			}
			fmt.Fprintf(out, "   Answer:  %s\n", answer)
			if q.Explanation != "" {
				fmt.Fprintln(out, dimStyle.Render("   "+q.Explanation))
			}
		}
		return nil
	},
}

var quizHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show graded quiz scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		history, err := quiz.NewReportLog(cfg.Path("quiz_reports.csv")).History()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(history) == 0 {
			fmt.Fprintln(out, "No quiz results yet.")
			return nil
		}

		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%-19s  %-28s  %7s  %8s", "Timestamp", "Topic", "Score", "Percent")))
		fmt.Fprintln(out, rule(70))
		for _, row := range history {
			fmt.Fprintf(out, "%-19s  %-28s  %7s  %8s\n",
				row["timestamp"],
				truncate(row["topic"], 28),
				row["score"]+"/"+row["total"],
				row["percentage"])
		}
		return nil
	},
}

func init() {
	quizParseCmd.Flags().Bool("json", false, "Print questions as JSON")

	quizCmd.AddCommand(quizParseCmd)
	quizCmd.AddCommand(quizHistoryCmd)
}
