package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spigell/interview-prepper/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print stored interview questions and answers grouped by day",
	Run: func(cmd *cobra.Command, _ []string) {
		history(cmd)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringP("session", "s", "", "only print records of this session")
}

func history(cmd *cobra.Command) {
	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st, err := store.Open(config.Store.Path)
	if err != nil {
		logger.Fatal("opening the interview store", zap.Error(err), zap.String("path", config.Store.Path))
	}
	defer st.Close()

	sessionID, _ := cmd.Flags().GetString("session")

	qas, err := st.List(context.Background(), sessionID)
	if err != nil {
		logger.Fatal("listing interview records", zap.Error(err))
	}

	printHistory(cmd.OutOrStdout(), qas)
}

func printHistory(out io.Writer, qas []*store.QA) {
	if len(qas) == 0 {
		fmt.Fprintln(out, "No interviews found in the database.")
		return
	}

	day := ""
	for _, qa := range qas {
		created := qa.CreatedAt.Local()
		if d := created.Format("2006-01-02"); d != day {
			fmt.Fprintf(out, "\n=== Interview Session: %s ===\n", d)
			day = d
		}

		fmt.Fprintf(out, "\nTime: %s\n", created.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Difficulty: %s\n", qa.Difficulty)
		fmt.Fprintf(out, "Q: %s\n", qa.Question)

		answer := qa.Answer
		if answer == "" {
			answer = "[No answer yet]"
		}
		fmt.Fprintf(out, "A: %s\n", answer)

		if qa.Evaluated() {
			fmt.Fprintf(out, "Score: %.1f/10\n", qa.Score)
		}
		if qa.Feedback != "" {
			fmt.Fprintf(out, "Feedback: %s\n", qa.Feedback)
		}
		if qa.ConfidenceFeedback != "" {
			fmt.Fprintf(out, "Confidence Score: %.1f/10\n", qa.ConfidenceScore)
			fmt.Fprintf(out, "Speech Feedback: %s\n", qa.ConfidenceFeedback)
		}
		fmt.Fprintln(out, strings.Repeat("-", 50))
	}
}
