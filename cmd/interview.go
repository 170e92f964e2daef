package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spigell/interview-prepper/internal/difficulty"
	"github.com/spigell/interview-prepper/internal/interview"
	"github.com/spigell/interview-prepper/internal/resume"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptAnswer          = "Answer"
	PromptSpokenAnswer    = "Answer with speech analysis"
	PromptShowDifficulty  = "Show difficulty"
	PromptSetDifficulty   = "Change difficulty"
	PromptFinishInterview = "Finish interview"
)

var interviewPrompt = promptui.Select{
	Label: "Next step",
	Items: []string{PromptAnswer, PromptSpokenAnswer, PromptShowDifficulty, PromptSetDifficulty, PromptFinishInterview},
}

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interactive mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("resume", "r", "", "plain text résumé file (required)")
	interviewCmd.Flags().String("job-description", "", "job description the interview targets")
	interviewCmd.Flags().String("job-title", "", "job title used for résumé advice (default is resume.job-title or the job description)")
	interviewCmd.Flags().String("difficulty", "", "initial difficulty: Easy, Medium or Hard (default is difficulty.initial)")

	interviewCmd.MarkFlagRequired("resume")

	viper.BindPFlag("resume.job-title", interviewCmd.Flags().Lookup("job-title"))
}

func runInterview(cmd *cobra.Command) {
	ctx := context.Background()
	out := cmd.OutOrStdout()

	logger := newLogger()
	defer logger.Sync()

	resumePath, _ := cmd.Flags().GetString("resume")
	resumeText, err := resume.Load(resumePath)
	if err != nil {
		logger.Fatal("loading the resume", zap.Error(err))
	}

	jobDescription, _ := cmd.Flags().GetString("job-description")
	level, _ := cmd.Flags().GetString("difficulty")

	a := newApplication(ctx, logger)
	defer a.close()

	session, err := a.manager.Start(ctx, interview.StartRequest{
		Resume:         resumeText,
		JobDescription: jobDescription,
		Difficulty:     level,
	})
	if err != nil {
		logger.Fatal("starting the interview", zap.Error(err))
	}
	defer a.manager.End(session.ID)

	printAdvice(out, session.Advice)

	reply, err := a.manager.Chat(ctx, session.ID, "start", "")
	if err != nil {
		logger.Fatal("asking the first question", zap.Error(err))
	}
	printQuestion(out, reply)

	for {
		_, action, err := interviewPrompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			action = PromptFinishInterview
		} else if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		switch action {
		case PromptAnswer, PromptSpokenAnswer:
			reply, err := answerQuestion(ctx, a.manager, session.ID, action == PromptSpokenAnswer, out)
			if err != nil {
				logger.Error("answering the question", zap.Error(err))
				continue
			}
			printReply(out, reply)
		case PromptShowDifficulty:
			status, err := a.manager.Difficulty(session.ID)
			if err != nil {
				logger.Fatal("getting the difficulty", zap.Error(err))
			}
			fmt.Fprintf(out, "Current difficulty: %s (available: %s)\n", status.Current, strings.Join(status.Available, ", "))
		case PromptSetDifficulty:
			choice := promptui.Select{Label: "Difficulty", Items: difficulty.LevelNames()}
			_, label, err := choice.Run()
			if err != nil {
				continue
			}
			// An empty message only applies the override.
			reply, err := a.manager.Chat(ctx, session.ID, "", label)
			if err != nil {
				logger.Error("changing the difficulty", zap.Error(err))
				continue
			}
			fmt.Fprintf(out, "Difficulty set to %s. It applies to the next question.\n", reply.Difficulty)
		case PromptFinishInterview:
			reply, err := a.manager.Chat(ctx, session.ID, "exit", "")
			if err != nil {
				logger.Fatal("finishing the interview", zap.Error(err))
			}
			printReport(out, reply)
			return
		}
	}
}

func answerQuestion(ctx context.Context, m *interview.Manager, sessionID string, spoken bool, out io.Writer) (*interview.Reply, error) {
	answerPrompt := promptui.Prompt{
		Label: "Your answer",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("answer is empty")
			}
			return nil
		},
	}

	answer, err := answerPrompt.Run()
	if err != nil {
		return nil, err
	}

	if spoken {
		durationPrompt := promptui.Prompt{
			Label:   "Speaking time in seconds (0 if unknown)",
			Default: "0",
			Validate: func(s string) error {
				_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				return err
			},
		}
		raw, err := durationPrompt.Run()
		if err != nil {
			return nil, err
		}
		duration, _ := strconv.ParseFloat(strings.TrimSpace(raw), 64)

		result, err := m.SubmitTranscript(ctx, sessionID, answer, duration)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "Speech: %d words, %d fillers, %.0f WPM\n",
			result.Analysis.WordCount, result.Analysis.FillerCount, result.Analysis.RateOfSpeech)
	}

	return m.Chat(ctx, sessionID, answer, "")
}

func printAdvice(out io.Writer, advice *resume.Advice) {
	if advice == nil {
		return
	}
	fmt.Fprintln(out, "Résumé keywords missing for this job:")
	fmt.Fprintln(out, advice.Missing.String())
	if advice.Feedback != "" {
		fmt.Fprintf(out, "\n%s\n", advice.Feedback)
	}
	fmt.Fprintln(out)
}

func printQuestion(out io.Writer, reply *interview.Reply) {
	fmt.Fprintf(out, "\n[%s] %s\n\n", reply.Difficulty, reply.Message)
}

func printReply(out io.Writer, reply *interview.Reply) {
	if e := reply.Evaluation; e != nil {
		fmt.Fprintf(out, "Score: %.1f/10\n", e.Score)
		if e.Reason != "" {
			fmt.Fprintf(out, "Reason: %s\n", e.Reason)
		}
		if e.Improvement != "" {
			fmt.Fprintf(out, "Improvement areas: %s\n", e.Improvement)
		}
	}
	if reply.ConfidenceScore != nil && reply.ConfidenceFeedback != "" {
		fmt.Fprintf(out, "Confidence: %.1f/10. %s\n", *reply.ConfidenceScore, reply.ConfidenceFeedback)
	}
	if reply.SuggestedDifficulty != "" {
		fmt.Fprintf(out, "Difficulty changed to %s: %s\n", reply.SuggestedDifficulty, reply.Explanation)
	}
	printQuestion(out, reply)
}

func printReport(out io.Writer, reply *interview.Reply) {
	if reply.Report == nil {
		fmt.Fprintln(out, reply.Message)
		return
	}

	fmt.Fprintln(out, reply.Message)
	for i, qa := range reply.Report.QAs {
		fmt.Fprintf(out, "\n%d. [%s] %s\n", i+1, qa.Difficulty, qa.Question)
		if !qa.Evaluated() {
			fmt.Fprintln(out, "   not answered")
			continue
		}
		fmt.Fprintf(out, "   Answer: %s\n   Score: %.1f/10\n   %s\n", qa.Answer, qa.Score, qa.Feedback)
		if qa.ConfidenceFeedback != "" {
			fmt.Fprintf(out, "   Confidence: %.1f/10. %s\n", qa.ConfidenceScore, qa.ConfidenceFeedback)
		}
	}

	if reply.Report.Advice != nil && reply.Report.Advice.Feedback != "" {
		fmt.Fprintf(out, "\nRésumé advice:\n%s\n", reply.Report.Advice.Feedback)
	}
}
