package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spigell/interview-prepper/internal/speech"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file|-]",
	Short: "Score the spoken delivery of a transcript",
	Long:  "Score the spoken delivery of a transcript read from a file or, with - or no argument, from stdin.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Float64("duration", 0, "length of the recording in seconds. 0 estimates it from the word count.")
}

func analyze(cmd *cobra.Command, args []string) {
	logger := newLogger()
	defer logger.Sync()

	transcript, err := readTranscript(cmd.InOrStdin(), args)
	if err != nil {
		logger.Fatal("reading the transcript", zap.Error(err))
	}

	duration, _ := cmd.Flags().GetFloat64("duration")

	result := speech.Analyze(transcript, duration)
	logger.Debug("transcript analyzed",
		zap.Int("word_count", result.WordCount),
		zap.Float64("confidence_score", result.ConfidenceScore),
	)

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("encoding the analysis", zap.Error(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
}

func readTranscript(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", args[0], err)
	}
	return string(data), nil
}
