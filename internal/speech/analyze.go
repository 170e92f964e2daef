// Package speech scores how confident a spoken answer sounds from its transcript.
package speech

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	baselineWPM    = 150.0
	baseConfidence = 9.5
	fillerWeight   = 0.12
	neutralScore   = 5.0
	minWords       = 3
	maxScore       = 10.0

	emptyFeedback = "Unable to analyze empty transcript."
)

// fillerWords is ordered so that detected fillers are always reported in the same order.
var fillerWords = []string{
	"um", "uh", "ah", "er", "like", "you know", "so", "basically", "actually",
	"literally", "kinda", "sorta", "i mean", "i guess", "right", "okay", "hmm",
}

var fillerPatterns = compileFillers(fillerWords)

// Analysis is the result of analysing a single transcript.
type Analysis struct {
	Fillers         []string `json:"fillers"`
	FillerCount     int      `json:"filler_count"`
	FillerRate      float64  `json:"filler_rate"`
	WordCount       int      `json:"word_count"`
	RateOfSpeech    float64  `json:"rate_of_speech"`
	ConfidenceScore float64  `json:"confidence_score"`
	Feedback        string   `json:"feedback"`
}

// FillerWords returns the filler words and phrases the analyser looks for.
func FillerWords() []string {
	return append([]string(nil), fillerWords...)
}

// Analyze scores a transcript. durationSeconds is the audio length; values <= 0 mean
// it is unknown and the rate of speech is estimated from a 150 WPM baseline.
func Analyze(transcript string, durationSeconds float64) Analysis {
	if transcript == "" {
		return Analysis{
			Fillers:  []string{},
			Feedback: emptyFeedback,
		}
	}

	text := strings.ToLower(transcript)
	wordCount := len(words(text))

	if wordCount < minWords {
		return Analysis{
			Fillers:         []string{},
			WordCount:       wordCount,
			ConfidenceScore: neutralScore,
			Feedback: fmt.Sprintf(
				"Your response was very brief (%d words). Consider providing a more detailed answer.", wordCount,
			),
		}
	}

	fillers := findFillers(text)
	fillerRate := float64(len(fillers)) / float64(wordCount)
	rate := rateOfSpeech(wordCount, durationSeconds)
	score := confidence(len(fillers), fillerRate, wordCount, rate)

	return Analysis{
		Fillers:         fillers,
		FillerCount:     len(fillers),
		FillerRate:      fillerRate,
		WordCount:       wordCount,
		RateOfSpeech:    round1(rate),
		ConfidenceScore: score,
		Feedback:        Feedback(score, len(fillers), fillerRate, wordCount, rate),
	}
}

// compileFillers matches the literal phrase only. Word boundaries are checked by
// isBoundary, since RE2's \b knows ASCII word characters only.
func compileFillers(phrases []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(phrases))
	for _, w := range phrases {
		patterns = append(patterns, regexp.MustCompile(regexp.QuoteMeta(w)))
	}
	return patterns
}

// findFillers matches every filler as a whole word or phrase. A token may be
// counted by more than one entry.
func findFillers(text string) []string {
	found := []string{}
	for _, p := range fillerPatterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			if isBoundary(text, loc[0]) && isBoundary(text, loc[1]) {
				found = append(found, text[loc[0]:loc[1]])
			}
		}
	}
	return found
}

func rateOfSpeech(wordCount int, durationSeconds float64) float64 {
	minutes := 1.0
	switch {
	case durationSeconds > 0:
		minutes = durationSeconds / 60
	case wordCount > 0:
		minutes = float64(wordCount) / baselineWPM
	}
	return float64(wordCount) / minutes
}

func confidence(fillerCount int, fillerRate float64, wordCount int, rate float64) float64 {
	score := baseConfidence
	// Explicit conversion stops the product being fused into the subtraction.
	score -= float64((fillerRate * 100) * fillerWeight)

	switch {
	case wordCount < 10:
		score -= 2.0
	case wordCount < 30:
		score -= 1.0
	case wordCount > 200:
		score -= 0.5
	case wordCount >= 40 && wordCount <= 120:
		score += 0.5
	}

	switch {
	case rate < 90:
		score -= 1.0
	case rate > 180:
		score -= 1.0
	case rate >= 120 && rate <= 150:
		score += 0.5
	}

	score = math.Min(maxScore, math.Max(0, round1(score)))

	if isPerfect(fillerCount, wordCount, rate) {
		return maxScore
	}
	return score
}

func isPerfect(fillerCount, wordCount int, rate float64) bool {
	return fillerCount == 0 &&
		wordCount >= 40 && wordCount <= 120 &&
		rate >= 120 && rate <= 150
}

// round1 rounds half to even on the exact binary value, so 8.25 becomes 8.2.
func round1(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return r
}
