package speech

import (
	"fmt"
	"strings"
)

// Feedback composes human readable advice from the measured speech characteristics.
func Feedback(score float64, fillerCount int, fillerRate float64, wordCount int, rate float64) string {
	parts := []string{confidenceSentence(score)}

	var fillerPercentage float64
	if fillerCount > 0 {
		fillerPercentage = fillerRate * 100
		if s := fillerSentence(fillerCount, fillerPercentage); s != "" {
			parts = append(parts, s)
		}
	} else {
		parts = append(parts, "You effectively avoided filler words, which strengthens your delivery.")
	}

	if s := rateSentence(rate); s != "" {
		parts = append(parts, s)
	}

	if s := lengthSentence(wordCount); s != "" {
		parts = append(parts, s)
	}

	feedback := strings.Join(parts, " ")

	switch {
	case fillerPercentage > 10:
		feedback += " Tip: Record yourself practicing answers and listen for filler words."
	case wordCount < 30:
		feedback += " Tip: Try the STAR method (Situation, Task, Action, Result) to structure more complete answers."
	}

	return feedback
}

func confidenceSentence(score float64) string {
	switch {
	case score >= 8.5:
		return "Your speech shows excellent confidence and clarity."
	case score >= 7:
		return "Your speech shows very good confidence overall."
	case score >= 6:
		return "Your speech shows good confidence."
	case score >= 4:
		return "Your speech shows moderate confidence."
	case score >= 2:
		return "Your speech shows some hesitation that may impact perceived confidence."
	default:
		return "Your speech confidence could use improvement."
	}
}

func fillerSentence(count int, percentage float64) string {
	switch {
	case percentage > 15:
		return fmt.Sprintf("You used many filler words (%d, %.1f%% of speech). Try to pause silently instead.", count, percentage)
	case percentage > 8:
		return fmt.Sprintf("You used several filler words (%d, %.1f%% of speech). Practice replacing them with brief pauses.", count, percentage)
	case percentage > 3:
		return fmt.Sprintf("You used some filler words (%d, %.1f%% of speech).", count, percentage)
	default:
		return ""
	}
}

func rateSentence(rate float64) string {
	switch {
	case rate < 90:
		return fmt.Sprintf("You spoke quite slowly (%.0f words per minute). Try to speak a bit faster for a more natural flow.", rate)
	case rate > 180:
		return fmt.Sprintf("You spoke very quickly (%.0f words per minute). Try to slow down for clarity.", rate)
	case rate >= 110 && rate <= 160:
		return fmt.Sprintf("Your speaking rate (%.0f WPM) was ideal for clear communication.", rate)
	default:
		return ""
	}
}

func lengthSentence(wordCount int) string {
	switch {
	case wordCount < 10:
		return "Your answer was very brief. Consider providing more detail in your responses."
	case wordCount < 30:
		return "Your answer was somewhat brief. More elaboration could strengthen your response."
	case wordCount > 200:
		return "Your answer was quite detailed, which can be good but ensure you're staying focused on the key points."
	default:
		return ""
	}
}
