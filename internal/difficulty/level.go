package difficulty

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLevel is returned when a difficulty label cannot be parsed.
var ErrUnknownLevel = errors.New("unknown difficulty level")

// Level is the interview difficulty. Levels are totally ordered from Easy to Hard.
type Level int

const (
	Easy Level = iota
	Medium
	Hard
)

var levelNames = [...]string{"Easy", "Medium", "Hard"}

// Levels returns all difficulty levels in ascending order.
func Levels() []Level {
	return []Level{Easy, Medium, Hard}
}

// LevelNames returns the labels of all difficulty levels in ascending order.
func LevelNames() []string {
	names := make([]string, 0, len(levelNames))
	for _, l := range Levels() {
		names = append(names, l.String())
	}
	return names
}

// ParseLevel converts a label such as "medium" into a Level.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	for i, name := range levelNames {
		if strings.EqualFold(name, s) {
			return Level(i), nil
		}
	}
	return Easy, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

func (l Level) String() string {
	if !l.valid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalText renders the level as its label so it can be used in JSON payloads.
func (l Level) MarshalText() ([]byte, error) {
	if !l.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l Level) valid() bool {
	return l >= Easy && l <= Hard
}

// rank maps Easy, Medium, Hard to 1, 2, 3.
func (l Level) rank() int {
	return int(l) + 1
}

func (l Level) up() Level {
	if l >= Hard {
		return Hard
	}
	return l + 1
}

func (l Level) down() Level {
	if l <= Easy {
		return Easy
	}
	return l - 1
}

// Bucket is the performance category derived from a score.
type Bucket int

const (
	Low Bucket = iota
	Average
	High
)

const (
	lowThreshold  = 4.0
	highThreshold = 7.0
)

var bucketNames = [...]string{"low", "medium", "high"}

// BucketFor classifies a score: below 4 is low, below 7 is medium, anything else is high.
func BucketFor(score float64) Bucket {
	switch {
	case score < lowThreshold:
		return Low
	case score < highThreshold:
		return Average
	default:
		return High
	}
}

func (b Bucket) String() string {
	if b < Low || b > High {
		return fmt.Sprintf("Bucket(%d)", int(b))
	}
	return bucketNames[b]
}

func (b Bucket) rank() int {
	return int(b) + 1
}

// State is the agent state: the current difficulty paired with the recent performance bucket.
type State struct {
	Level  Level
	Bucket Bucket
}

func (s State) String() string {
	return s.Level.String() + "_" + s.Bucket.String()
}

// States enumerates all nine states ordered by level, then by bucket.
func States() []State {
	states := make([]State, 0, len(levelNames)*len(bucketNames))
	for _, l := range Levels() {
		for b := Low; b <= High; b++ {
			states = append(states, State{Level: l, Bucket: b})
		}
	}
	return states
}

// Action is a difficulty adjustment the agent can take.
type Action int

const (
	Keep Action = iota
	Increase
	Decrease
)

var actionNames = [...]string{"keep", "increase", "decrease"}

func (a Action) String() string {
	if a < Keep || a > Decrease {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return actionNames[a]
}

// ValidActions returns the actions that make sense at the given level.
func ValidActions(l Level) []Action {
	switch l {
	case Easy:
		return []Action{Keep, Increase}
	case Hard:
		return []Action{Keep, Decrease}
	default:
		return []Action{Keep, Increase, Decrease}
	}
}

// Apply returns the level reached by taking the action. Moving past either end is a no-op.
func Apply(l Level, a Action) Level {
	switch a {
	case Increase:
		return l.up()
	case Decrease:
		return l.down()
	default:
		return l
	}
}
