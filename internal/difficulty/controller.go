package difficulty

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

const (
	historySize      = 3
	minScoresToLearn = 2

	matchReward       = 5.0
	improvementReward = 3.0
)

// RandomSource drives exploration and tie-breaking. *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
	Intn(n int) int
}

// NewRandomSource returns a seeded generator. A negative seed uses a time based seed.
func NewRandomSource(seed int64) RandomSource {
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// QTable maps every state to the estimated value of each action.
type QTable map[State]map[Action]float64

func newQTable() QTable {
	table := make(QTable, len(levelNames)*len(bucketNames))
	for _, s := range States() {
		table[s] = map[Action]float64{Keep: 0, Increase: 0, Decrease: 0}
	}
	return table
}

func (t QTable) clone() QTable {
	out := make(QTable, len(t))
	for s, actions := range t {
		values := make(map[Action]float64, len(actions))
		for a, v := range actions {
			values[a] = v
		}
		out[s] = values
	}
	return out
}

// Options configures a Controller.
type Options struct {
	Initial         Level
	LearningRate    float64
	DiscountFactor  float64
	ExplorationRate float64

	// Random is used for exploration and tie-breaking. When nil a time seeded source is used.
	Random RandomSource
	Logger *zap.Logger
}

// DefaultOptions starts at Easy with alpha 0.1, gamma 0.9 and epsilon 0.2.
func DefaultOptions() Options {
	return Options{
		Initial:         Easy,
		LearningRate:    0.1,
		DiscountFactor:  0.9,
		ExplorationRate: 0.2,
	}
}

// Controller is a Q-learning agent that decides whether to raise, lower or hold the
// interview difficulty based on the mean of the last three scores.
//
// A Controller is owned by a single interview session and is not safe for concurrent use.
type Controller struct {
	level   Level
	alpha   float64
	gamma   float64
	epsilon float64

	history []float64
	table   QTable

	rng    RandomSource
	logger *zap.Logger
}

// Snapshot is the complete state of a controller.
type Snapshot struct {
	Level   Level
	History []float64
	Table   QTable
}

func New(opts Options) *Controller {
	rng := opts.Random
	if rng == nil {
		rng = NewRandomSource(-1)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		level:   opts.Initial,
		alpha:   opts.LearningRate,
		gamma:   opts.DiscountFactor,
		epsilon: opts.ExplorationRate,
		history: make([]float64, 0, historySize),
		table:   newQTable(),
		rng:     rng,
		logger:  logger,
	}
}

// RecordScore adds an answer score and lets the agent adjust the difficulty.
// It returns the current level and, only when the level changed, an explanation.
func (c *Controller) RecordScore(score float64) (Level, string) {
	c.push(score)

	if len(c.history) < minScoresToLearn {
		return c.level, ""
	}

	avg := c.mean()
	bucket := BucketFor(avg)
	oldState := State{Level: c.level, Bucket: bucket}

	action := c.chooseAction(oldState)
	candidate := Apply(c.level, action)

	if candidate == c.level {
		c.logger.Debug("difficulty kept",
			zap.String("state", oldState.String()),
			zap.String("action", action.String()),
			zap.Float64("mean_score", avg),
		)
		return c.level, ""
	}

	// The bucket comes from the same score window, only the difficulty differs.
	newState := State{Level: candidate, Bucket: bucket}
	r := reward(oldState, newState)
	next := c.maxValue(newState, ValidActions(candidate))

	current := c.table[oldState][action]
	updated := (1-c.alpha)*current + c.alpha*(r+c.gamma*next)
	c.table[oldState][action] = updated

	previous := c.level
	c.level = candidate

	c.logger.Debug("difficulty changed",
		zap.String("state", oldState.String()),
		zap.String("action", action.String()),
		zap.String("from", previous.String()),
		zap.String("to", candidate.String()),
		zap.Float64("mean_score", avg),
		zap.Float64("reward", r),
		zap.Float64("q_value", updated),
	)

	return c.level, explain(previous, candidate, action, avg)
}

// Level returns the current difficulty.
func (c *Controller) Level() Level {
	return c.level
}

// Reset forces the current difficulty, keeping learned values and score history.
func (c *Controller) Reset(l Level) {
	c.level = l
}

// Value returns the learned value of taking the action in the state.
func (c *Controller) Value(s State, a Action) float64 {
	return c.table[s][a]
}

// History returns a copy of the recent scores, oldest first.
func (c *Controller) History() []float64 {
	return append([]float64(nil), c.history...)
}

// Snapshot returns a deep copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Level:   c.level,
		History: c.History(),
		Table:   c.table.clone(),
	}
}

func (c *Controller) push(score float64) {
	if len(c.history) == historySize {
		copy(c.history, c.history[1:])
		c.history = c.history[:historySize-1]
	}
	c.history = append(c.history, score)
}

func (c *Controller) mean() float64 {
	if len(c.history) == 0 {
		return 0
	}
	var sum float64
	for _, s := range c.history {
		sum += s
	}
	return sum / float64(len(c.history))
}

// chooseAction is epsilon-greedy over the actions valid for the state's level.
func (c *Controller) chooseAction(s State) Action {
	valid := ValidActions(s.Level)

	if c.rng.Float64() < c.epsilon {
		return valid[c.rng.Intn(len(valid))]
	}

	best := math.Inf(-1)
	var candidates []Action
	for _, a := range valid {
		v := c.table[s][a]
		switch {
		case v > best:
			best = v
			candidates = append(candidates[:0], a)
		case v == best:
			candidates = append(candidates, a)
		}
	}

	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[c.rng.Intn(len(candidates))]
}

func (c *Controller) maxValue(s State, actions []Action) float64 {
	best := math.Inf(-1)
	for _, a := range actions {
		if v := c.table[s][a]; v > best {
			best = v
		}
	}
	if math.IsInf(best, -1) {
		return 0
	}
	return best
}

func reward(oldState, newState State) float64 {
	gap := math.Abs(float64(newState.Bucket.rank() - newState.Level.rank()))
	r := matchReward * (1 - gap/2)
	if newState.Bucket.rank() > oldState.Bucket.rank() {
		r += improvementReward
	}
	return r
}

func explain(from, to Level, action Action, avg float64) string {
	switch action {
	case Increase:
		return fmt.Sprintf(
			"Based on your recent performance (average score: %.1f), the system has increased the difficulty to %s. "+
				"You've demonstrated good understanding of the questions at the %s level.",
			avg, to, from,
		)
	case Decrease:
		return fmt.Sprintf(
			"To better match your current performance level (average score: %.1f), the system has decreased the difficulty to %s. "+
				"This will help you build confidence and improve your answers.",
			avg, to,
		)
	default:
		return ""
	}
}
