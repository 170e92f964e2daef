package difficulty

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// scriptedRandom replays queued values and fails the test when it runs dry.
type scriptedRandom struct {
	t      *testing.T
	floats []float64
	ints   []int
}

func (r *scriptedRandom) Float64() float64 {
	r.t.Helper()
	if len(r.floats) == 0 {
		r.t.Fatalf("unexpected Float64 call")
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRandom) Intn(n int) int {
	r.t.Helper()
	if len(r.ints) == 0 {
		r.t.Fatalf("unexpected Intn(%d) call", n)
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		r.t.Fatalf("scripted value %d out of range for Intn(%d)", v, n)
	}
	return v
}

func newTestController(t *testing.T, initial Level, epsilon float64, rng RandomSource) *Controller {
	t.Helper()
	opts := DefaultOptions()
	opts.Initial = initial
	opts.ExplorationRate = epsilon
	opts.Random = rng
	return New(opts)
}

func TestRecordScoreFirstCallDoesNotLearn(t *testing.T) {
	rng := &scriptedRandom{t: t}
	c := newTestController(t, Easy, 0.2, rng)

	level, explanation := c.RecordScore(7.0)
	if level != Easy {
		t.Fatalf("expected Easy, got %s", level)
	}
	if explanation != "" {
		t.Fatalf("expected no explanation, got %q", explanation)
	}

	for _, s := range States() {
		for _, a := range []Action{Keep, Increase, Decrease} {
			if v := c.Value(s, a); v != 0 {
				t.Fatalf("expected zero value for %s/%s, got %v", s, a, v)
			}
		}
	}
}

func TestRecordScoreGreedyTieBreakKeep(t *testing.T) {
	// Float64 0.5 is not below epsilon 0, so the greedy branch runs and the tie
	// between keep and increase is broken by Intn.
	rng := &scriptedRandom{t: t, floats: []float64{0.5}, ints: []int{0}}
	c := newTestController(t, Easy, 0, rng)

	c.RecordScore(8)
	level, explanation := c.RecordScore(9)

	if level != Easy {
		t.Fatalf("expected Easy after keep, got %s", level)
	}
	if explanation != "" {
		t.Fatalf("expected no explanation for keep, got %q", explanation)
	}
	if v := c.Value(State{Level: Easy, Bucket: High}, Keep); v != 0 {
		t.Fatalf("keep must not update the table, got %v", v)
	}
}

func TestRecordScoreGreedyTieBreakIncrease(t *testing.T) {
	rng := &scriptedRandom{t: t, floats: []float64{0.5}, ints: []int{1}}
	c := newTestController(t, Easy, 0, rng)

	c.RecordScore(7)
	level, explanation := c.RecordScore(8)

	if level != Medium {
		t.Fatalf("expected Medium, got %s", level)
	}

	// new state Medium/high: 5*(1-|3-2|/2) = 2.5, no improvement bonus, next max 0.
	want := 0.1 * 2.5
	if got := c.Value(State{Level: Easy, Bucket: High}, Increase); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected q value %v, got %v", want, got)
	}

	for _, fragment := range []string{"average score: 7.5", "increased the difficulty to Medium", "at the Easy level"} {
		if !strings.Contains(explanation, fragment) {
			t.Fatalf("explanation %q does not contain %q", explanation, fragment)
		}
	}
}

func TestRecordScoreExplorationDecrease(t *testing.T) {
	rng := &scriptedRandom{t: t, floats: []float64{0.0}, ints: []int{1}}
	c := newTestController(t, Hard, 1, rng)

	c.RecordScore(2)
	level, explanation := c.RecordScore(3)

	if level != Medium {
		t.Fatalf("expected Medium, got %s", level)
	}
	if !strings.Contains(explanation, "decreased the difficulty to Medium") {
		t.Fatalf("unexpected explanation: %q", explanation)
	}
	if !strings.Contains(explanation, "average score: 2.5") {
		t.Fatalf("expected mean score in explanation: %q", explanation)
	}

	// new state Medium/low: 5*(1-|1-2|/2) = 2.5.
	if got := c.Value(State{Level: Hard, Bucket: Low}, Decrease); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}

func TestRecordScoreUsesDiscountedNextValue(t *testing.T) {
	rng := &scriptedRandom{t: t, floats: []float64{0.5}, ints: []int{1}}
	c := newTestController(t, Easy, 0, rng)
	c.table[State{Level: Medium, Bucket: Average}][Decrease] = 2

	c.RecordScore(5)
	level, _ := c.RecordScore(5)
	if level != Medium {
		t.Fatalf("expected Medium, got %s", level)
	}

	// Medium/medium is a perfect match: reward 5, next max 2, gamma 0.9.
	want := 0.1 * (5 + 0.9*2)
	if got := c.Value(State{Level: Easy, Bucket: Average}, Increase); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRecordScoreExploitsLearnedValue(t *testing.T) {
	// No tie: increase has the highest value, so Intn must not be consulted.
	rng := &scriptedRandom{t: t, floats: []float64{0.9}}
	c := newTestController(t, Medium, 0.2, rng)
	c.table[State{Level: Medium, Bucket: High}][Increase] = 1

	c.RecordScore(9)
	level, explanation := c.RecordScore(9)

	if level != Hard {
		t.Fatalf("expected Hard, got %s", level)
	}
	if explanation == "" {
		t.Fatalf("expected explanation on change")
	}
}

func TestRecordScoreBoundaryIsIdempotent(t *testing.T) {
	// At Hard the valid actions are keep and decrease; scripted index 0 is keep.
	rng := &scriptedRandom{t: t, floats: []float64{0.0}, ints: []int{0}}
	c := newTestController(t, Hard, 1, rng)

	c.RecordScore(10)
	level, explanation := c.RecordScore(10)
	if level != Hard || explanation != "" {
		t.Fatalf("expected Hard without explanation, got %s %q", level, explanation)
	}

	if Apply(Hard, Increase) != Hard {
		t.Fatalf("increase from Hard must stay Hard")
	}
	if Apply(Easy, Decrease) != Easy {
		t.Fatalf("decrease from Easy must stay Easy")
	}
}

func TestHistoryKeepsLastThreeScores(t *testing.T) {
	c := New(Options{Initial: Easy, LearningRate: 0.1, DiscountFactor: 0.9, Random: NewRandomSource(1)})

	for _, s := range []float64{1, 2, 3, 4} {
		c.RecordScore(s)
	}

	if diff := cmp.Diff([]float64{2, 3, 4}, c.History()); diff != "" {
		t.Fatalf("unexpected history (-want +got):\n%s", diff)
	}
}

func TestLevelAlwaysValid(t *testing.T) {
	scores := []float64{0, 10, 3.9, 4, 6.9, 7, 10, 1, 9.5, 2, 5, 8, 0.5, 7.7, 3}

	for seed := int64(0); seed < 20; seed++ {
		for _, initial := range Levels() {
			opts := DefaultOptions()
			opts.Initial = initial
			opts.Random = NewRandomSource(seed)
			c := New(opts)

			for i, s := range scores {
				level, _ := c.RecordScore(s)
				if i == 0 && level != initial {
					t.Fatalf("seed %d: level changed after a single score", seed)
				}
				if !level.valid() {
					t.Fatalf("seed %d: invalid level %d", seed, int(level))
				}
				if len(c.History()) > historySize {
					t.Fatalf("history exceeded capacity")
				}
			}
		}
	}
}

func TestSameSeedSameDecisions(t *testing.T) {
	run := func() []Level {
		opts := DefaultOptions()
		opts.Random = NewRandomSource(42)
		c := New(opts)
		var levels []Level
		for _, s := range []float64{8, 9, 7, 2, 3, 9, 9, 9, 1} {
			l, _ := c.RecordScore(s)
			levels = append(levels, l)
		}
		return levels
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Fatalf("decisions differ for the same seed (-first +second):\n%s", diff)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	rng := &scriptedRandom{t: t, floats: []float64{0.5}, ints: []int{1}}
	c := newTestController(t, Easy, 0, rng)
	c.RecordScore(7)

	snap := c.Snapshot()
	snap.Table[State{Level: Easy, Bucket: High}][Increase] = 100
	snap.History[0] = -1

	if c.Value(State{Level: Easy, Bucket: High}, Increase) != 0 {
		t.Fatalf("snapshot table shares memory with controller")
	}
	if c.History()[0] != 7 {
		t.Fatalf("snapshot history shares memory with controller")
	}
	if len(snap.Table) != 9 {
		t.Fatalf("expected 9 states, got %d", len(snap.Table))
	}
}

func TestResetOverridesLevel(t *testing.T) {
	c := New(DefaultOptions())
	c.Reset(Hard)
	if c.Level() != Hard {
		t.Fatalf("expected Hard after reset, got %s", c.Level())
	}
}

func TestRecordScoreLogsDecision(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	opts := DefaultOptions()
	opts.ExplorationRate = 0
	opts.Random = &scriptedRandom{t: t, floats: []float64{0.5}, ints: []int{1}}
	opts.Logger = zap.New(core)
	c := New(opts)

	c.RecordScore(8)
	c.RecordScore(8)

	entries := observed.FilterMessage("difficulty changed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["from"] != "Easy" || ctx["to"] != "Medium" {
		t.Fatalf("unexpected log fields: %v", ctx)
	}
}
