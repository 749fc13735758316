/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package chameleon

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"github.com/zswitten/starchameleon/agents/agenttrace"
	"github.com/zswitten/starchameleon/agents/backend"
	"github.com/zswitten/starchameleon/agents/result"
)

// DefaultProgressEvery is how many backend calls pass between progress logs.
const DefaultProgressEvery = 50

// Params are the generation parameters sent with every request.
type Params struct {
	MaxTokens   int64   `json:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// DefaultParams returns the backend defaults.
func DefaultParams() Params {
	return Params{MaxTokens: backend.DefaultMaxTokens, Temperature: backend.DefaultTemperature}
}

// Config describes one benchmark run.
type Config struct {
	// Models take part as authors, continuers and judges.
	Models  []string
	Prompts []Prompt
	// NumPrompts samples that many prompts at random; 0 uses all.
	NumPrompts int
	// Concurrency bounds in-flight backend calls; 1 is strictly sequential.
	Concurrency int
	Params      Params
	// Seed makes prompt sampling and candidate orderings reproducible.
	Seed *uint64
	// ProgressEvery is the logging cadence in calls; 0 uses the default
	// and a negative value disables progress logs.
	ProgressEvery int
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if len(c.Models) < 2 {
		return fmt.Errorf("need at least 2 models, got %d", len(c.Models))
	}
	seen := make(map[string]struct{}, len(c.Models))
	for _, m := range c.Models {
		if m == "" {
			return errors.New("empty model name")
		}
		if _, dup := seen[m]; dup {
			return fmt.Errorf("duplicate model %q", m)
		}
		seen[m] = struct{}{}
	}
	if err := ValidatePrompts(c.Prompts); err != nil {
		return err
	}
	if c.NumPrompts < 0 {
		return fmt.Errorf("num prompts must be non-negative, got %d", c.NumPrompts)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Params.MaxTokens < 0 {
		return fmt.Errorf("max tokens must be non-negative, got %d", c.Params.MaxTokens)
	}
	if c.Params.Temperature < 0 {
		return fmt.Errorf("temperature must be non-negative, got %g", c.Params.Temperature)
	}
	for _, m := range c.Models {
		if limit := backend.MaxTemperature(m); c.Params.Temperature > limit {
			return fmt.Errorf("temperature %g exceeds the limit of %g for %s", c.Params.Temperature, limit, m)
		}
	}
	return nil
}

// ExpectedCalls is the number of backend calls a complete run makes.
func ExpectedCalls(prompts, models int) int {
	n := models
	return prompts * (n + n*(n-1) + n*n)
}

// Option configures a Runner.
type Option func(*Runner) error

// WithObserver adds an observer notified as units finish.
func WithObserver(o Observer) Option {
	return func(r *Runner) error {
		if o == nil {
			return errors.New("observer cannot be nil")
		}
		r.observers = append(r.observers, o)
		return nil
	}
}

// WithClock overrides time.Now for the run timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		r.now = now
		return nil
	}
}

// Runner executes the benchmark against a backend.
type Runner struct {
	backend   backend.Interface
	cfg       Config
	observers Observers
	shuffler  *Shuffler
	now       func() time.Time
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(b backend.Interface, cfg Config, opts ...Option) (*Runner, error) {
	if b == nil {
		return nil, errors.New("backend cannot be nil")
	}
	if cfg.ProgressEvery == 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	r := &Runner{
		backend:  b,
		cfg:      cfg,
		shuffler: NewShuffler(cfg.Seed),
		now:      time.Now,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return r, nil
}

// run is the state of one Run call.
type run struct {
	*Runner
	prompts  []Prompt
	byID     map[string]Prompt
	acc      *accumulator
	calls    atomic.Int64
	expected int
}

// Run executes every stage in order. Unit failures are recorded in the
// result and never abort the run. If ctx is cancelled, Run stops scheduling
// work and returns what completed so far together with the context error.
// ErrNoStories is returned when no model produced a story.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	if r.cfg.Seed != nil {
		rng = rand.New(rand.NewPCG(*r.cfg.Seed, 0))
	}
	prompts := SamplePrompts(r.cfg.Prompts, r.cfg.NumPrompts, rng)
	st := &run{
		Runner:   r,
		prompts:  prompts,
		byID:     make(map[string]Prompt, len(prompts)),
		acc:      newAccumulator(r.cfg.Models, prompts),
		expected: ExpectedCalls(len(prompts), len(r.cfg.Models)),
	}
	for _, p := range prompts {
		st.byID[p.ID] = p
	}

	started := r.now()
	log := clog.FromContext(ctx)
	log.With("models", len(r.cfg.Models)).
		With("prompts", len(prompts)).
		With("expected_calls", st.expected).
		Info("Starting benchmark")

	finish := func(err error) (*Result, error) {
		res := st.acc.result(r.cfg.Models, prompts)
		res.StartedAt, res.FinishedAt = started, r.now()
		st.logSummary(ctx, res)
		return res, err
	}

	st.completions(ctx)
	if err := ctx.Err(); err != nil {
		return finish(err)
	}
	stories := st.acc.Stories()
	if len(stories) == 0 {
		return finish(ErrNoStories)
	}

	st.continuations(ctx, stories)
	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	st.judgments(ctx, stories, st.acc.Continuations())
	return finish(ctx.Err())
}

// forEach runs fn for every unit with the configured concurrency. Units
// not yet started when ctx is cancelled are dropped.
func (st *run) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	var g errgroup.Group
	g.SetLimit(st.cfg.Concurrency)
	for i := range n {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

func (st *run) completions(ctx context.Context) {
	models := st.cfg.Models
	st.forEach(ctx, len(st.prompts)*len(models), func(ctx context.Context, i int) {
		prompt, model := st.prompts[i/len(models)], models[i%len(models)]
		storyID := StoryID(prompt.ID, model)
		ctx = agenttrace.WithUnit(ctx, agenttrace.Unit{
			Stage:    string(StageCompletion),
			PromptID: prompt.ID,
			StoryID:  storyID,
			Subject:  model,
		})

		text, err := st.generate(ctx, StageCompletion, model, prompt.Text)
		if err == nil {
			text, _ = result.ExtractTagOrTrim(text, "completion")
			if text == "" {
				err = ErrEmptyOutput
			}
		}
		if err != nil {
			st.fail(ctx, StageCompletion, model, storyID, err)
			return
		}
		words := WordCount(text)
		if prompt.TargetWords > 0 {
			clog.FromContext(ctx).With("story", storyID).
				With("words", words).
				With("target_words", prompt.TargetWords).
				Debug("Story length")
		}
		st.acc.addStory(Story{ID: storyID, PromptID: prompt.ID, Author: model, Text: text})
	})
}

type continuationUnit struct {
	story Story
	model string
}

func (st *run) continuations(ctx context.Context, stories []Story) {
	var units []continuationUnit
	for _, s := range stories {
		for _, m := range st.cfg.Models {
			if m != s.Author {
				units = append(units, continuationUnit{story: s, model: m})
			}
		}
	}

	st.forEach(ctx, len(units), func(ctx context.Context, i int) {
		u := units[i]
		ctx = agenttrace.WithUnit(ctx, agenttrace.Unit{
			Stage:    string(StageContinuation),
			PromptID: u.story.PromptID,
			StoryID:  u.story.ID,
			Subject:  u.model,
		})

		cont, err := NewContinuation(u.story, u.model, "")
		if err != nil {
			st.fail(ctx, StageContinuation, u.model, u.story.ID, err)
			return
		}
		content, err := BuildContinuationPrompt(st.byID[u.story.PromptID], u.story)
		if err != nil {
			st.fail(ctx, StageContinuation, u.model, u.story.ID, err)
			return
		}
		text, err := st.generate(ctx, StageContinuation, u.model, content)
		if err == nil {
			var found bool
			text, found = result.ExtractTagOrTrim(text, "completion")
			cont.MissingTag = !found
			if text == "" {
				err = ErrEmptyOutput
			}
		}
		if err != nil {
			st.fail(ctx, StageContinuation, u.model, u.story.ID, err)
			return
		}
		if cont.MissingTag {
			clog.FromContext(ctx).With("model", u.model).
				With("story_id", u.story.ID).
				Warn("Continuation is missing <completion> tags, using the whole response")
			st.observers.MissingTag(u.model)
		}
		cont.Text = text
		st.acc.addContinuation(cont)
	})
}

type judgmentUnit struct {
	set   CandidateSet
	judge string
}

func (st *run) judgments(ctx context.Context, stories []Story, continuations []Continuation) {
	var units []judgmentUnit
	for _, s := range stories {
		set, err := NewCandidateSet(s, continuations)
		if err != nil {
			clog.FromContext(ctx).With("story_id", s.ID).
				With("candidates", len(set.Candidates)).
				Warn("Skipping judgment: not enough candidates")
			st.acc.skip(s.ID)
			st.acc.addFailure(Failure{
				Stage:   StageJudgment,
				Kind:    KindInsufficientCandidate,
				Model:   s.Author,
				Subject: s.ID,
				Error:   err.Error(),
			})
			st.observers.Skipped(s.ID)
			continue
		}
		for _, judge := range st.cfg.Models {
			units = append(units, judgmentUnit{set: set, judge: judge})
		}
	}

	st.forEach(ctx, len(units), func(ctx context.Context, i int) {
		u := units[i]
		story := u.set.Story
		ctx = agenttrace.WithUnit(ctx, agenttrace.Unit{
			Stage:    string(StageJudgment),
			PromptID: story.PromptID,
			StoryID:  story.ID,
			Subject:  u.judge,
		})

		shown := st.shuffler.Shuffle(story.ID, u.judge, u.set.Candidates)
		content, err := BuildJudgePrompt(st.byID[story.PromptID], story, shown)
		if err != nil {
			st.fail(ctx, StageJudgment, u.judge, story.ID, err)
			return
		}
		text, err := st.generate(ctx, StageJudgment, u.judge, content)
		if err != nil {
			st.fail(ctx, StageJudgment, u.judge, story.ID, err)
			return
		}

		rec, err := NewJudgmentRecord(story, u.judge, shown, text)
		st.acc.addJudgment(rec)
		st.observers.Judgment(rec)
		if err != nil {
			st.fail(ctx, StageJudgment, u.judge, story.ID, err)
			return
		}
		clog.FromContext(ctx).With("judge", u.judge).
			With("story_id", story.ID).
			With("selected", rec.Selected).
			With("correct", rec.Correct).
			With("rank_of_correct", rec.RankOfCorrect).
			Debug("Judgment recorded")
	})
}

// generate sends a single user message to model.
func (st *run) generate(ctx context.Context, stage Stage, model, content string) (string, error) {
	resp, err := st.backend.Generate(ctx, backend.Request{
		Model:       model,
		Messages:    []backend.Message{{Role: backend.RoleUser, Content: content}},
		MaxTokens:   st.cfg.Params.MaxTokens,
		Temperature: st.cfg.Params.Temperature,
	}.WithDefaults())
	if err == nil && (resp == nil || strings.TrimSpace(resp.Text) == "") {
		err = ErrEmptyOutput
	}
	// Calls abandoned by cancellation are not part of the run.
	if err == nil || ctx.Err() == nil {
		st.observers.Call(stage, model, err)
		st.progress(ctx)
	}
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (st *run) fail(ctx context.Context, stage Stage, model, subject string, err error) {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return
	}
	f := Failure{Stage: stage, Kind: FailureKind(err), Model: model, Subject: subject, Error: err.Error()}
	clog.FromContext(ctx).With("stage", stage).
		With("model", model).
		With("subject", subject).
		With("kind", f.Kind).
		Warn("Unit failed: " + f.Error)
	st.acc.addFailure(f)
}

// FailureKind classifies a unit error.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedJudgment):
		return KindMalformedJudgment
	case errors.Is(err, ErrInsufficientCandidates):
		return KindInsufficientCandidate
	case errors.Is(err, ErrEmptyOutput), errors.Is(err, backend.ErrEmptyResponse):
		return KindEmptyOutput
	case backend.IsUnavailable(err):
		return KindUnavailable
	default:
		return KindBackendError
	}
}

func (st *run) progress(ctx context.Context) {
	done := st.calls.Add(1)
	every := int64(st.cfg.ProgressEvery)
	if every <= 0 || done%every != 0 {
		return
	}
	log := clog.FromContext(ctx)
	pct := 0.0
	if st.expected > 0 {
		pct = 100 * float64(done) / float64(st.expected)
	}
	log.Infof("Progress: %d/%d calls (%.1f%%)", done, st.expected, pct)

	if missing := st.acc.MissingTags(); len(missing) > 0 {
		log.Infof("Missing completion tags: %s", formatCounts(st.cfg.Models, missing))
	}
	if judgments := st.acc.Judgments(); len(judgments) > 0 {
		fooled := make(map[string]int, len(st.cfg.Models))
		for _, s := range Score(st.cfg.Models, judgments) {
			fooled[s.Model] = s.TimesFooledOthers
		}
		log.Infof("Times fooled others so far: %s", formatCounts(st.cfg.Models, fooled))
	}
}

func (st *run) logSummary(ctx context.Context, res *Result) {
	log := clog.FromContext(ctx)
	log.With("stories", len(res.Stories)).
		With("continuations", len(res.Continuations)).
		With("judgments", len(res.Judgments)).
		With("skipped_stories", len(res.SkippedStories)).
		With("failures", len(res.Failures)).
		With("duration", res.FinishedAt.Sub(res.StartedAt)).
		Info("Benchmark finished")
	for _, c := range CountFailures(res.Failures) {
		log.Warnf("%d %s failures in stage %s", c.Count, c.Kind, c.Stage)
	}
}

// FailureCount is the number of failures of one kind in one stage.
type FailureCount struct {
	Stage Stage
	Kind  string
	Count int
}

// CountFailures groups failures by stage and kind.
func CountFailures(failures []Failure) []FailureCount {
	var out []FailureCount
	for _, f := range failures {
		i := slices.IndexFunc(out, func(c FailureCount) bool { return c.Stage == f.Stage && c.Kind == f.Kind })
		if i < 0 {
			out = append(out, FailureCount{Stage: f.Stage, Kind: f.Kind})
			i = len(out) - 1
		}
		out[i].Count++
	}
	slices.SortFunc(out, func(x, y FailureCount) int {
		if d := stageRank(x.Stage) - stageRank(y.Stage); d != 0 {
			return d
		}
		return strings.Compare(x.Kind, y.Kind)
	})
	return out
}

func formatCounts(models []string, counts map[string]int) string {
	parts := make([]string, 0, len(models))
	for _, m := range models {
		parts = append(parts, fmt.Sprintf("%s=%d", m, counts[m]))
	}
	return strings.Join(parts, " ")
}
