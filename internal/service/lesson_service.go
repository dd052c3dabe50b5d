package service

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"pyquest/internal/errs"
	"pyquest/internal/interpreter"
	"pyquest/internal/logx"
)

//go:embed lessons.yaml
var defaultLessons []byte

// Lesson is one exercise on the map
type Lesson struct {
	ID             string   `yaml:"id" json:"id"`
	Level          int      `yaml:"level" json:"level"`
	Title          string   `yaml:"title" json:"title"`
	Story          string   `yaml:"story" json:"story"`
	Statements     []string `yaml:"statements" json:"statements"`
	LoopBody       []string `yaml:"loopBody" json:"loopBody,omitempty"`
	StarterCode    string   `yaml:"starterCode" json:"starterCode"`
	ExpectedOutput []string `yaml:"expectedOutput" json:"expectedOutput,omitempty"`
	RewardXP       int      `yaml:"rewardXP" json:"rewardXP"`
	RewardCoins    int      `yaml:"rewardCoins" json:"rewardCoins"`

	grammar *interpreter.Grammar
}

type lessonCatalog struct {
	Lessons []Lesson `yaml:"lessons"`
}

// RunResult is what the lesson screen shows after the Run button
type RunResult struct {
	Output    []string          `json:"output"`
	Failed    bool              `json:"failed"`
	Passed    *bool             `json:"passed,omitempty"`
	Variables map[string]string `json:"variables"`
}

// LessonService serves the lesson catalog and runs exercises
type LessonService struct {
	lessons []Lesson
	byID    map[string]int
	runner  interpreter.Runner
}

// LoadLessonService reads the catalog from path, or the built-in one when path is empty
func LoadLessonService(path string, runner interpreter.Runner) (*LessonService, error) {
	data := defaultLessons
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read lessons file: %w", err)
		}
		data = raw
	}
	return NewLessonService(data, runner)
}

// NewLessonService parses a YAML catalog and builds every lesson's grammar
func NewLessonService(data []byte, runner interpreter.Runner) (*LessonService, error) {
	var catalog lessonCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse lessons: %w", err)
	}
	if len(catalog.Lessons) == 0 {
		return nil, fmt.Errorf("lesson catalog is empty")
	}

	s := &LessonService{
		byID:   make(map[string]int, len(catalog.Lessons)),
		runner: runner,
	}
	for _, l := range catalog.Lessons {
		if l.ID == "" {
			return nil, fmt.Errorf("lesson %q has no id", l.Title)
		}
		if _, dup := s.byID[l.ID]; dup {
			return nil, fmt.Errorf("duplicate lesson id %q", l.ID)
		}

		g, err := buildLessonGrammar(l)
		if err != nil {
			return nil, fmt.Errorf("lesson %q: %w", l.ID, err)
		}
		l.grammar = g
		s.lessons = append(s.lessons, l)
		s.byID[l.ID] = -1
	}

	sort.SliceStable(s.lessons, func(i, j int) bool {
		return s.lessons[i].Level < s.lessons[j].Level
	})
	for i, l := range s.lessons {
		s.byID[l.ID] = i
	}

	logx.Info("Lessons loaded", "count", len(s.lessons))
	return s, nil
}

// buildLessonGrammar recognizes everything when a lesson lists no statements
func buildLessonGrammar(l Lesson) (*interpreter.Grammar, error) {
	if len(l.Statements) == 0 {
		return interpreter.FullGrammar(), nil
	}
	return interpreter.NewBuilder().
		WithNames(l.Statements...).
		LoopBodyNames(l.LoopBody...).
		Build()
}

// List returns every lesson ordered by level
func (s *LessonService) List() []Lesson {
	return slices.Clone(s.lessons)
}

// Get returns one lesson
func (s *LessonService) Get(id string) (*Lesson, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, errs.NewError(errs.CodeLessonNotFound)
	}
	l := s.lessons[i]
	return &l, nil
}

// Run executes code with the lesson's grammar. Passed is set only for
// lessons with an expected output.
func (s *LessonService) Run(id, code string) (*RunResult, error) {
	lesson, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	res := s.execute(code, lesson.grammar)
	if lesson.ExpectedOutput != nil {
		passed := !res.Failed && slices.Equal(res.Output, lesson.ExpectedOutput)
		res.Passed = &passed
	}
	return res, nil
}

// RunFree executes code with every statement kind enabled
func (s *LessonService) RunFree(code string) *RunResult {
	return s.execute(code, nil)
}

func (s *LessonService) execute(code string, g *interpreter.Grammar) *RunResult {
	res := s.runner.Run(code, g)
	if res.Failed {
		logx.Debug("Exercise failed", "reason", res.Err.Error())
	}
	return &RunResult{
		Output:    res.Output,
		Failed:    res.Failed,
		Variables: res.Vars(),
	}
}
