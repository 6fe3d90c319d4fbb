package evaluation

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fixture is a question together with graded sample answers, used by evalctl
// and regression checks. JSON fixtures are read through the YAML decoder.
type Fixture struct {
	Name     string          `yaml:"name"`
	Question FixtureQuestion `yaml:"question"`
	Cases    []FixtureCase   `yaml:"cases"`
}

// FixtureQuestion mirrors Question with serialisation tags.
type FixtureQuestion struct {
	Text                string   `yaml:"text"`
	Kind                string   `yaml:"kind"`
	Options             []string `yaml:"options"`
	CorrectIndex        *int     `yaml:"correctIndex"`
	FallbackCorrectText string   `yaml:"fallbackCorrectText"`
	AnswerFormat        string   `yaml:"answerFormat"`
	ExpectedAnswers     []string `yaml:"expectedAnswers"`
	Explanation         string   `yaml:"explanation"`
	Context             string   `yaml:"context"`
}

// FixtureCase is one answer and its expected verdict.
type FixtureCase struct {
	Answer  yaml.Node `yaml:"answer"`
	Correct bool      `yaml:"correct"`
}

// Question converts the fixture question.
func (f FixtureQuestion) Question() Question {
	return Question{
		Text:                f.Text,
		Kind:                Kind(strings.ToLower(strings.TrimSpace(f.Kind))),
		Options:             f.Options,
		CorrectIndex:        f.CorrectIndex,
		FallbackCorrectText: f.FallbackCorrectText,
		AnswerFormat:        AnswerFormat(strings.ToLower(strings.TrimSpace(f.AnswerFormat))),
		ExpectedAnswers:     f.ExpectedAnswers,
		Explanation:         f.Explanation,
		Context:             f.Context,
	}
}

// ParseAnswerNode converts a scalar YAML node into an Answer. Unquoted integers
// select an option; every other scalar is text.
func ParseAnswerNode(node yaml.Node) (Answer, error) {
	if node.Kind != yaml.ScalarNode {
		return Answer{}, fmt.Errorf("answer must be an integer or a string")
	}
	if node.ShortTag() == "!!int" {
		var index int
		if err := node.Decode(&index); err != nil {
			return Answer{}, fmt.Errorf("decode answer index: %w", err)
		}
		return IndexAnswer(index), nil
	}
	return TextAnswer(node.Value), nil
}

// LoadFixture reads and decodes a fixture file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	fixture, err := ParseFixture(data)
	if err != nil {
		return Fixture{}, fmt.Errorf("%s: %w", path, err)
	}
	if fixture.Name == "" {
		fixture.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return fixture, nil
}

// ParseFixture decodes a single YAML or JSON fixture document.
func ParseFixture(data []byte) (Fixture, error) {
	var fixture Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fixture); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return Fixture{}, fmt.Errorf("parse fixture: multiple documents are not supported")
		}
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	return fixture, nil
}

// LoadFixtureDir loads every .yaml, .yml and .json fixture in dir, sorted by file name.
func LoadFixtureDir(dir string) ([]Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read fixture dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml", ".json":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	fixtures := make([]Fixture, 0, len(names))
	for _, name := range names {
		fixture, err := LoadFixture(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, fixture)
	}
	return fixtures, nil
}
