package main

import (
	"fmt"
	"os"

	"codeduel/internal/model"

	"gopkg.in/yaml.v3"
)

type challenge struct {
	Prompt         string `yaml:"prompt"`
	ExpectedOutput string `yaml:"expected_output"`
	TimeLimit      int    `yaml:"time_limit"` // minutes, optional
}

type catalog struct {
	Challenges []challenge `yaml:"challenges"`
}

func defaultChallenge() challenge {
	return challenge{
		Prompt:         model.DefaultChallenge,
		ExpectedOutput: model.DefaultExpectedOutput,
	}
}

func loadChallenges(path string) (*catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read challenges: %w", err)
	}
	return parseChallenges(data)
}

func parseChallenges(data []byte) (*catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse challenges: %w", err)
	}
	for i, ch := range c.Challenges {
		if ch.Prompt == "" || ch.ExpectedOutput == "" {
			return nil, fmt.Errorf("challenge %d: prompt and expected_output are required", i)
		}
	}
	return &c, nil
}

func (c *catalog) pick(i int) (challenge, error) {
	if i < 0 || i >= len(c.Challenges) {
		return challenge{}, fmt.Errorf("challenge index %d out of range (have %d)", i, len(c.Challenges))
	}
	return c.Challenges[i], nil
}
