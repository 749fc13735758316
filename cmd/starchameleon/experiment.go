/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zswitten/starchameleon/chameleon"
)

var defaultModels = []string{
	"claude-3-haiku-20240307",
	"claude-3-sonnet-20240229",
	"claude-3-5-haiku-20241022",
	"claude-3-opus-20240229",
	"claude-3-5-sonnet-20240620",
	"claude-3-5-sonnet-20241022",
}

// experiment is the optional YAML file overriding the built-in models,
// prompts and generation parameters.
type experiment struct {
	Models  []string           `yaml:"models"`
	Prompts []chameleon.Prompt `yaml:"prompts"`
	Params  *chameleon.Params  `yaml:"params"`
	// AppendNoPreamble adds the no-preamble instruction to custom prompts.
	AppendNoPreamble bool `yaml:"append_no_preamble"`
}

func defaultExperiment() experiment {
	params := chameleon.DefaultParams()
	return experiment{
		Models:  append([]string(nil), defaultModels...),
		Prompts: chameleon.DefaultPrompts(),
		Params:  &params,
	}
}

// loadExperiment reads path over the defaults. An empty path returns the
// defaults unchanged.
func loadExperiment(path string) (experiment, error) {
	exp := defaultExperiment()
	if path == "" {
		return exp, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return exp, fmt.Errorf("reading experiment: %w", err)
	}
	var file experiment
	if err := yaml.Unmarshal(b, &file); err != nil {
		return exp, fmt.Errorf("parsing experiment %s: %w", path, err)
	}
	if len(file.Models) > 0 {
		exp.Models = file.Models
	}
	if len(file.Prompts) > 0 {
		exp.Prompts = file.Prompts
		if file.AppendNoPreamble {
			for i := range exp.Prompts {
				exp.Prompts[i].Text += chameleon.NoPreamble
			}
		}
	}
	if file.Params != nil {
		exp.Params = file.Params
	}
	return exp, nil
}
