// Package project reads assembly requests from YAML or JSON descriptors.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forPelevin/reelforge/internal/types"
)

// Load reads a project descriptor. Files ending in .json are decoded as JSON,
// everything else as YAML. Relative media paths are resolved against the
// descriptor's directory.
func Load(path string) (types.Project, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Project{}, fmt.Errorf("read project: %w", err)
	}
	p, err := Decode(b, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return types.Project{}, fmt.Errorf("parse project %s: %w", path, err)
	}
	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return types.Project{}, err
	}
	if err := Validate(p); err != nil {
		return types.Project{}, fmt.Errorf("project %s: %w", path, err)
	}
	return Resolve(p, base), nil
}

// Decode parses a descriptor body. Unknown fields are rejected.
func Decode(b []byte, asJSON bool) (types.Project, error) {
	var p types.Project
	if asJSON {
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return types.Project{}, err
		}
		return p, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return types.Project{}, err
	}
	return p, nil
}

// Resolve rewrites relative clip, audio, caption and output paths against base.
func Resolve(p types.Project, base string) types.Project {
	abs := func(s string) string {
		if s == "" || filepath.IsAbs(s) {
			return s
		}
		return filepath.Join(base, s)
	}
	clips := make([]string, len(p.Clips))
	for i, c := range p.Clips {
		clips[i] = abs(c)
	}
	p.Clips = clips
	stages := make([]types.Stage, len(p.Stages))
	for i, st := range p.Stages {
		st.ClipPath = abs(st.ClipPath)
		stages[i] = st
	}
	p.Stages = stages
	p.AudioPath = abs(p.AudioPath)
	p.CaptionPath = abs(p.CaptionPath)
	p.OutputPath = abs(p.OutputPath)
	return p
}

// Validate reports descriptors that cannot produce any footage.
func Validate(p types.Project) error {
	if p.NarrationSeconds < 0 {
		return fmt.Errorf("narration_seconds must be >= 0")
	}
	if len(p.Clips) > 0 {
		return nil
	}
	for _, st := range p.Stages {
		if st.HasClip() {
			return nil
		}
	}
	return fmt.Errorf("project lists no clips: %w", types.ErrNoInputMedia)
}
