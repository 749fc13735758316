/*
Copyright 2026 The Star Chameleon Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder builds prompts from templates with {{name}}
// placeholders. Bound values are either escaped text or marshaled XML, so
// they cannot forge the markup the template relies on.
package promptbuilder

import (
	"encoding/xml"
	"fmt"
	"maps"
	"strings"
)

// stringLiteral only accepts untyped string constants from callers.
type stringLiteral string

type binding interface {
	value() (string, error)
}

type unbound string

func (u unbound) value() (string, error) {
	return "", fmt.Errorf("unbound placeholder: %s", string(u))
}

// textEscaper escapes markup but keeps whitespace readable.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

type escapedText string

func (e escapedText) value() (string, error) { return textEscaper.Replace(string(e)), nil }

type xmlValue struct{ data any }

func (x xmlValue) value() (string, error) {
	b, err := xml.MarshalIndent(x.data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal XML: %w", err)
	}
	return string(b), nil
}

// Prompt is an immutable template plus its bindings. Bind methods return a
// new Prompt, so a package-level template can be shared by goroutines.
type Prompt struct {
	template string
	bindings map[string]binding
}

// NewPrompt parses the placeholders of template.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	bindings := make(map[string]binding)
	if _, err := walkTemplate(string(template), func(name string) (string, error) {
		bindings[name] = unbound(name)
		return "", nil
	}); err != nil {
		return nil, err
	}
	return &Prompt{template: string(template), bindings: bindings}, nil
}

// MustNewPrompt is NewPrompt for package-level templates; it panics on error.
func MustNewPrompt(template stringLiteral) *Prompt {
	p, err := NewPrompt(template)
	if err != nil {
		panic(err)
	}
	return p
}

// Placeholders returns the set of placeholder names in the template.
func (p *Prompt) Placeholders() map[string]struct{} {
	names := make(map[string]struct{}, len(p.bindings))
	for name := range p.bindings {
		names[name] = struct{}{}
	}
	return names
}

func (p *Prompt) bind(name string, b binding) (*Prompt, error) {
	current, ok := p.bindings[name]
	if !ok {
		return nil, fmt.Errorf("binding %q not found in template", name)
	}
	if _, isUnbound := current.(unbound); !isUnbound {
		return nil, fmt.Errorf("binding %q already bound", name)
	}
	next := &Prompt{template: p.template, bindings: maps.Clone(p.bindings)}
	next.bindings[name] = b
	return next, nil
}

// BindText binds untrusted text, XML-escaped.
func (p *Prompt) BindText(name, value string) (*Prompt, error) {
	return p.bind(name, escapedText(value))
}

// BindXML binds data marshaled with encoding/xml.
func (p *Prompt) BindXML(name string, data any) (*Prompt, error) {
	return p.bind(name, xmlValue{data: data})
}

// Build renders the prompt. Every placeholder must be bound.
func (p *Prompt) Build() (string, error) {
	values := make(map[string]string, len(p.bindings))
	for name, b := range p.bindings {
		v, err := b.value()
		if err != nil {
			return "", err
		}
		values[name] = v
	}
	return walkTemplate(p.template, func(name string) (string, error) {
		return values[name], nil
	})
}
