package services

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Prompts là bộ prompt đã parse, mỗi khoá một template
type Prompts struct {
	Text       string `yaml:"text"`
	Script     string `yaml:"script"`
	Slides     string `yaml:"slides"`
	Refine     string `yaml:"refine"`
	Video      string `yaml:"video"`
	Outline    string `yaml:"outline"`
	ChatSystem string `yaml:"chat_system"`
	Clean      string `yaml:"clean"`

	compiled map[string]*template.Template
}

// PromptInput là dữ liệu truyền vào template
type PromptInput struct {
	Topic   string
	Context string
	Role    string
	Text    string
}

var promptFuncs = template.FuncMap{
	"truncate": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n])
	},
}

// LoadPrompts đọc file YAML; path rỗng thì dùng bộ prompt nhúng sẵn
func LoadPrompts(path string) (*Prompts, error) {
	data := defaultPrompts
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompts file: %w", err)
		}
		data = b
	}
	return ParsePrompts(data)
}

func ParsePrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	p.compiled = make(map[string]*template.Template)
	for name, src := range map[string]string{
		"text":        p.Text,
		"script":      p.Script,
		"slides":      p.Slides,
		"refine":      p.Refine,
		"video":       p.Video,
		"outline":     p.Outline,
		"chat_system": p.ChatSystem,
		"clean":       p.Clean,
	} {
		if strings.TrimSpace(src) == "" {
			return nil, fmt.Errorf("prompt %q is empty", name)
		}
		tpl, err := template.New(name).Funcs(promptFuncs).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("prompt %q: %w", name, err)
		}
		p.compiled[name] = tpl
	}
	return &p, nil
}

func (p *Prompts) Render(name string, in PromptInput) (string, error) {
	tpl, ok := p.compiled[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var b strings.Builder
	if err := tpl.Execute(&b, in); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}
