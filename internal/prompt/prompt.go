// Package prompt asks the user which template to use when none was given on
// the command line.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"

	"github.com/ginjaninja78/contract-generator/internal/config"
)

// ErrAborted is returned when the user cancels a prompt (Ctrl+C).
var ErrAborted = errors.New("prompt aborted")

// ErrNotInteractive is returned when prompting is impossible because stdin is
// not a terminal.
var ErrNotInteractive = errors.New("not running in an interactive terminal")

// SelectConfig configures a single-choice prompt.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Help         string
	PageSize     int
}

// Selector presents a list and returns the chosen index.
type Selector interface {
	Select(ctx context.Context, cfg SelectConfig) (int, error)
}

// Survey is a Selector backed by the terminal.
type Survey struct{}

// Select implements Selector.
func (Survey) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var out string
	p := &survey.Select{
		Message: cfg.Message,
		Options: cfg.Options,
		Help:    cfg.Help,
	}
	if cfg.PageSize > 0 {
		p.PageSize = cfg.PageSize
	}
	if cfg.DefaultIndex >= 0 && cfg.DefaultIndex < len(cfg.Options) {
		p.Default = cfg.Options[cfg.DefaultIndex]
	}

	if err := survey.AskOne(p, &out); err != nil {
		return 0, translateSurveyErr(err)
	}
	return indexOf(cfg.Options, out), nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func indexOf(options []string, value string) int {
	for i, option := range options {
		if option == value {
			return i
		}
	}
	return -1
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// ChooseTemplate shows the template menu and returns the selection.
// Entries are listed by display name with the key in brackets.
func ChooseTemplate(ctx context.Context, sel Selector, templates []config.TemplateConfig) (*config.TemplateConfig, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: no templates configured", config.ErrUnknownTemplate)
	}

	options := make([]string, len(templates))
	for i, t := range templates {
		options[i] = fmt.Sprintf("%s [%s]", t.Name, t.Key)
	}

	idx, err := sel.Select(ctx, SelectConfig{
		Message:  "사용할 템플릿을 선택하세요:",
		Options:  options,
		Help:     "Use the arrow keys and Enter. Pass --template to skip this prompt.",
		PageSize: 10,
	})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(templates) {
		return nil, fmt.Errorf("%w: invalid selection", config.ErrUnknownTemplate)
	}
	return &templates[idx], nil
}
