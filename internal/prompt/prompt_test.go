package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/contract-generator/internal/config"
)

type fakeSelector struct {
	index int
	err   error
	got   SelectConfig
}

func (f *fakeSelector) Select(_ context.Context, cfg SelectConfig) (int, error) {
	f.got = cfg
	return f.index, f.err
}

func TestChooseTemplate(t *testing.T) {
	templates := config.Default().Templates
	sel := &fakeSelector{index: 2}

	tmpl, err := ChooseTemplate(context.Background(), sel, templates)
	require.NoError(t, err)
	assert.Equal(t, "allowance-payment", tmpl.Key)
	assert.Equal(t, "일반 대행 용역 계약서 [general-service]", sel.got.Options[0])
	assert.Len(t, sel.got.Options, len(templates))
}

func TestChooseTemplateErrors(t *testing.T) {
	templates := config.Default().Templates

	_, err := ChooseTemplate(context.Background(), &fakeSelector{err: ErrAborted}, templates)
	assert.ErrorIs(t, err, ErrAborted)

	_, err = ChooseTemplate(context.Background(), &fakeSelector{index: -1}, templates)
	assert.ErrorIs(t, err, config.ErrUnknownTemplate)

	_, err = ChooseTemplate(context.Background(), &fakeSelector{}, nil)
	assert.ErrorIs(t, err, config.ErrUnknownTemplate)
}

func TestSurveySelectHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Survey{}.Select(ctx, SelectConfig{Options: []string{"a"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranslateSurveyErr(t *testing.T) {
	assert.ErrorIs(t, translateSurveyErr(fmt.Errorf("wrapped: %w", terminal.InterruptErr)), ErrAborted)

	other := errors.New("eof")
	assert.Equal(t, other, translateSurveyErr(other))
}

func TestIsInteractiveOnRegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsInteractive(f))
}
