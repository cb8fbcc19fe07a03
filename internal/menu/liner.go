package menu

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/peterh/liner"
)

// LinePrompter reads from the terminal with line editing and history.
type LinePrompter struct {
	state       *liner.State
	historyPath string
}

// NewLinePrompter takes over the terminal. historyPath may be empty, in
// which case history is kept for the session only. Close restores the
// terminal.
func NewLinePrompter(historyPath string) *LinePrompter {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = state.ReadHistory(f)
			f.Close()
		}
	}
	return &LinePrompter{state: state, historyPath: historyPath}
}

// Prompt implements Prompter. Ctrl-C and EOF map to ErrAborted.
func (p *LinePrompter) Prompt(prompt string) (string, error) {
	line, err := p.state.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		p.state.AppendHistory(line)
	}
	return line, nil
}

// Close saves the history and restores the terminal.
func (p *LinePrompter) Close() error {
	var saveErr error
	if p.historyPath != "" {
		saveErr = saveHistory(p.historyPath, p.state.WriteHistory)
	}
	if err := p.state.Close(); err != nil {
		return err
	}
	return saveErr
}

// saveHistory replaces the history file atomically.
func saveHistory(path string, dump func(io.Writer) (int, error)) error {
	var buf bytes.Buffer
	if _, err := dump(&buf); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(path, &buf)
}
