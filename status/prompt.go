package status

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/unitrun/unitrun/options"
)

// PromptKind distinguishes the two prompt points of a test case.
type PromptKind int

const (
	// PromptBefore is asked before a case runs; valid responses are
	// {c,s,a,q}: continue, skip, abort, quit.
	PromptBefore PromptKind = iota
	// PromptAfter is asked after a case runs; valid responses are
	// {p,f,a,q}: pass, fail, abort, quit.
	PromptAfter
)

// Prompter answers the before/after prompts of a test case. Automated and
// batch runs use a canned implementation so they never touch a terminal.
type Prompter interface {
	Ask(kind PromptKind, message string) (byte, error)
}

// AutoPrompter answers prompts with pre-configured response characters.
type AutoPrompter struct {
	Before byte
	After  byte
}

// Ask returns the configured response for the prompt kind. A zero response
// falls back to "continue"/"pass".
func (p AutoPrompter) Ask(kind PromptKind, _ string) (byte, error) {
	if kind == PromptBefore {
		if p.Before == 0 {
			return options.ResponseContinue, nil
		}
		return p.Before, nil
	}
	if p.After == 0 {
		return options.ResponsePass, nil
	}
	return p.After, nil
}

// ConsolePrompter blocks on console input for each prompt.
type ConsolePrompter struct {
	In   io.Reader
	Out  io.Writer
	Beep bool
}

// Ask writes the prompt message and reads a single response character.
func (p ConsolePrompter) Ask(kind PromptKind, message string) (byte, error) {
	choices := "[c]ontinue, [s]kip, [a]bort, [q]uit"
	if kind == PromptAfter {
		choices = "[p]ass, [f]ail, [a]bort, [q]uit"
	}
	if p.Beep {
		fmt.Fprint(p.Out, "\a")
	}
	if _, err := fmt.Fprintf(p.Out, "%s (%s): ", message, choices); err != nil {
		return 0, err
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && line == "" {
		return 0, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, nil
	}
	return strings.ToLower(line)[0], nil
}

// ForOptions picks the prompter a run should use: the automated prompter
// when response characters are configured or the run is batched, the console
// prompter for interactive or paused runs, and none otherwise.
func ForOptions(o *options.Options, in io.Reader, out io.Writer) Prompter {
	if o.ResponseBefore() != 0 || o.ResponseAfter() != 0 || o.BatchMode {
		return AutoPrompter{Before: o.ResponseBefore(), After: o.ResponseAfter()}
	}
	if o.Interactive || o.CasePause {
		return ConsolePrompter{In: in, Out: out, Beep: o.Beep}
	}
	return nil
}

// AskBefore runs the "before" prompt, if any, and applies the response to
// the disposition: skip maps to did-not-test, abort to aborted, quit to
// quitted, and continue leaves the state untouched.
func (s *Status) AskBefore(message string) error {
	if s.prompter == nil {
		return nil
	}
	c, err := s.prompter.Ask(PromptBefore, message)
	if err != nil {
		return fmt.Errorf("before-prompt failed: %w", err)
	}
	switch c {
	case options.ResponseSkip:
		s.disposition = DispositionDidNotTest
	case options.ResponseAbort:
		s.disposition = DispositionAborted
	case options.ResponseQuit:
		s.disposition = DispositionQuitted
	case 0, options.ResponseContinue:
		// no transition
	default:
		s.log.Warn("ignoring unsupported before-response", "response", string(c))
	}
	return nil
}

// AskAfter runs the "after" prompt, if any, and applies the response: pass
// and fail set the test result and keep the continue disposition, abort
// forces a failing aborted case, quit ends the case without penalty.
func (s *Status) AskAfter(message string) error {
	if s.prompter == nil {
		return nil
	}
	c, err := s.prompter.Ask(PromptAfter, message)
	if err != nil {
		return fmt.Errorf("after-prompt failed: %w", err)
	}
	switch c {
	case options.ResponsePass:
		s.testResult = true
		s.disposition = DispositionContinue
	case options.ResponseFail:
		s.testResult = false
		s.disposition = DispositionContinue
	case options.ResponseAbort:
		s.testResult = false
		s.disposition = DispositionAborted
	case options.ResponseQuit:
		s.testResult = true
		s.disposition = DispositionQuitted
	case 0:
		// no transition
	default:
		s.log.Warn("ignoring unsupported after-response", "response", string(c))
	}
	return nil
}
