// Package harness is a tiny sequential test runner that ships inside the
// binary so a deployed skelly can validate itself without the go tool.
//
// Cases run one at a time in registration order. The first failing
// assertion in a case stops that case only; the run continues with the next
// one. *T also satisfies testify's require.TestingT, so cases may use the
// require and assert packages.
package harness

import (
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"
)

// Outcome is the state of a single case.
type Outcome int

const (
	Pending Outcome = iota
	Running
	Passed
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Passed:
		return "PASS"
	case Failed:
		return "FAIL"
	}
	return "unknown"
}

// Failure describes the assertion that stopped a case.
type Failure struct {
	Cond   string // condition text
	File   string
	Line   int
	Detail string // full message from testify, if any
}

func (f Failure) String() string {
	if f.File == "" {
		return f.Cond
	}
	return fmt.Sprintf("%s [%s:%d]", f.Cond, f.File, f.Line)
}

// Result is the record of one case.
type Result struct {
	Name    string
	Outcome Outcome
	Failure *Failure
}

// Summary holds the run counters. Passed + Failed == Run after every case.
type Summary struct {
	Run    int
	Passed int
	Failed int
}

// OK returns true if no case failed.
func (s Summary) OK() bool {
	return s.Failed == 0
}

func (s Summary) String() string {
	return fmt.Sprintf("TOTAL: %d  |  PASSED: %d  |  FAILED: %d", s.Run, s.Passed, s.Failed)
}

// Runner runs cases and keeps the counters.
type Runner struct {
	w       io.Writer
	summary Summary
	results []Result
}

// New returns a Runner that writes progress lines to w.
// A nil w discards them.
func New(w io.Writer) *Runner {
	if w == nil {
		w = io.Discard
	}
	return &Runner{w: w}
}

// Run registers the case name and runs body to completion or to its first
// failing assertion. A panic in body other than an assertion failure is
// recorded as a failure of this case.
func (r *Runner) Run(name string, body func(t *T)) Result {
	r.summary.Run++
	fmt.Fprintf(r.w, "  %-50s ", name)

	t := &T{name: name, outcome: Pending}
	t.run(body)

	res := Result{Name: name, Outcome: t.outcome, Failure: t.failure}
	if t.outcome == Failed {
		r.summary.Failed++
		fmt.Fprintf(r.w, "FAIL\n    ASSERT FAILED: %s\n", t.failure)
	} else {
		r.summary.Passed++
		fmt.Fprintln(r.w, "PASS")
	}

	r.results = append(r.results, res)
	return res
}

// Summary returns the counters so far.
func (r *Runner) Summary() Summary {
	return r.summary
}

// Results returns the case records in registration order.
func (r *Runner) Results() []Result {
	out := make([]Result, len(r.results))
	copy(out, r.results)
	return out
}

// Report prints the summary line and returns the counters.
func (r *Runner) Report() Summary {
	fmt.Fprintf(r.w, "\n  %s\n\n", r.summary)
	return r.summary
}

// abort is the panic value that stops a case at its first failure.
type abort struct{}

// T is handed to each case body.
type T struct {
	name    string
	outcome Outcome
	failure *Failure
}

// run moves the case from Pending through Running to Passed or Failed.
func (t *T) run(body func(t *T)) {
	t.outcome = Running
	defer func() {
		if v := recover(); v != nil {
			if _, ok := v.(abort); !ok && t.failure == nil {
				t.failure = &Failure{Cond: fmt.Sprintf("panic: %v", v)}
			}
		}
		if t.failure != nil {
			t.outcome = Failed
		} else {
			t.outcome = Passed
		}
	}()
	body(t)
}

// Outcome returns Running while the body executes.
func (t *T) Outcome() Outcome {
	return t.outcome
}

// Name returns the name the case was registered with.
func (t *T) Name() string {
	return t.name
}

// Failed returns true once an assertion has failed.
func (t *T) Failed() bool {
	return t.failure != nil
}

// Assert fails the case if cond is false. text describes the condition.
func (t *T) Assert(cond bool, text string) {
	if !cond {
		t.fail(text, "")
	}
}

// StrEqual fails the case if got != want.
func (t *T) StrEqual(got, want string) {
	if got != want {
		t.fail(fmt.Sprintf("%q == %q", got, want), "")
	}
}

// NoError fails the case if err is not nil.
func (t *T) NoError(err error) {
	if err != nil {
		t.fail(fmt.Sprintf("unexpected error: %v", err), "")
	}
}

// Equal fails the case if got != want.
func Equal[V comparable](t *T, got, want V) {
	if got != want {
		t.fail(fmt.Sprintf("%v == %v", got, want), "")
	}
}

// Errorf records a failure reported by testify and stops the case.
func (t *T) Errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.fail(condFromTestify(msg), msg)
}

// FailNow stops the case, marking it failed.
func (t *T) FailNow() {
	t.fail("FailNow", "")
}

// Helper is a no-op; failure locations already skip helper frames.
func (t *T) Helper() {}

// fail records the first failure and unwinds the case body.
func (t *T) fail(cond, detail string) {
	if t.failure == nil {
		file, line := caller()
		t.failure = &Failure{Cond: cond, File: file, Line: line, Detail: detail}
	}
	panic(abort{})
}

var skipPrefixes = []string{
	reflect.TypeOf(T{}).PkgPath() + ".",
	"github.com/stretchr/testify/",
	"runtime.",
}

// caller returns the first frame outside this package and testify.
func caller() (string, int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if !skipFrame(f.Function) {
			return f.File, f.Line
		}
		if !more {
			return "", 0
		}
	}
}

func skipFrame(fn string) bool {
	for _, p := range skipPrefixes {
		if strings.HasPrefix(fn, p) {
			return true
		}
	}
	return false
}

// condFromTestify pulls the "Error:" entry, including its continuation
// lines, out of a testify failure message.
func condFromTestify(msg string) string {
	var parts []string
	inError := false
	for _, raw := range strings.Split(msg, "\n") {
		line := strings.TrimSpace(raw)
		if inError {
			if !strings.HasPrefix(raw, "\t ") && !strings.HasPrefix(raw, "\t\t") {
				break
			}
			if line != "" {
				parts = append(parts, line)
			}
			continue
		}
		if after, ok := strings.CutPrefix(line, "Error:"); ok {
			inError = true
			if after = strings.TrimSpace(after); after != "" {
				parts = append(parts, after)
			}
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(msg)
	}
	return strings.Join(parts, " ")
}
