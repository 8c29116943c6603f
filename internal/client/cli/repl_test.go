package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type fakeExec struct {
	dirty bool
	fail  bool
	calls []string
	args  [][]string
}

func (f *fakeExec) rec(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	if f.fail {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeExec) Load(_ context.Context, a []string) error    { return f.rec("load", a) }
func (f *fakeExec) New(_ context.Context, a []string) error     { return f.rec("new", a) }
func (f *fakeExec) List(_ context.Context, a []string) error    { return f.rec("list", a) }
func (f *fakeExec) Add(_ context.Context, a []string) error     { return f.rec("add", a) }
func (f *fakeExec) Select(_ context.Context, a []string) error  { return f.rec("select", a) }
func (f *fakeExec) Down(_ context.Context, a []string) error    { return f.rec("down", a) }
func (f *fakeExec) Move(_ context.Context, a []string) error    { return f.rec("move", a) }
func (f *fakeExec) Up(_ context.Context, a []string) error      { return f.rec("up", a) }
func (f *fakeExec) Drag(_ context.Context, a []string) error    { return f.rec("drag", a) }
func (f *fakeExec) Resize(_ context.Context, a []string) error  { return f.rec("resize", a) }
func (f *fakeExec) Grid(_ context.Context, a []string) error    { return f.rec("grid", a) }
func (f *fakeExec) Zoom(_ context.Context, a []string) error    { return f.rec("zoom", a) }
func (f *fakeExec) Set(_ context.Context, a []string) error     { return f.rec("set", a) }
func (f *fakeExec) Toggle(_ context.Context, a []string) error  { return f.rec("toggle", a) }
func (f *fakeExec) Align(_ context.Context, a []string) error   { return f.rec("align", a) }
func (f *fakeExec) Delete(_ context.Context, a []string) error  { return f.rec("delete", a) }
func (f *fakeExec) Save(_ context.Context, a []string) error    { return f.rec("save", a) }
func (f *fakeExec) Export(_ context.Context, a []string) error  { return f.rec("export", a) }
func (f *fakeExec) Preview(_ context.Context, a []string) error { return f.rec("preview", a) }
func (f *fakeExec) Status(_ context.Context, a []string) error  { return f.rec("status", a) }

func (f *fakeExec) Quit(_ context.Context, force bool) error {
	f.calls = append(f.calls, "quit")
	if f.dirty && !force {
		return errUnsavedState
	}
	return nil
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	origPrint := printlnFn
	var out []string
	printlnFn = func(a ...any) (int, error) {
		out = append(out, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &out
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	captureOutput(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"load t1",
		"",
		"# comment",
		"add",
		"drag z1 10 20",
		"resize z1 se 5 5",
		"down 1 2",
		"move 3 4",
		"up",
		"set z1 name Recipient block",
		"l",
		"save",
		"exit",
		"list",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, nil, bufio.NewScanner(input))

	want := []string{"load", "add", "drag", "resize", "down", "move", "up", "set", "list", "save", "quit"}
	if strings.Join(exec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls: got %v, want %v", exec.calls, want)
	}
	if got := exec.args[7]; len(got) != 4 || got[3] != "block" {
		t.Fatalf("set args not passed through: %v", got)
	}
}

func TestRunREPL_QuitNeedsSaveOrForce(t *testing.T) {
	out := captureOutput(t)

	input := strings.NewReader("quit\nfoobar\nquit!\nstatus\n")
	exec := &fakeExec{dirty: true}
	runREPL(context.Background(), exec, func() string { return "(t1*)" }, bufio.NewScanner(input))

	if strings.Join(exec.calls, ",") != "quit,quit" {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
	joined := strings.Join(*out, "\n")
	for _, s := range []string{"ld (t1*)>", "error: unsaved changes", "Unknown command: foobar", "Bye!"} {
		if !strings.Contains(joined, s) {
			t.Fatalf("output %q misses %q", joined, s)
		}
	}
}

func TestRunREPL_ReportsErrorsAndContinues(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{fail: true}
	runREPL(context.Background(), exec, nil, bufio.NewScanner(strings.NewReader("save\nload t1\n")))

	if len(exec.calls) != 2 {
		t.Fatalf("loop stopped early: %v", exec.calls)
	}
	if strings.Count(strings.Join(*out, "\n"), "error: boom") != 2 {
		t.Fatalf("errors not reported: %v", *out)
	}
}
