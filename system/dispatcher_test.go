// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/conjure/editor"
	"github.com/bureau-foundation/conjure/lib/testutil"
	"github.com/bureau-foundation/conjure/pool"
)

const receiveTimeout = 5 * time.Second

type sinkLine struct {
	tag     string
	text    string
	isError bool
}

// recordingSink captures everything written to it.
type recordingSink struct {
	mutex      sync.Mutex
	lines      []sinkLine
	evalInputs []string
	logViewErr error
	logViews   int
}

func (s *recordingSink) WriteLine(tag, text string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lines = append(s.lines, sinkLine{tag: tag, text: text})
}

func (s *recordingSink) WriteLines(tag string, lines []string) {
	for _, line := range lines {
		s.WriteLine(tag, line)
	}
}

func (s *recordingSink) WriteErrorLine(text string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lines = append(s.lines, sinkLine{text: text, isError: true})
}

func (s *recordingSink) DisplayOrCreateLogView() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.logViews++
	return s.logViewErr
}

func (s *recordingSink) WriteEvalInput(path, code string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.evalInputs = append(s.evalInputs, path+": "+code)
}

func (s *recordingSink) snapshot() []sinkLine {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.lines)
}

func (s *recordingSink) errorLines() []string {
	var result []string
	for _, line := range s.snapshot() {
		if line.isError {
			result = append(result, line.text)
		}
	}
	return result
}

func (s *recordingSink) infoLines() []string {
	var result []string
	for _, line := range s.snapshot() {
		if !line.isError {
			result = append(result, line.text)
		}
	}
	return result
}

func newDispatcher(t *testing.T) (*Dispatcher, *pool.Pool, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	registry := pool.New(pool.Options{DialTimeout: time.Second})
	t.Cleanup(registry.Close)
	return New(registry, sink, Options{}), registry, sink
}

func handle(t *testing.T, dispatcher *Dispatcher, event editor.Event) State {
	t.Helper()
	return dispatcher.Handle(context.Background(), editor.Result{Event: event})
}

func connectEvent(key, address, rule string) editor.Connect {
	return editor.Connect{Key: key, Address: address, Match: regexp.MustCompile(rule)}
}

func TestList_NoConnections(t *testing.T) {
	dispatcher, _, sink := newDispatcher(t)

	if state := handle(t, dispatcher, editor.List{}); state != Running {
		t.Fatalf("state = %v, want running", state)
	}

	lines := sink.snapshot()
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %+v", len(lines), lines)
	}
	if lines[0].tag != DefaultTag || lines[0].text != NoConnectionsLine || lines[0].isError {
		t.Errorf("line = %+v, want {%s %s}", lines[0], DefaultTag, NoConnectionsLine)
	}
}

func TestConnectEvalScenario(t *testing.T) {
	backend := testutil.NewBackend(t)
	dispatcher, _, sink := newDispatcher(t)

	handle(t, dispatcher, connectEvent("a", backend.Address, `.*\.clj$`))
	handle(t, dispatcher, editor.Eval{Code: "(+ 1 2)", Path: "foo.clj"})

	if line := testutil.RequireReceive(t, backend.Lines, receiveTimeout, "eval routed to a"); line != "(+ 1 2)" {
		t.Errorf("backend received %q", line)
	}
	if len(sink.evalInputs) != 1 || sink.evalInputs[0] != "foo.clj: (+ 1 2)" {
		t.Errorf("eval echo = %v", sink.evalInputs)
	}

	handle(t, dispatcher, editor.Eval{Code: "(+ 1 2)", Path: "foo.py"})
	errorLines := sink.errorLines()
	if len(errorLines) != 1 || !strings.HasPrefix(errorLines[0], "Eval error: ") {
		t.Fatalf("error lines = %v, want one Eval error", errorLines)
	}
	if !strings.Contains(errorLines[0], pool.ErrNoMatch.Error()) {
		t.Errorf("error line %q does not mention the missing match", errorLines[0])
	}
	if len(sink.evalInputs) != 1 {
		t.Errorf("failed eval was echoed: %v", sink.evalInputs)
	}

	want := fmt.Sprintf(";; [a] Connected to %s", backend.Address)
	if info := sink.infoLines(); !slices.Contains(info, want) {
		t.Errorf("info lines %v missing %q", info, want)
	}
}

func TestList_InsertionOrder(t *testing.T) {
	backend := testutil.NewBackend(t)
	dispatcher, _, sink := newDispatcher(t)

	handle(t, dispatcher, connectEvent("b", backend.Address, `\.clj$`))
	handle(t, dispatcher, connectEvent("a", backend.Address, `\.py$`))
	sink.lines = nil
	handle(t, dispatcher, editor.List{})

	want := []string{
		fmt.Sprintf(`;; [b] %s for files matching '\.clj$'`, backend.Address),
		fmt.Sprintf(`;; [a] %s for files matching '\.py$'`, backend.Address),
	}
	if got := sink.infoLines(); !slices.Equal(got, want) {
		t.Errorf("list lines = %v, want %v", got, want)
	}
}

func TestConnect_DuplicateKeyReportsWithKey(t *testing.T) {
	backend := testutil.NewBackend(t)
	dispatcher, registry, sink := newDispatcher(t)

	handle(t, dispatcher, connectEvent("a", backend.Address, `.*`))
	handle(t, dispatcher, connectEvent("a", backend.Address, `.*`))

	errorLines := sink.errorLines()
	if len(errorLines) != 1 || !strings.HasPrefix(errorLines[0], "[a] Connection error: ") {
		t.Fatalf("error lines = %v, want one connection error for a", errorLines)
	}
	if !registry.HasConnections() {
		t.Error("original connection lost")
	}
}

func TestConnect_UnreachableIsNotFatal(t *testing.T) {
	dispatcher, registry, sink := newDispatcher(t)

	state := handle(t, dispatcher, connectEvent("a", testutil.UnreachableAddress(t), `.*`))
	if state != Running {
		t.Fatalf("state = %v after failed connect", state)
	}
	if errorLines := sink.errorLines(); len(errorLines) != 1 || !strings.HasPrefix(errorLines[0], "[a] Connection error: ") {
		t.Errorf("error lines = %v", errorLines)
	}
	if registry.HasConnections() {
		t.Error("failed connect left an entry")
	}
}

func TestDisconnect(t *testing.T) {
	backend := testutil.NewBackend(t)
	dispatcher, registry, sink := newDispatcher(t)

	handle(t, dispatcher, connectEvent("a", backend.Address, `.*`))
	handle(t, dispatcher, editor.Disconnect{Key: "a"})
	handle(t, dispatcher, editor.Disconnect{Key: "a"})

	if info := sink.infoLines(); !slices.Contains(info, ";; [a] Disconnected") {
		t.Errorf("info lines %v missing disconnect", info)
	}
	errorLines := sink.errorLines()
	if len(errorLines) != 1 || !strings.HasPrefix(errorLines[0], "[a] Disconnection error: ") {
		t.Errorf("error lines = %v, want one disconnection error", errorLines)
	}
	if registry.HasConnections() {
		t.Error("entry survived disconnect")
	}
}

func TestDoc_NoMatch(t *testing.T) {
	dispatcher, _, sink := newDispatcher(t)
	handle(t, dispatcher, editor.Doc{Name: "map", Path: "core.clj"})

	if errorLines := sink.errorLines(); len(errorLines) != 1 || !strings.HasPrefix(errorLines[0], "Doc error: ") {
		t.Errorf("error lines = %v, want one Doc error", errorLines)
	}
}

func TestShowLog(t *testing.T) {
	dispatcher, _, sink := newDispatcher(t)
	handle(t, dispatcher, editor.ShowLog{})
	if sink.logViews != 1 || len(sink.errorLines()) != 0 {
		t.Fatalf("logViews = %d, errors = %v", sink.logViews, sink.errorLines())
	}

	sink.logViewErr = errors.New("no log file configured")
	if state := handle(t, dispatcher, editor.ShowLog{}); state != Running {
		t.Fatalf("state = %v after show-log failure", state)
	}
	want := "Failed to show the log window: no log file configured"
	if errorLines := sink.errorLines(); len(errorLines) != 1 || errorLines[0] != want {
		t.Errorf("error lines = %v, want [%s]", errorLines, want)
	}
}

func TestMalformedInputWritesOneLine(t *testing.T) {
	dispatcher, _, sink := newDispatcher(t)

	state := dispatcher.Handle(context.Background(), editor.Result{
		Err: &editor.ParseError{Command: "connect", Err: errors.New("key is required")},
	})
	if state != Running {
		t.Fatalf("state = %v after malformed input", state)
	}

	lines := sink.snapshot()
	if len(lines) != 1 || !lines[0].isError || lines[0].text != "Error parsing command: connect: key is required" {
		t.Errorf("lines = %+v", lines)
	}
}

func TestQuitTerminates(t *testing.T) {
	dispatcher, _, sink := newDispatcher(t)

	if state := handle(t, dispatcher, editor.Quit{}); state != Terminated {
		t.Fatalf("state = %v, want terminated", state)
	}
	if state := handle(t, dispatcher, editor.List{}); state != Terminated {
		t.Fatalf("state after event = %v, want terminated", state)
	}
	if lines := sink.snapshot(); len(lines) != 0 {
		t.Errorf("terminated dispatcher wrote %+v", lines)
	}
}

func TestCustomTag(t *testing.T) {
	sink := &recordingSink{}
	dispatcher := New(pool.New(pool.Options{}), sink, Options{Tag: "Nvim"})
	handle(t, dispatcher, editor.List{})
	if lines := sink.snapshot(); len(lines) != 1 || lines[0].tag != "Nvim" {
		t.Errorf("lines = %+v, want tag Nvim", lines)
	}
}

func TestRun_StopsOnQuitAndLeavesRest(t *testing.T) {
	dispatcher, _, sink := newDispatcher(t)
	queue := editor.NewQueue()
	queue.Push(editor.Result{Err: &editor.ParseError{Err: errors.New("bad json")}})
	queue.PushEvent(editor.List{})
	queue.PushEvent(editor.Quit{})
	queue.PushEvent(editor.List{})

	if err := dispatcher.Run(context.Background(), queue); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dispatcher.State() != Terminated {
		t.Errorf("state = %v", dispatcher.State())
	}
	if queue.Len() != 1 {
		t.Errorf("queue has %d items left, want 1", queue.Len())
	}
	if lines := sink.snapshot(); len(lines) != 2 {
		t.Errorf("got %d lines, want 2: %+v", len(lines), lines)
	}
}

func TestRun_InputExhaustionIsImplicitQuit(t *testing.T) {
	dispatcher, _, _ := newDispatcher(t)
	queue := editor.NewQueue()
	queue.PushEvent(editor.List{})
	queue.Close()

	done := make(chan error, 1)
	go func() { done <- dispatcher.Run(context.Background(), queue) }()

	if err := testutil.RequireReceive(t, done, receiveTimeout, "Run to return"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dispatcher.State() != Terminated {
		t.Errorf("state = %v", dispatcher.State())
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	dispatcher, _, _ := newDispatcher(t)
	queue := editor.NewQueue()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- dispatcher.Run(ctx, queue) }()
	cancel()

	if err := testutil.RequireReceive(t, done, receiveTimeout, "Run to return"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

func TestBackendHandlers(t *testing.T) {
	backend := testutil.NewBackend(t)
	sink := &recordingSink{}
	output, closed := BackendHandlers(sink)
	registry := pool.New(pool.Options{Output: output, Closed: closed})
	defer registry.Close()

	if err := registry.Connect(context.Background(), "a", backend.Address, regexp.MustCompile(".*")); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	testutil.RequireReceive(t, backend.Accepted, receiveTimeout, "accept")
	backend.Reply(t, "=> 3")
	backend.DropConnections()

	deadline := time.Now().Add(receiveTimeout)
	for time.Now().Before(deadline) {
		if len(sink.errorLines()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	lines := sink.snapshot()
	if len(lines) != 2 {
		t.Fatalf("lines = %+v, want output then close", lines)
	}
	if lines[0] != (sinkLine{tag: "a", text: "=> 3"}) {
		t.Errorf("output line = %+v", lines[0])
	}
	if lines[1].text != "[a] Connection closed by backend" {
		t.Errorf("close line = %q", lines[1].text)
	}
}
