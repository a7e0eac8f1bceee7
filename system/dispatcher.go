// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/conjure/editor"
)

// DefaultTag labels the dispatcher's own informational lines when
// Options.Tag is empty.
const DefaultTag = "Conjure"

// NoConnectionsLine is written for a List event when nothing is
// connected.
const NoConnectionsLine = ";; No connections"

// State is the dispatcher's lifecycle state.
type State int

const (
	// Running accepts events.
	Running State = iota
	// Terminated ignores further events. There is no way back.
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a Dispatcher.
type Options struct {
	// Tag labels informational lines. Empty means DefaultTag.
	Tag string

	// Logger receives structured log output. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Dispatcher applies editor events to a Registry and reports outcomes
// to a Sink.
type Dispatcher struct {
	registry Registry
	sink     Sink
	tag      string
	logger   *slog.Logger
	state    State
}

// New returns a Running dispatcher.
func New(registry Registry, sink Sink, options Options) *Dispatcher {
	tag := options.Tag
	if tag == "" {
		tag = DefaultTag
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		sink:     sink,
		tag:      tag,
		logger:   logger,
		state:    Running,
	}
}

// State returns the current state.
func (d *Dispatcher) State() State {
	return d.state
}

// Run handles results from queue until a Quit event, the queue closing
// and draining, or ctx being cancelled. It returns ctx.Err() when
// cancellation ended the loop and nil otherwise.
func (d *Dispatcher) Run(ctx context.Context, queue *editor.Queue) error {
	d.logger.Info("starting event loop", "tag", d.tag)

	for d.state == Running {
		result, ok := queue.Receive(ctx)
		if !ok {
			// End of input is an implicit quit.
			d.state = Terminated
			if err := ctx.Err(); err != nil {
				d.logger.Info("event loop cancelled", "error", err)
				return err
			}
			d.logger.Info("event source ended")
			break
		}
		d.Handle(ctx, result)
	}

	d.logger.Info("event loop stopped")
	return nil
}

// Handle applies one result and returns the resulting state. Once
// Terminated, Handle ignores its input.
func (d *Dispatcher) Handle(ctx context.Context, result editor.Result) State {
	if d.state == Terminated {
		return d.state
	}

	if result.Err != nil {
		d.logger.Warn("malformed request", "error", result.Err)
		d.sink.WriteErrorLine(fmt.Sprintf("Error parsing command: %v", result.Err))
		return d.state
	}

	if result.Event == nil {
		d.sink.WriteErrorLine("Error parsing command: empty request")
		return d.state
	}

	d.logger.Debug("event from editor", "event", result.Event.String())

	switch event := result.Event.(type) {
	case editor.Quit:
		d.state = Terminated
	case editor.List:
		d.handleList()
	case editor.ShowLog:
		d.handleShowLog()
	case editor.Connect:
		d.handleConnect(ctx, event)
	case editor.Disconnect:
		d.handleDisconnect(event)
	case editor.Eval:
		d.handleEval(event)
	case editor.Doc:
		d.handleDoc(event)
	default:
		d.sink.WriteErrorLine(fmt.Sprintf("Error parsing command: unsupported event %T", event))
	}

	return d.state
}

func (d *Dispatcher) handleList() {
	if !d.registry.HasConnections() {
		d.sink.WriteLine(d.tag, NoConnectionsLine)
		return
	}

	var lines []string
	for key, connection := range d.registry.List() {
		line := fmt.Sprintf(";; [%s] %s for files matching '%s'", key, connection.Address, connection.Match)
		if connection.Stale {
			line += " (closed)"
		}
		lines = append(lines, line)
	}
	d.sink.WriteLines(d.tag, lines)
}

func (d *Dispatcher) handleShowLog() {
	if err := d.sink.DisplayOrCreateLogView(); err != nil {
		d.sink.WriteErrorLine(fmt.Sprintf("Failed to show the log window: %v", err))
	}
}

func (d *Dispatcher) handleConnect(ctx context.Context, event editor.Connect) {
	if err := d.registry.Connect(ctx, event.Key, event.Address, event.Match); err != nil {
		d.sink.WriteErrorLine(fmt.Sprintf("[%s] Connection error: %v", event.Key, err))
		return
	}
	d.sink.WriteLine(d.tag, fmt.Sprintf(";; [%s] Connected to %s", event.Key, event.Address))
}

func (d *Dispatcher) handleDisconnect(event editor.Disconnect) {
	if err := d.registry.Disconnect(event.Key); err != nil {
		d.sink.WriteErrorLine(fmt.Sprintf("[%s] Disconnection error: %v", event.Key, err))
		return
	}
	d.sink.WriteLine(d.tag, fmt.Sprintf(";; [%s] Disconnected", event.Key))
}

func (d *Dispatcher) handleEval(event editor.Eval) {
	if err := d.registry.Eval(event.Code, event.Path); err != nil {
		d.sink.WriteErrorLine(fmt.Sprintf("Eval error: %v", err))
		return
	}
	if echoer, ok := d.sink.(EvalEchoer); ok {
		echoer.WriteEvalInput(event.Path, event.Code)
	}
}

func (d *Dispatcher) handleDoc(event editor.Doc) {
	if err := d.registry.Doc(event.Name, event.Path); err != nil {
		d.sink.WriteErrorLine(fmt.Sprintf("Doc error: %v", err))
	}
}

// BackendHandlers returns callbacks for pool.Options.Output and
// pool.Options.Closed that report backend activity to sink. Output
// lines are tagged with the connection key.
func BackendHandlers(sink Sink) (output func(key, line string), closed func(key string, err error)) {
	output = func(key, line string) {
		sink.WriteLine(key, line)
	}
	closed = func(key string, err error) {
		if err != nil {
			sink.WriteErrorLine(fmt.Sprintf("[%s] Connection lost: %v", key, err))
			return
		}
		sink.WriteErrorLine(fmt.Sprintf("[%s] Connection closed by backend", key))
	}
	return output, closed
}
