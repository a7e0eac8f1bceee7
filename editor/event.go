// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"fmt"
	"regexp"
)

// Event is one inbound editor command. The set of implementations is
// closed; consumers switch over the concrete types.
type Event interface {
	fmt.Stringer
	isEvent()
}

// Quit stops the dispatcher.
type Quit struct{}

// List asks for a display of every registered connection.
type List struct{}

// ShowLog asks the sink to surface its log view.
type ShowLog struct{}

// Connect registers a new REPL connection.
type Connect struct {
	Key     string
	Address string
	Match   *regexp.Regexp
}

// Disconnect releases the connection registered under Key.
type Disconnect struct {
	Key string
}

// Eval sends Code to the connection whose rule matches Path.
type Eval struct {
	Code string
	Path string
}

// Doc looks up documentation for Name on the connection whose rule
// matches Path.
type Doc struct {
	Name string
	Path string
}

func (Quit) isEvent()       {}
func (List) isEvent()       {}
func (ShowLog) isEvent()    {}
func (Connect) isEvent()    {}
func (Disconnect) isEvent() {}
func (Eval) isEvent()       {}
func (Doc) isEvent()        {}

func (Quit) String() string    { return "quit" }
func (List) String() string    { return "list" }
func (ShowLog) String() string { return "show-log" }

func (e Connect) String() string {
	return fmt.Sprintf("connect [%s] %s for files matching '%s'", e.Key, e.Address, e.Match)
}

func (e Disconnect) String() string { return fmt.Sprintf("disconnect [%s]", e.Key) }

func (e Eval) String() string {
	return fmt.Sprintf("eval %d bytes for %s", len(e.Code), e.Path)
}

func (e Doc) String() string { return fmt.Sprintf("doc %s for %s", e.Name, e.Path) }

// Result is one item on the inbound queue: either an Event or the
// error produced while decoding the request.
type Result struct {
	Event Event
	Err   error
}
