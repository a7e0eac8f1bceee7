// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
)

// Command names accepted in Request.Command.
const (
	CommandQuit       = "quit"
	CommandList       = "list"
	CommandShowLog    = "show-log"
	CommandConnect    = "connect"
	CommandDisconnect = "disconnect"
	CommandEval       = "eval"
	CommandDoc        = "doc"
)

// ErrParse matches every *ParseError via errors.Is.
var ErrParse = errors.New("malformed request")

// ParseError describes a request that could not be turned into an
// Event.
type ParseError struct {
	// Command is the request's command name, empty when the request
	// could not be decoded at all.
	Command string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Command == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrParse) true for any *ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Request is the wire form of an editor command. Which fields are
// required depends on Command. The json tags name the fields for both
// wire formats; the CBOR decoder falls back to them.
type Request struct {
	Command string `json:"command"`
	Key     string `json:"key,omitempty"`
	Address string `json:"address,omitempty"`
	Match   string `json:"match,omitempty"`
	Code    string `json:"code,omitempty"`
	Path    string `json:"path,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Event validates the request and converts it to an Event. Every
// failure is a *ParseError.
func (r Request) Event() (Event, error) {
	switch r.Command {
	case CommandQuit:
		return Quit{}, nil
	case CommandList:
		return List{}, nil
	case CommandShowLog:
		return ShowLog{}, nil

	case CommandConnect:
		if err := r.require("key", r.Key, "address", r.Address, "match", r.Match); err != nil {
			return nil, err
		}
		if err := validateAddress(r.Address); err != nil {
			return nil, r.fail(err)
		}
		match, err := regexp.Compile(r.Match)
		if err != nil {
			return nil, r.fail(fmt.Errorf("invalid match rule: %w", err))
		}
		return Connect{Key: r.Key, Address: r.Address, Match: match}, nil

	case CommandDisconnect:
		if err := r.require("key", r.Key); err != nil {
			return nil, err
		}
		return Disconnect{Key: r.Key}, nil

	case CommandEval:
		if err := r.require("code", r.Code, "path", r.Path); err != nil {
			return nil, err
		}
		return Eval{Code: r.Code, Path: r.Path}, nil

	case CommandDoc:
		if err := r.require("name", r.Name, "path", r.Path); err != nil {
			return nil, err
		}
		return Doc{Name: r.Name, Path: r.Path}, nil

	case "":
		return nil, &ParseError{Err: fmt.Errorf("command is required")}
	default:
		return nil, &ParseError{Err: fmt.Errorf("unknown command %q", r.Command)}
	}
}

// require checks name/value pairs and reports the first empty value.
func (r Request) require(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return r.fail(fmt.Errorf("%s is required", pairs[i]))
		}
	}
	return nil
}

func (r Request) fail(err error) *ParseError {
	return &ParseError{Command: r.Command, Err: err}
}

// validateAddress accepts host:port with a numeric port in 1..65535.
func validateAddress(address string) error {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", address, err)
	}
	if host == "" {
		return fmt.Errorf("invalid address %q: missing host", address)
	}
	number, err := strconv.Atoi(port)
	if err != nil || number < 1 || number > 65535 {
		return fmt.Errorf("invalid address %q: bad port %q", address, port)
	}
	return nil
}
