/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package reactorerr provides the error taxonomy used across the reactor
// core: a numeric CodeError per error kind, an optional parent/cause, and
// a captured stack frame for the site that raised it.
package reactorerr

import (
	"errors"
	"fmt"
	"runtime"
)

// Error is a CodeError-carrying error with an optional parent cause and a
// captured call site.
type Error interface {
	error
	Code() CodeError
	IsCode(CodeError) bool
	Unwrap() error
	GetTrace() string
}

type ers struct {
	code   CodeError
	parent error
	frame  runtime.Frame
}

// New builds an Error for the given code, wrapping parent (which may be
// nil). The call site is captured for GetTrace.
func New(code CodeError, parent error) Error {
	e := &ers{code: code, parent: parent}

	pc := make([]uintptr, 1)
	if n := runtime.Callers(2, pc); n > 0 {
		frames := runtime.CallersFrames(pc[:n])
		if f, _ := frames.Next(); f.PC != 0 {
			e.frame = f
		}
	}

	return e
}

func (e *ers) Error() string {
	msg := e.code.Message()
	if e.parent != nil {
		return fmt.Sprintf("%s: %s", msg, e.parent.Error())
	}
	return msg
}

func (e *ers) Code() CodeError {
	return e.code
}

func (e *ers) IsCode(c CodeError) bool {
	return e.code == c
}

func (e *ers) Unwrap() error {
	return e.parent
}

// GetTrace renders the captured call site as "file:line func".
func (e *ers) GetTrace() string {
	if e.frame.PC == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d %s", e.frame.File, e.frame.Line, e.frame.Function)
}

// Is reports whether the first Error found in err's chain (via
// errors.As) carries code. It returns false when the chain holds no
// Error. *ers has no Is method, so errors.Is against a sentinel built
// with New compares identity, not codes.
func Is(err error, code CodeError) bool {
	var e *ers
	if errors.As(err, &e) {
		return e.code == code
	}
	return false
}
