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

package tcp

import (
	"github.com/nabbar/nioreactor/reactorerr"
)

// ErrInvalidAddress is a CodeBind sentinel for an unresolvable address.
// RegisterServer and Listen do not return it: they return a fresh
// CodeBind error wrapping the resolver's error.
var ErrInvalidAddress = reactorerr.New(reactorerr.CodeBind, nil)

// ErrInvalidHandler is a CodeWorkerFault sentinel for an unregistered
// request processor. New and Listen do not return it: they return a
// fresh CodeWorkerFault error wrapping socket/worker.Create's error.
var ErrInvalidHandler = reactorerr.New(reactorerr.CodeWorkerFault, nil)

// ErrAlreadyRunning is returned by Listen when the server is already
// accepting connections.
var ErrAlreadyRunning = reactorerr.New(reactorerr.CodeBind, nil)

// ErrNotRunning is returned by Shutdown/Close when Listen has marked the
// server running but has not yet set up its event loop. Shutdown on a
// server that is not running returns nil.
var ErrNotRunning = reactorerr.New(reactorerr.CodeBind, nil)

// ErrShutdownEscalated is reported through FuncError (not returned) when
// a worker or the event loop is still running after the grace period, or
// when sessions were still open and Shutdown closed them forcibly
// (spec.md §5).
var ErrShutdownEscalated = reactorerr.New(reactorerr.CodeShutdownEscalation, nil)
