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

// taskOp names the interest-ops mutation a worker is requesting. Only
// the event loop goroutine ever applies one (spec.md §4.1's interest-arm
// discipline): workers never touch epoll directly, they only enqueue
// one of these.
type taskOp uint8

const (
	taskArmRead taskOp = iota
	taskArmWrite
	taskDisarmWrite
	taskClose
)

// selectorTask is the unit of the Selector-Task Queue (spec.md §2): a
// request, produced by a worker goroutine, for the event loop to change
// one session's interest ops or to tear it down.
type selectorTask struct {
	key int // fd, doubles as the epoll identity and the staleness check
	op  taskOp
	gen uint64 // session generation at enqueue time, see staleness note below
}

// stale reports whether key/gen no longer identifies a live session -
// the fd may have been closed and reused for an unrelated connection by
// the time the event loop gets around to draining this task (spec.md
// §7 StaleKeyError). The event loop consults the live session table by
// (key, gen) before applying any task.
func (t selectorTask) stale(current uint64, tracked bool) bool {
	return !tracked || current != t.gen
}
