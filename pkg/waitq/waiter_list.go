// Copyright 2024 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package waitq

// waiterList is an intrusive doubly-linked list of Waiters. Entries can
// be added and removed in O(1) time with no additional allocations.
//
// The zero value is an empty list ready to use.
type waiterList struct {
	head *Waiter
	tail *Waiter
}

// waiterEntry is embedded in Waiter to link it into a waiterList.
type waiterEntry struct {
	next *Waiter
	prev *Waiter
}

// Empty returns true iff the list is empty.
func (l *waiterList) Empty() bool {
	return l.head == nil
}

// Front returns the first waiter in the list or nil.
func (l *waiterList) Front() *Waiter {
	return l.head
}

// PushBack inserts w at the back of the list.
func (l *waiterList) PushBack(w *Waiter) {
	w.next = nil
	w.prev = l.tail
	if l.tail != nil {
		l.tail.next = w
	} else {
		l.head = w
	}
	l.tail = w
}

// Remove unlinks w from the list.
func (l *waiterList) Remove(w *Waiter) {
	if w.prev != nil {
		w.prev.next = w.next
	} else if l.head == w {
		l.head = w.next
	}
	if w.next != nil {
		w.next.prev = w.prev
	} else if l.tail == w {
		l.tail = w.prev
	}
	w.next = nil
	w.prev = nil
}
