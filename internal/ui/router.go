// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"sync"

	"github.com/jeranaias/quickask/internal/submit"
)

// Route is one entry on the screen stack.
type Route struct {
	Screen string
	Params submit.Params
}

type listener struct {
	screen string
	event  string
	fn     func()
}

// Router is a screen stack. The bottom entry is never popped.
//
// Listeners are registered per screen through Scope; GoBack emits
// submit.EventFocus to the listeners of the screen it exposes.
type Router struct {
	mu        sync.Mutex
	stack     []Route
	listeners map[int]*listener
	nextID    int
}

// NewRouter creates a router whose stack holds root.
func NewRouter(root string) *Router {
	return &Router{
		stack:     []Route{{Screen: root}},
		listeners: make(map[int]*listener),
	}
}

// Current returns the top of the stack.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stack[len(r.stack)-1]
}

// Depth returns the stack size.
func (r *Router) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stack)
}

// Navigate pushes screen and emits focus to its listeners.
func (r *Router) Navigate(screen string, params submit.Params) {
	r.mu.Lock()
	r.stack = append(r.stack, Route{Screen: screen, Params: params})
	fns := r.collect(screen, submit.EventFocus)
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// GoBack pops the top screen and emits focus to the screen underneath.
// At the root it does nothing.
func (r *Router) GoBack() {
	r.mu.Lock()
	if len(r.stack) <= 1 {
		r.mu.Unlock()
		return
	}
	r.stack = r.stack[:len(r.stack)-1]
	top := r.stack[len(r.stack)-1].Screen
	fns := r.collect(top, submit.EventFocus)
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Scope returns a submit.Navigator whose listeners belong to screen.
func (r *Router) Scope(screen string) submit.Navigator {
	return scopedNavigator{router: r, screen: screen}
}

func (r *Router) addListener(screen, event string, fn func()) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = &listener{screen: screen, event: event, fn: fn}
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.mu.Unlock()
		})
	}
}

// collect must be called with r.mu held. Listeners run after unlock, in
// registration order.
func (r *Router) collect(screen, event string) []func() {
	var fns []func()
	for id := 0; id < r.nextID; id++ {
		l, ok := r.listeners[id]
		if ok && l.screen == screen && l.event == event {
			fns = append(fns, l.fn)
		}
	}
	return fns
}

type scopedNavigator struct {
	router *Router
	screen string
}

func (s scopedNavigator) Navigate(screen string, params submit.Params) {
	s.router.Navigate(screen, params)
}

func (s scopedNavigator) GoBack() { s.router.GoBack() }

func (s scopedNavigator) AddListener(event string, fn func()) func() {
	return s.router.addListener(s.screen, event, fn)
}
