// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ed047tc1

import "fmt"

// slot holds at most one instance of a single owner hardware resource.
//
// take moves the resource out, put moves it back in. Taking from an empty
// slot is reported as ErrResourceUnavailable; putting into a full slot means
// the resource was duplicated and panics.
type slot[T any] struct {
	name string
	v    T
	ok   bool
}

func (s *slot[T]) held() bool {
	return s.ok
}

func (s *slot[T]) take() (T, error) {
	var zero T
	if !s.ok {
		return zero, fmt.Errorf("%w: %s", ErrResourceUnavailable, s.name)
	}
	v := s.v
	s.v = zero
	s.ok = false
	return v, nil
}

func (s *slot[T]) put(v T) {
	if s.ok {
		panic("ed047tc1: " + s.name + " is already held")
	}
	s.v = v
	s.ok = true
}
