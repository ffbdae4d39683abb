// Package iterator provides lazy, forwards-only iterators over datum selections and
// store scans, allowing for early termination.
package iterator

type void struct{}

// Accept is a predicate that receives a value from an iterator
// and returns true if more values are desired.
type Accept[T any] func(T) bool

// Collection is a source for iterable values.
type Collection[T any] interface {
	Each(Accept[T])
}

// Iterator is a lazy, forwards-only iterator over an iterable collection with early termination.
//
// An iterator that is neither drained nor stopped holds a goroutine.
type Iterator[T any] struct {
	stop    chan void
	values  chan T
	current T
	stopped bool
}

// BuildIterator returns a reference to an iterator for the given collection.
func BuildIterator[T any](coll Collection[T]) *Iterator[T] {
	values := make(chan T)
	stop := make(chan void)
	go func() {
		defer close(values)
		coll.Each(func(value T) bool {
			select {
			case values <- value:
				return true
			case <-stop:
				return false
			}
		})
	}()
	return &Iterator[T]{stop: stop, values: values}
}

// Next advances the iterator, returning true if successful.
func (iter *Iterator[T]) Next() (ok bool) {
	if iter.stopped {
		return
	}
	iter.current, ok = <-iter.values
	return
}

// Value returns the value of the iterable collection at the current position of the iterator.
func (iter *Iterator[T]) Value() T {
	return iter.current
}

// Stop invalidates the iterator, useful for partial iteration over lazy sequences.
// Stopping an iterator more than once has no effect.
func (iter *Iterator[T]) Stop() {
	if iter.stopped {
		return
	}
	iter.stopped = true
	close(iter.stop)
}

// Drain returns a slice of the values remaining in the iterator.
func (iter *Iterator[T]) Drain() []T {
	values := []T{}
	for iter.Next() {
		values = append(values, iter.Value())
	}
	return values
}

// First returns the next value of the iterator, if any, and stops it.
func (iter *Iterator[T]) First() (value T, ok bool) {
	ok = iter.Next()
	if ok {
		value = iter.Value()
	}
	iter.Stop()
	return
}

// Reduce fully reduces the iterated collection by adding the values sequentially to the given init value.
func Reduce[T any, U any](iter *Iterator[T], add func(U, T) U, init U) U {
	result := init
	for iter.Next() {
		result = add(result, iter.Value())
	}
	return result
}

// Iterators is a collection of iterators that will be iterated consecutively.
type Iterators[T any] []*Iterator[T]

func (iters Iterators[T]) Each(accept Accept[T]) {
	for i, iter := range iters {
		for iter.Next() {
			if !accept(iter.Value()) {
				iter.Stop()
				for j := i + 1; j < len(iters); j++ {
					iters[j].Stop()
				}
				return
			}
		}
	}
}

// Slice is a wrapper type for slices.
type Slice[T any] []T

func (slice Slice[T]) Each(accept Accept[T]) {
	for _, value := range slice {
		if !accept(value) {
			return
		}
	}
}

// Func is a collection whose values are produced by a function.
type Func[T any] func(Accept[T])

func (f Func[T]) Each(accept Accept[T]) {
	f(accept)
}

// Map returns an iterator of the values of the given iterator transformed by the function.
func Map[T any, U any](iter *Iterator[T], f func(T) U) *Iterator[U] {
	return BuildIterator[U](Func[U](func(accept Accept[U]) {
		for iter.Next() {
			if !accept(f(iter.Value())) {
				iter.Stop()
				return
			}
		}
	}))
}

// Filter returns an iterator of the values of the given iterator that satisfy the predicate.
func Filter[T any](iter *Iterator[T], pred func(T) bool) *Iterator[T] {
	return BuildIterator[T](Func[T](func(accept Accept[T]) {
		for iter.Next() {
			value := iter.Value()
			if pred(value) && !accept(value) {
				iter.Stop()
				return
			}
		}
	}))
}
