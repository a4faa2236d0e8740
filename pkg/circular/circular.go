package circular

import (
	"fmt"
	"sync"
)

/*
 * Fixed-capacity ring buffer. Once full, every write overwrites the oldest
 * elements. Safe for concurrent use.
 */
type Buffer[T any] struct {
	mutex   sync.RWMutex
	values  []T
	pointer int
	filled  int
}

/*
 * Add elements to the buffer, overwriting the oldest ones when it is full.
 *
 * Pointer points to the oldest element, or the next element to be
 * overwritten.
 */
func (b *Buffer[T]) Enqueue(elems ...T) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	n := len(b.values)
	numElems := len(elems)

	if n == 0 || numElems == 0 {
		return
	}

	/*
	 * More elements than fit: keep only the newest n.
	 */
	if numElems >= n {
		copy(b.values, elems[numElems-n:])
		b.pointer = 0
		b.filled = n
		return
	}

	ptr := b.pointer
	end := ptr + numElems

	if end < n {
		copy(b.values[ptr:end], elems)
		b.pointer = end
	} else {
		head := end - n
		tail := n - ptr
		copy(b.values[ptr:n], elems[:tail])
		copy(b.values[:head], elems[tail:])
		b.pointer = head
	}

	b.filled += numElems
	if b.filled > n {
		b.filled = n
	}
}

/*
 * Returns the capacity of the buffer.
 */
func (b *Buffer[T]) Length() int {
	return len(b.values)
}

/*
 * Returns the number of elements written and not yet overwritten.
 */
func (b *Buffer[T]) Filled() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.filled
}

/*
 * Copy the whole buffer, oldest element first, into buf. Slots never
 * written hold the zero value.
 */
func (b *Buffer[T]) Retrieve(buf []T) error {
	n := len(b.values)

	if len(buf) != n {
		return fmt.Errorf("target buffer holds %d elements, ring holds %d", len(buf), n)
	}

	b.mutex.RLock()
	ptr := b.pointer
	tailSize := n - ptr
	copy(buf[:tailSize], b.values[ptr:n])
	copy(buf[tailSize:n], b.values[:ptr])
	b.mutex.RUnlock()
	return nil
}

/*
 * Returns a copy of the newest n elements, oldest first. Asking for more
 * than has been written returns only what is available.
 */
func (b *Buffer[T]) Tail(n int) []T {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	if n > b.filled {
		n = b.filled
	}
	if n <= 0 {
		return nil
	}

	size := len(b.values)
	out := make([]T, n)
	start := ((b.pointer-n)%size + size) % size

	if start+n <= size {
		copy(out, b.values[start:start+n])
	} else {
		first := copy(out, b.values[start:])
		copy(out[first:], b.values[:n-first])
	}

	return out
}

/*
 * Returns the n-th element counting from the oldest slot, or nil when n is
 * out of range.
 */
func (b *Buffer[T]) At(n int) *T {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	length := len(b.values)

	if n < 0 || n >= length {
		return nil
	}

	index := (b.pointer + n) % length
	return &b.values[index]
}

/*
 * Forget all contents.
 */
func (b *Buffer[T]) Reset() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	var zero T

	for i := range b.values {
		b.values[i] = zero
	}

	b.pointer = 0
	b.filled = 0
}

/*
 * Creates a ring buffer holding size elements.
 */
func CreateBuffer[T any](size int) *Buffer[T] {
	if size < 0 {
		size = 0
	}

	return &Buffer[T]{
		values: make([]T, size),
	}
}
