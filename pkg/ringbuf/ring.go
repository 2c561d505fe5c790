package ringbuf

// Ring keeps the most recent pushed values, newest at index 0.
type Ring[T any] struct {
	Data  []T
	Head  int
	Count int
}

func New[T any](size int) *Ring[T] {
	if size < 0 {
		size = 0
	}
	return &Ring[T]{
		Data: make([]T, size),
		Head: 0,
	}
}

func (r *Ring[T]) PushFront(v T) *Ring[T] {
	if len(r.Data) == 0 {
		return r
	}

	r.Head = r.Head - 1
	if r.Head < 0 {
		r.Head = len(r.Data) - 1
	}
	r.Data[r.Head] = v

	if r.Count < len(r.Data) {
		r.Count++
	}
	return r
}

// Append pushes the batch in arrival order, so the last element of the
// batch ends up at index 0. Overflow evicts the oldest values.
func (r *Ring[T]) Append(batch ...T) *Ring[T] {
	for _, v := range batch {
		r.PushFront(v)
	}
	return r
}

func (r *Ring[T]) WalkFirstN(count int, fn func(T)) {
	if len(r.Data) == 0 {
		return
	}
	for i := 0; i < count; i++ {
		fn(r.Data[(r.Head+i)%len(r.Data)])
	}
}

// Slice returns a newest-first copy of the filled part of the ring.
func (r *Ring[T]) Slice() []T {
	out := make([]T, 0, r.Count)
	r.WalkFirstN(r.Count, func(v T) {
		out = append(out, v)
	})
	return out
}

// Len is the number of filled slots.
func (r *Ring[T]) Len() int {
	return r.Count
}

func (r *Ring[T]) Cap() int {
	return len(r.Data)
}
