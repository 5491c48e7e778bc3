package memory

import "container/list"

// recency orders keys from the most to the least recently touched and holds
// at most capacity keys.
type recency struct {
	capacity int
	order    *list.List // front = most recently touched
	index    map[string]*list.Element
}

// touch marks key as the most recently used one, inserting it if needed.
// When the insertion overflows the capacity, the least recently touched key
// is dropped and returned.
func (r *recency) touch(key string) (evicted string, ok bool) {
	if el, exists := r.index[key]; exists {
		r.order.MoveToFront(el)
		return "", false
	}

	r.index[key] = r.order.PushFront(key)

	if r.order.Len() <= r.capacity {
		return "", false
	}

	back := r.order.Back()
	evicted = back.Value.(string)
	r.order.Remove(back)
	delete(r.index, evicted)

	return evicted, true
}

func (r *recency) remove(key string) {
	el, exists := r.index[key]
	if !exists {
		return
	}

	r.order.Remove(el)
	delete(r.index, key)
}

func (r *recency) clear() {
	r.order.Init()
	clear(r.index)
}

// keys returns the tracked keys from the most to the least recently touched.
func (r *recency) keys() []string {
	keys := make([]string, 0, r.order.Len())
	for el := r.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(string))
	}
	return keys
}

func newRecency(capacity int) *recency {
	return &recency{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
}
