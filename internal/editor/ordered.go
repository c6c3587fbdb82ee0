package editor

import "slices"

// Item is an entity with stable identity and a position among its siblings.
type Item interface {
	ItemID() string
	SetOrder(order int)
}

// Ordered is a reorderable list whose order values are always 0..n-1.
type Ordered[T Item] []T

// Index returns the position of the item with the given id, or -1.
func (o Ordered[T]) Index(id string) int {
	return slices.IndexFunc(o, func(item T) bool { return item.ItemID() == id })
}

// Insert appends item at the end.
func (o *Ordered[T]) Insert(item T) {
	item.SetOrder(len(*o))
	*o = append(*o, item)
}

// Remove deletes the item with the given id and recompacts the order.
func (o *Ordered[T]) Remove(id string) bool {
	idx := o.Index(id)
	if idx < 0 {
		return false
	}
	*o = slices.Delete(*o, idx, idx+1)
	o.Renumber()
	return true
}

// Move relocates the item from one position to another. When the item at
// from does not carry id, the item is located by id instead. to is clamped
// to the list bounds.
func (o *Ordered[T]) Move(id string, from, to int) bool {
	items := *o
	if from < 0 || from >= len(items) || items[from].ItemID() != id {
		from = items.Index(id)
		if from < 0 {
			return false
		}
	}
	to = max(0, min(to, len(items)-1))

	item := items[from]
	items = slices.Delete(items, from, from+1)
	items = slices.Insert(items, to, item)
	*o = items
	o.Renumber()
	return true
}

// Renumber assigns order values matching the current positions.
func (o Ordered[T]) Renumber() {
	for i, item := range o {
		item.SetOrder(i)
	}
}
