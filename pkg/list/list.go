package list

// List is a doubly-linked list of values of type T.
type List[T any] struct {
	head *Link[T]
	tail *Link[T]
}

// NewList returns an empty list.
func NewList[T any]() *List[T] {
	return &List[T]{}
}

// PeekHead returns the head link of the list, or nil if the list is empty.
func (list *List[T]) PeekHead() *Link[T] {
	return list.head
}

// PeekTail returns the tail link of the list, or nil if the list is empty.
func (list *List[T]) PeekTail() *Link[T] {
	return list.tail
}

// PushHead adds a value to the start of the list and returns the new link.
func (list *List[T]) PushHead(value T) *Link[T] {
	newlink := &Link[T]{list: list, next: list.head, value: value}
	if list.head != nil {
		list.head.prev = newlink
	}
	list.head = newlink
	if list.tail == nil {
		list.tail = newlink
	}
	return newlink
}

// PushTail adds a value to the end of the list and returns the new link.
func (list *List[T]) PushTail(value T) *Link[T] {
	newlink := &Link[T]{list: list, prev: list.tail, value: value}
	if list.tail != nil {
		list.tail.next = newlink
	}
	list.tail = newlink
	if list.head == nil {
		list.head = newlink
	}
	return newlink
}

// Find returns the first link for which f evaluates to true, or nil if none does.
func (list *List[T]) Find(f func(*Link[T]) bool) *Link[T] {
	for link := list.head; link != nil; link = link.next {
		if f(link) {
			return link
		}
	}
	return nil
}

// Map applies f to every link in the list, head to tail.
func (list *List[T]) Map(f func(*Link[T])) {
	for link := list.head; link != nil; link = link.next {
		f(link)
	}
}

// Link is one element of a List.
type Link[T any] struct {
	list  *List[T]
	prev  *Link[T]
	next  *Link[T]
	value T
}

// GetList returns the list that this link belongs to, or nil once popped.
func (link *Link[T]) GetList() *List[T] {
	return link.list
}

// GetValue returns the link's value.
func (link *Link[T]) GetValue() T {
	return link.value
}

// SetValue replaces the link's value.
func (link *Link[T]) SetValue(value T) {
	link.value = value
}

// GetPrev returns the link before this one, or nil at the head.
func (link *Link[T]) GetPrev() *Link[T] {
	return link.prev
}

// GetNext returns the link after this one, or nil at the tail.
func (link *Link[T]) GetNext() *Link[T] {
	return link.next
}

// PopSelf unlinks this link from its list. The link must not be reused afterwards.
func (link *Link[T]) PopSelf() {
	if link.prev != nil {
		link.prev.next = link.next
	} else {
		link.list.head = link.next
	}
	if link.next != nil {
		link.next.prev = link.prev
	} else {
		link.list.tail = link.prev
	}
	link.list = nil
	link.prev = nil
	link.next = nil
}
