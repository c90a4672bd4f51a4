package orderbookv1

// PriceLevel is the FIFO queue of resting orders at one price. The book
// owning the level serializes access; the level itself carries no lock.
// A level held by a book is always non-empty.
type PriceLevel struct {
	Price         float64
	Orders        []*Order // front of the queue at index 0
	TotalQuantity uint64
}

// NewPriceLevel creates an empty level at the given price.
func NewPriceLevel(price float64) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Orders: make([]*Order, 0, 4),
	}
}

// Enqueue appends an order to the back of the queue, preserving time priority.
func (l *PriceLevel) Enqueue(order *Order) {
	l.Orders = append(l.Orders, order)
	l.TotalQuantity += order.Quantity
}

// Front returns the oldest resting order, or nil when the level is empty.
func (l *PriceLevel) Front() *Order {
	if len(l.Orders) == 0 {
		return nil
	}
	return l.Orders[0]
}

// FillFront reduces the front order by qty and pops it when fully consumed.
// It reports whether the front order left the queue.
func (l *PriceLevel) FillFront(qty uint64) bool {
	front := l.Orders[0]
	if qty > front.Quantity {
		qty = front.Quantity
	}
	front.Quantity -= qty
	l.TotalQuantity -= qty

	if front.Quantity == 0 {
		l.Orders[0] = nil
		l.Orders = l.Orders[1:]
		return true
	}
	return false
}

// Remove deletes the order with the given id from the queue, keeping the
// order of the remaining entries. It reports whether the id was found.
func (l *PriceLevel) Remove(orderID uint64) bool {
	for i, o := range l.Orders {
		if o.ID == orderID {
			l.TotalQuantity -= o.Quantity
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			return true
		}
	}
	return false
}

// IsEmpty reports whether the level has no resting orders.
func (l *PriceLevel) IsEmpty() bool {
	return len(l.Orders) == 0
}

// OrderCount returns the number of resting orders at this level.
func (l *PriceLevel) OrderCount() int {
	return len(l.Orders)
}
