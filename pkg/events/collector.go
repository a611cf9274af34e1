package events

// EventCollector accumulates the events drained from every aggregate a unit
// of work touches. The unit writes them to the outbox in one batch on commit.
// It is not safe for concurrent use; a unit of work owns its collector.
type EventCollector struct {
	events []DomainEvent
}

// Record appends evts in order. Nil events are ignored.
func (c *EventCollector) Record(evts ...DomainEvent) {
	for _, e := range evts {
		if e != nil {
			c.events = append(c.events, e)
		}
	}
}

// Events returns a copy of everything recorded so far.
func (c *EventCollector) Events() []DomainEvent {
	if len(c.events) == 0 {
		return nil
	}
	return append([]DomainEvent(nil), c.events...)
}
