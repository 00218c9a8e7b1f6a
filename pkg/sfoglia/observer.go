package sfoglia

import (
	"fmt"
	"log/slog"
)

// Observer receives callbacks whenever the navigator mutates its history.
//
// Callbacks are delivered synchronously within the mutation, in observer
// registration order, after the history change is fully applied, so an
// observer never sees a transiently inconsistent stack. Implementations
// should therefore be fast and must not mutate the navigator reentrantly.
type Observer interface {
	// OnPush is called after route has been pushed on top of previous.
	// previous is nil when route is the first in the history.
	OnPush(route, previous Route)

	// OnPop is called after route has been popped, uncovering previous.
	OnPop(route, previous Route)

	// OnRemove is called after route has been removed without a
	// negotiated pop. previous is the route that was below it, if any.
	OnRemove(route, previous Route)
}

// NavigatorAware observers are handed their navigator when it attaches.
type NavigatorAware interface {
	BindNavigator(nav *Navigator)
}

// NoopObserver is an Observer that does nothing.
type NoopObserver struct{}

func (NoopObserver) OnPush(route, previous Route)   {}
func (NoopObserver) OnPop(route, previous Route)    {}
func (NoopObserver) OnRemove(route, previous Route) {}

// CompositeObserver fans out events to multiple observers in order.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnPush(route, previous Route) {
	for _, o := range c.observers {
		o.OnPush(route, previous)
	}
}

func (c *CompositeObserver) OnPop(route, previous Route) {
	for _, o := range c.observers {
		o.OnPop(route, previous)
	}
}

func (c *CompositeObserver) OnRemove(route, previous Route) {
	for _, o := range c.observers {
		o.OnRemove(route, previous)
	}
}

// LoggingObserver logs every history mutation through a slog.Logger.
type LoggingObserver struct {
	log *slog.Logger
}

// NewLoggingObserver creates an observer that logs at debug level. A nil
// logger uses the package logger.
func NewLoggingObserver(log *slog.Logger) *LoggingObserver {
	if log == nil {
		log = GetLogger()
	}
	return &LoggingObserver{log: log}
}

func (l *LoggingObserver) OnPush(route, previous Route) {
	l.log.Debug("route pushed", "route", describeRoute(route), "previous", describeRoute(previous))
}

func (l *LoggingObserver) OnPop(route, previous Route) {
	l.log.Debug("route popped", "route", describeRoute(route), "previous", describeRoute(previous))
}

func (l *LoggingObserver) OnRemove(route, previous Route) {
	l.log.Debug("route removed", "route", describeRoute(route), "previous", describeRoute(previous))
}

// describeRoute renders a route for log output: its settings name when it
// has one, otherwise its concrete type.
func describeRoute(route Route) string {
	if route == nil {
		return "<none>"
	}
	if m, ok := route.(*ModalRoute); ok && m.Settings().Name != "" {
		return m.Settings().Name
	}
	return fmt.Sprintf("%T", route)
}
