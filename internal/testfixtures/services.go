package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/occupancy-scheduler/internal/application"
	"github.com/example/occupancy-scheduler/internal/timeline"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// AvailabilityServiceDeps captures dependencies for constructing an availability service.
type AvailabilityServiceDeps struct {
	Events  application.EventSource
	Now     func() time.Time
	Logger  *slog.Logger
	Options []application.AvailabilityOption
}

// NewAvailabilityService builds an availability service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewAvailabilityService(deps AvailabilityServiceDeps) *application.AvailabilityService {
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewAvailabilityServiceWithLogger(deps.Events, now, deps.Logger, deps.Options...)
}

// NewCalendar registers the participants and events in a fresh calendar.
// Participants without an id receive one from the factory generator.
// Registration errors panic since fixtures are expected to be consistent.
func (f *ServiceFactory) NewCalendar(participants []timeline.Participant, events ...EventFixture) *timeline.Calendar {
	cal := timeline.NewCalendar()
	for _, p := range participants {
		if p.ID == "" {
			p.ID = f.IDGenerator.Next()
		}
		if err := cal.AddParticipant(p); err != nil {
			panic(err)
		}
	}
	for _, e := range events {
		if err := cal.AddEvent(e.Event()); err != nil {
			panic(err)
		}
	}
	return cal
}
