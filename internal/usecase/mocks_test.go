package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/bridge"
	"github.com/CB-PROYECTO-SISTEMAS-2025/PS3-RUTA-CAFE-sub000/internal/domain"
)

// MockPlaceRepository is a mock of PlaceRepository
type MockPlaceRepository struct {
	mock.Mock
}

func (m *MockPlaceRepository) List(ctx context.Context) ([]domain.Place, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Place), args.Error(1)
}

func (m *MockPlaceRepository) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Place), args.Error(1)
}

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	return m.Called(ctx, stream, group, messageID).Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	return m.Called(ctx, stream, group).Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}, maxLen int64) error {
	return m.Called(ctx, stream, data, maxLen).Error(0)
}

func (m *MockStreamRepository) ReadAfter(ctx context.Context, stream, afterID string, count int64) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, afterID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) DeleteStream(ctx context.Context, stream string) error {
	return m.Called(ctx, stream).Error(0)
}

type sentCommand struct {
	generation uint64
	command    bridge.Command
}

// recordingSinks запоминает команды каждой сессии
type recordingSinks struct {
	kinds map[string]string
	sent  map[string][]sentCommand
	err   error
}

func newRecordingSinks() *recordingSinks {
	return &recordingSinks{
		kinds: make(map[string]string),
		sent:  make(map[string][]sentCommand),
	}
}

func (r *recordingSinks) factory(guestKind, sessionID string) bridge.CommandSink {
	r.kinds[sessionID] = guestKind
	return bridge.CommandSinkFunc(func(ctx context.Context, generation uint64, cmd bridge.Command) error {
		if r.err != nil {
			return r.err
		}
		r.sent[sessionID] = append(r.sent[sessionID], sentCommand{generation: generation, command: cmd})
		return nil
	})
}

func (r *recordingSinks) types(sessionID string) []bridge.CommandType {
	out := make([]bridge.CommandType, 0, len(r.sent[sessionID]))
	for _, s := range r.sent[sessionID] {
		out = append(out, s.command.Type)
	}
	return out
}

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func testPlaces() []domain.Place {
	monday := domain.Schedule{
		{DayOfWeek: domain.Monday, OpenTime: domain.NewTimeOfDay(10, 0), CloseTime: domain.NewTimeOfDay(14, 30)},
		{DayOfWeek: "Tuesday", OpenTime: domain.NewTimeOfDay(8, 0), CloseTime: domain.NewTimeOfDay(18, 0)},
	}
	return []domain.Place{
		{ID: "1", Name: "Café Uno", Category: "cafe", Lat: -17.3895, Lng: -66.1568, RouteID: "r1", RouteName: "Ruta Centro", Status: domain.PlaceStatusApproved, Schedules: monday},
		{ID: "2", Name: "Tostaduría Dos", Category: "roastery", Lat: -17.3712, Lng: -66.1621, RouteID: "r2", RouteName: "Ruta Norte", Status: domain.PlaceStatusApproved},
		{ID: "3", Name: "Pendiente", Category: "cafe", Lat: -17.40, Lng: -66.15, RouteID: "r1", Status: "pending"},
	}
}
