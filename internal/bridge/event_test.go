package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Event
	}{
		{name: "map loaded", raw: "MAP_LOADED", want: MapLoaded{}},
		{name: "map loaded with whitespace", raw: "  MAP_LOADED\n", want: MapLoaded{}},
		{name: "map error without message", raw: "MAP_ERROR", want: MapError{}},
		{name: "map error with message", raw: "MAP_ERROR:tiles: 503", want: MapError{Message: "tiles: 503"}},
		{name: "details", raw: "DETAILS_42", want: DetailsRequested{PlaceID: "42"}},
		{name: "route request", raw: "ROUTE_42", want: RouteRequested{PlaceID: "42"}},
		{name: "route cleared", raw: "ROUTE_CLEARED", want: RouteCleared{}},
		{
			name: "route calculated legacy",
			raw:  "ROUTE_CALCULATED:42:3.25:11",
			want: RouteCalculated{PlaceID: "42", DistanceKm: 3.25, ETAMinutes: 11},
		},
		{
			name: "route calculated with token",
			raw:  "ROUTE_CALCULATED:42:3.25:11:7",
			want: RouteCalculated{PlaceID: "42", DistanceKm: 3.25, ETAMinutes: 11, Token: 7, HasToken: true},
		},
		{
			name: "route calculated with bad token keeps result",
			raw:  "ROUTE_CALCULATED:42:3.25:11:x",
			want: RouteCalculated{PlaceID: "42", DistanceKm: 3.25, ETAMinutes: 11},
		},
		{
			name: "route calculated with NaN distance",
			raw:  "ROUTE_CALCULATED:42:NaN:11",
			want: RouteFailed{PlaceID: "42", Reason: "malformed route fields"},
		},
		{
			name: "route calculated with text eta",
			raw:  "ROUTE_CALCULATED:42:3.2:soon:5",
			want: RouteFailed{PlaceID: "42", Token: 5, HasToken: true, Reason: "malformed route fields"},
		},
		{
			name: "route calculated with negative distance",
			raw:  "ROUTE_CALCULATED:42:-1:11",
			want: RouteFailed{PlaceID: "42", Reason: "malformed route fields"},
		},
		{
			name: "route calculated with infinite eta",
			raw:  "ROUTE_CALCULATED:42:1:+Inf",
			want: RouteFailed{PlaceID: "42", Reason: "malformed route fields"},
		},
		{
			name: "route calculated with absurd values",
			raw:  "ROUTE_CALCULATED:A:1e300:1e300:1",
			want: RouteFailed{PlaceID: "A", Token: 1, HasToken: true, Reason: "malformed route fields"},
		},
		{
			name: "route calculated longer than the equator",
			raw:  "ROUTE_CALCULATED:42:40076:30",
			want: RouteFailed{PlaceID: "42", Reason: "malformed route fields"},
		},
		{
			name: "route calculated with eta over a week",
			raw:  "ROUTE_CALCULATED:42:12:10081",
			want: RouteFailed{PlaceID: "42", Reason: "malformed route fields"},
		},
		{
			name: "route calculated at the limits",
			raw:  "ROUTE_CALCULATED:42:40075:10080",
			want: RouteCalculated{PlaceID: "42", DistanceKm: 40075, ETAMinutes: 10080},
		},
		{
			name: "route calculated missing fields",
			raw:  "ROUTE_CALCULATED:42:1.5",
			want: RouteFailed{PlaceID: "42", Reason: "missing route fields"},
		},
		{name: "route calculated without place", raw: "ROUTE_CALCULATED::1:2", want: Unknown{Raw: "ROUTE_CALCULATED::1:2"}},
		{name: "route error", raw: "ROUTE_ERROR:42", want: RouteFailed{PlaceID: "42", Reason: "routing failed"}},
		{
			name: "route error with token",
			raw:  "ROUTE_ERROR:42:9",
			want: RouteFailed{PlaceID: "42", Token: 9, HasToken: true, Reason: "routing failed"},
		},
		{name: "route error without place", raw: "ROUTE_ERROR:", want: Unknown{Raw: "ROUTE_ERROR:"}},
		{name: "truncated route calculated", raw: "ROUTE_CALCULATED", want: Unknown{Raw: "ROUTE_CALCULATED"}},
		{name: "truncated route error", raw: "ROUTE_ERROR", want: Unknown{Raw: "ROUTE_ERROR"}},
		{name: "empty route id", raw: "ROUTE_", want: Unknown{Raw: "ROUTE_"}},
		{name: "details with separator", raw: "DETAILS_4:2", want: Unknown{Raw: "DETAILS_4:2"}},
		{name: "unknown prefix", raw: "ZOOM_CHANGED:14", want: Unknown{Raw: "ZOOM_CHANGED:14"}},
		{name: "lowercase is not the protocol", raw: "map_loaded", want: Unknown{Raw: "map_loaded"}},
		{name: "empty", raw: "", want: Unknown{Raw: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEvent(tt.raw))
		})
	}
}

func TestEvent_WireIsParsedBack(t *testing.T) {
	events := []Event{
		MapLoaded{},
		MapError{Message: "no webgl"},
		DetailsRequested{PlaceID: "17"},
		RouteRequested{PlaceID: "17"},
		RouteCalculated{PlaceID: "17", DistanceKm: 1.5, ETAMinutes: 6, Token: 3, HasToken: true},
		RouteFailed{PlaceID: "17", Token: 3, HasToken: true, Reason: "routing failed"},
		RouteCleared{},
	}

	for _, e := range events {
		assert.Equal(t, e, ParseEvent(e.Wire()), e.Wire())
	}
}
