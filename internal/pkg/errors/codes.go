package errors

import "net/http"

var (
	ErrSessionNotFound = New(
		"SESSION_NOT_FOUND",
		"Map session not found",
		http.StatusNotFound,
	)

	ErrPlaceNotFound = New(
		"PLACE_NOT_FOUND",
		"Place not found",
		http.StatusNotFound,
	)

	ErrLocationRequired = New(
		"LOCATION_REQUIRED",
		"User location is required to calculate a route",
		http.StatusConflict,
	)

	ErrMapUnavailable = New(
		"MAP_UNAVAILABLE",
		"Map is unavailable, retry to recreate it",
		http.StatusServiceUnavailable,
	)

	ErrStaleGeneration = New(
		"STALE_GENERATION",
		"Message belongs to a previous map instance",
		http.StatusGone,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidSchedule = New(
		"INVALID_SCHEDULE",
		"Invalid schedule",
		http.StatusUnprocessableEntity,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrUpstreamError = New(
		"UPSTREAM_ERROR",
		"Upstream service request failed",
		http.StatusBadGateway,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
