package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/penwyp/go-mine-replay/internal/core/numeral"
	"github.com/penwyp/go-mine-replay/internal/core/replay"
	"github.com/penwyp/go-mine-replay/internal/provider"
	"github.com/penwyp/go-mine-replay/internal/render"
)

// statusFor maps an error from the pipeline to an HTTP status. Render
// failures fall through to 500.
func statusFor(err error) int {
	var (
		versionErr *replay.UnsupportedVersionError
		fieldErr   *replay.MalformedFieldError
		actionErr  *replay.UnsupportedActionError
		decodeErr  *numeral.DecodeError
		statusErr  *provider.StatusError
	)

	switch {
	case errors.As(err, &versionErr), errors.As(err, &fieldErr),
		errors.As(err, &actionErr), errors.As(err, &decodeErr):
		return http.StatusBadRequest
	case errors.Is(err, render.ErrCanvasTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, provider.ErrUnknownProvider), errors.Is(err, provider.ErrGameDataNotFound):
		return http.StatusNotFound
	case errors.Is(err, provider.ErrAPIKeyNotFound):
		return http.StatusServiceUnavailable
	case errors.As(err, &statusErr), errors.Is(err, provider.ErrAPIDataParse),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
