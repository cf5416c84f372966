package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-kit/kit/endpoint"
)

type DecodeRequestFunc func(ctx context.Context, req *http.Request) (interface{}, error)

type EncodeResponseFunc func(ctx context.Context, w http.ResponseWriter, response interface{}) error

// DecodeRequest decodes a JSON body into a fresh T. Types implementing
// render.Binder get their Bind validation run as part of decoding.
func DecodeRequest[T any](_ context.Context, req *http.Request) (interface{}, error) {
	request := new(T)

	if binder, ok := any(request).(render.Binder); ok {
		if err := render.Bind(req, binder); err != nil {
			return nil, err
		}

		return request, nil
	}

	if err := render.DecodeJSON(req.Body, request); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}

	return request, nil
}

// MakeHandlerFunc bridges a go-kit endpoint into a plain http handler:
// decode, call, encode, with every failure funneled through ErrorResponse.
func MakeHandlerFunc(ep endpoint.Endpoint, decode DecodeRequestFunc, encode EncodeResponseFunc) http.HandlerFunc {
	return func(respWriter http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		request, err := decode(ctx, req)
		if err != nil {
			ErrorResponse(ctx, err, respWriter)

			return
		}

		response, err := ep(ctx, request)
		if err != nil {
			ErrorResponse(ctx, err, respWriter)

			return
		}

		if err := encode(ctx, respWriter, response); err != nil {
			ErrorResponse(ctx, err, respWriter)
		}
	}
}
