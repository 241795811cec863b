package middleware

import (
	"context"
	"net/http"
	"strings"

	"feastline/infras/otel"
	"feastline/shared/constant"
	"feastline/shared/failure"
	"feastline/transport/http/response"
)

// Access resolves the embed access token that scopes every request to one business owner.
// The token is opaque here; the catalog and booking endpoints decide whether it is valid.
type Access interface {
	AccessToken(http.Handler) http.Handler
}

type accessImpl struct {
	otel otel.Otel
}

func NewAccessMiddleware(otel otel.Otel) Access {
	return &accessImpl{
		otel: otel,
	}
}

// AccessToken reads the token from the X-Access-Token header, or from the token query
// parameter for browser websocket clients that cannot set headers.
func (m *accessImpl) AccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "access_token.middleware")

		token := accessToken(request)
		if token == "" {
			err := failure.MissingAccessToken
			response.WithError(writer, err)

			scope.TraceError(err)
			scope.End()

			return
		}

		scope.SetAttribute("http.token_source", tokenSource(request))
		scope.End()

		ctx = context.WithValue(ctx, constant.ContextKeyAccessToken, token)

		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

func accessToken(request *http.Request) string {
	if token := strings.TrimSpace(request.Header.Get(constant.RequestHeaderAccessToken)); token != "" {
		return token
	}

	return strings.TrimSpace(request.URL.Query().Get(constant.RequestParamToken))
}

func tokenSource(request *http.Request) string {
	if request.Header.Get(constant.RequestHeaderAccessToken) != "" {
		return "header"
	}

	return "query"
}
