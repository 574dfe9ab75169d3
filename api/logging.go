package api

import (
	"net/http"

	"github.com/KBNLresearch/frame-generator/logger"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

var defaultLogger = logger.NewLogger("API")

type endpointLoggerFields struct {
	RequestID string `json:"request_id"`
	Method    string `json:"method"`
	Url       string `json:"url"`
	Remote    string `json:"remote"`
}

const RequestInfoFieldsKey = "request_info"

func makeRequestLogger(request *http.Request) zerolog.Logger {
	fields := endpointLoggerFields{
		RequestID: ulid.Make().String(),
		Method:    request.Method,
		Url:       request.URL.String(),
		Remote:    request.RemoteAddr,
	}
	return defaultLogger.
		With().Interface(RequestInfoFieldsKey, fields).Logger()
}
