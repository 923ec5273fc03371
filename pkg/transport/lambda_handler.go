package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"
)

// LambdaHandler adapta eventos do API Gateway para o mesmo http.Handler usado
// no modo local, mantendo roteamento, middlewares e respostas idênticos.
type LambdaHandler struct {
	handler http.Handler
}

// NewLambdaHandler cria uma nova instância do adaptador
func NewLambdaHandler(handler http.Handler) *LambdaHandler {
	return &LambdaHandler{handler: handler}
}

// Handle processa a requisição Lambda
func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	httpReq, err := toHTTPRequest(ctx, req)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("evento API Gateway inválido")
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"detail":"invalid request"}`,
		}, nil
	}

	rec := newResponseBuffer()
	h.handler.ServeHTTP(rec, httpReq)

	headers := make(map[string]string, len(rec.header))
	multi := make(map[string][]string, len(rec.header))
	for k, v := range rec.header {
		if len(v) > 0 {
			headers[k] = strings.Join(v, ", ")
			multi[k] = v
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode:        rec.code,
		Headers:           headers,
		MultiValueHeaders: multi,
		Body:              rec.body.String(),
	}, nil
}

func toHTTPRequest(ctx context.Context, req events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return nil, fmt.Errorf("body base64 inválido: %w", err)
		}
		body = decoded
	}

	query := url.Values{}
	for k, v := range req.MultiValueQueryStringParameters {
		query[k] = append([]string(nil), v...)
	}
	for k, v := range req.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}

	u := url.URL{Path: req.Path, RawQuery: query.Encode()}
	method := req.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range req.MultiValueHeaders {
		for _, item := range v {
			httpReq.Header.Add(k, item)
		}
	}
	for k, v := range req.Headers {
		if httpReq.Header.Get(k) == "" {
			httpReq.Header.Set(k, v)
		}
	}
	return httpReq, nil
}

// responseBuffer acumula a resposta do handler para o evento de saída.
type responseBuffer struct {
	header http.Header
	body   bytes.Buffer
	code   int
	wrote  bool
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header), code: http.StatusOK}
}

func (r *responseBuffer) Header() http.Header { return r.header }

func (r *responseBuffer) WriteHeader(code int) {
	if r.wrote {
		return
	}
	r.code = code
	r.wrote = true
}

func (r *responseBuffer) Write(b []byte) (int, error) {
	r.wrote = true
	return r.body.Write(b)
}
