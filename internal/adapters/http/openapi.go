package httpadapter

import (
	_ "embed"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed openapi.yaml
var openapiSpec []byte

func serveOpenAPIDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapiSpec)
}

type requestValidator struct {
	router routers.Router
}

var (
	validatorOnce sync.Once
	validatorInst *requestValidator
	validatorErr  error
)

func loadRequestValidator() (*requestValidator, error) {
	validatorOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(openapiSpec)
		if err != nil {
			validatorErr = fmt.Errorf("load openapi document: %w", err)
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			validatorErr = fmt.Errorf("validate openapi document: %w", err)
			return
		}
		router, err := legacy.NewRouter(doc)
		if err != nil {
			validatorErr = fmt.Errorf("build openapi router: %w", err)
			return
		}
		validatorInst = &requestValidator{router: router}
	})
	return validatorInst, validatorErr
}

// middleware rejects requests that do not match the described operations.
// Paths the document does not describe are left to the mux.
func (v *requestValidator) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, pathParams, err := v.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				// Multipart bodies are streamed by the handler.
				ExcludeRequestBody: strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/"),
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: err.Error(),
				Code:  "invalid_request",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
