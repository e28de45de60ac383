package http

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const (
	swaggerUIPath  = "/swagger"
	swaggerDocPath = "/static/swagger.json"
)

//go:embed static/swagger.json
var swaggerDoc []byte

func (ht *HTTP) docRoutes(router chi.Router) {
	router.Get("/", redirectTo(swaggerUIPath))
	router.Get(swaggerDocPath, ht.SwaggerDoc)
	router.Get(swaggerUIPath, redirectTo(swaggerUIPath+"/index.html"))
	router.Get(swaggerUIPath+"/*", httpSwagger.Handler(httpSwagger.URL(swaggerDocPath)))
}

func redirectTo(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, path, http.StatusFound)
	}
}

// SwaggerDoc serves the OpenAPI (Swagger v2) document describing the item APIs
func (ht *HTTP) SwaggerDoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(swaggerDoc)
}
