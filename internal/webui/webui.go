// Package webui serves the debug pages for inspecting the loaded flex network.
package webui

import (
	"net/http"

	"flex.onebusaway.org/internal/app"
)

type WebUI struct {
	*app.Application
}

func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug/", webUI.debugIndexHandler)
}
