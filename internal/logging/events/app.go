package events

import "github.com/atomicstack/billboard/internal/logging"

type AppTracer struct{}

var App = AppTracer{}

func (AppTracer) Start(payload map[string]interface{}) {
	logging.Trace("app.start", payload)
}

func (AppTracer) Mode(mode string) {
	logging.Trace("app.mode", map[string]interface{}{"mode": mode})
}

func (AppTracer) PanelOpened(title, url string, width, height int) {
	logging.Trace("app.panel.open", map[string]interface{}{
		"title":  title,
		"url":    url,
		"width":  width,
		"height": height,
	})
}
