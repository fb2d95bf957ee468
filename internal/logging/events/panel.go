package events

import "github.com/atomicstack/billboard/internal/logging"

type PanelTracer struct{}

type TransportTracer struct{}

var (
	Panel     = PanelTracer{}
	Transport = TransportTracer{}
)

func (PanelTracer) Receive(msgType string) {
	logging.Trace("panel.receive", map[string]interface{}{"type": msgType})
}

func (PanelTracer) Send(msgType string) {
	logging.Trace("panel.send", map[string]interface{}{"type": msgType})
}

func (PanelTracer) Slider(name string, value float64) {
	logging.Trace("panel.slider", map[string]interface{}{"name": name, "value": value})
}

func (PanelTracer) Theme(theme string) {
	logging.Trace("panel.theme", map[string]interface{}{"theme": theme})
}

func (PanelTracer) LoadTimeout(seq int) {
	logging.Trace("panel.load.timeout", map[string]interface{}{"seq": seq})
}

func (PanelTracer) HostControl(action, arg string) {
	logging.Trace("panel.host", map[string]interface{}{"action": action, "arg": arg})
}

func (TransportTracer) Connect(kind, addr string) {
	logging.Trace("transport.connect", map[string]interface{}{"kind": kind, "addr": addr})
}

func (TransportTracer) Close(kind string, err error) {
	payload := map[string]interface{}{"kind": kind}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("transport.close", payload)
}

func (TransportTracer) Invalid(kind string, err error) {
	logging.Trace("transport.invalid", map[string]interface{}{"kind": kind, "error": err.Error()})
}
