package events

import "github.com/atomicstack/billboard/internal/logging"

type RouterTracer struct{}

type CaptureTracer struct{}

type SelectionTracer struct{}

type BridgeTracer struct{}

type LoopTracer struct{}

type routerReason string

const (
	RouterReasonUnknown   routerReason = "unknown"
	RouterReasonMalformed routerReason = "malformed"
	RouterReasonOutbound  routerReason = "outbound-only"
)

var (
	Router    = RouterTracer{}
	Capture   = CaptureTracer{}
	Selection = SelectionTracer{}
	Bridge    = BridgeTracer{}
	Loop      = LoopTracer{}
)

func (RouterTracer) Receive(msgType string) {
	logging.Trace("router.receive", map[string]interface{}{"type": msgType})
}

func (RouterTracer) Ignore(msgType string, reason routerReason) {
	logging.Trace("router.ignore", map[string]interface{}{"type": msgType, "reason": string(reason)})
}

func (RouterTracer) Send(msgType string) {
	logging.Trace("router.send", map[string]interface{}{"type": msgType})
}

func (RouterTracer) Recovered(value interface{}) {
	logging.Trace("router.recovered", map[string]interface{}{"panic": value})
}

func (CaptureTracer) Begin(block string, width, height float64, size int) {
	logging.Trace("capture.begin", map[string]interface{}{
		"block":  block,
		"width":  width,
		"height": height,
		"bytes":  size,
	})
}

func (CaptureTracer) Uploaded(mediaID string) {
	logging.Trace("capture.uploaded", map[string]interface{}{"media": mediaID})
}

func (CaptureTracer) Placed(shapeID string, x, y, width, height float64) {
	logging.Trace("capture.placed", map[string]interface{}{
		"shape":  shapeID,
		"x":      x,
		"y":      y,
		"width":  width,
		"height": height,
	})
}

func (CaptureTracer) Finish(block string, err error) {
	payload := map[string]interface{}{"block": block}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("capture.finish", payload)
}

func (CaptureTracer) NotInitialized() {
	logging.Trace("capture.uninitialized", nil)
}

func (CaptureTracer) Registered() {
	logging.Trace("capture.registered", nil)
}

func (SelectionTracer) Export(shapeID, name string, scale float64) {
	logging.Trace("selection.export", map[string]interface{}{"shape": shapeID, "name": name, "scale": scale})
}

func (SelectionTracer) Empty() {
	logging.Trace("selection.empty", nil)
}

func (SelectionTracer) Loaded(shapeID string, size int) {
	logging.Trace("selection.loaded", map[string]interface{}{"shape": shapeID, "bytes": size})
}

func (SelectionTracer) Failed(shapeID string, err error) {
	logging.Trace("selection.failed", map[string]interface{}{"shape": shapeID, "error": err.Error()})
}

func (BridgeTracer) Subscribe(event string) {
	logging.Trace("bridge.subscribe", map[string]interface{}{"event": event})
}

func (BridgeTracer) Forward(event, msgType string) {
	logging.Trace("bridge.forward", map[string]interface{}{"event": event, "type": msgType})
}

func (LoopTracer) Post(kind string, depth int) {
	logging.Trace("loop.post", map[string]interface{}{"kind": kind, "depth": depth})
}

func (LoopTracer) Handle(kind string) {
	logging.Trace("loop.handle", map[string]interface{}{"kind": kind})
}

func (LoopTracer) Stop(dropped int) {
	logging.Trace("loop.stop", map[string]interface{}{"dropped": dropped})
}
