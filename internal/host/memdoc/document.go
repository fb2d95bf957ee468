// Package memdoc is an in-memory design document implementing host.Host. The
// sandbox runs the plugin against it and the tests use it as the host.
package memdoc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/atomicstack/billboard/internal/host"
	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

var (
	ErrUnknownUndoBlock = errors.New("unknown undo block")
	ErrShapeNotFound    = errors.New("shape not found")
	ErrUnsupportedMedia = errors.New("unsupported media")
	ErrExportTooLarge   = errors.New("export exceeds maximum image size")
)

// PanelInfo records the last OpenPanel call.
type PanelInfo struct {
	Title string
	URL   string
	Size  host.Size
}

// UndoEntry is one undoable step in the history: either a finished undo block
// or a single mutation made outside any block.
type UndoEntry struct {
	// Block is empty for mutations recorded outside a block.
	Block host.UndoBlockID
	Ops   []string
}

type op struct {
	desc string
	undo func()
}

type undoBlock struct {
	id  host.UndoBlockID
	ops []op
}

type historyEntry struct {
	block host.UndoBlockID
	ops   []op
}

type asset struct {
	media host.Media
	data  []byte
}

// Document is safe for concurrent use. Event handlers run without the
// document lock held, so they may call back into the document.
type Document struct {
	mu        sync.Mutex
	shapes    []*rect
	media     map[string]*asset
	selection []string
	theme     string
	center    host.Point
	panel     *PanelInfo
	open      []*undoBlock
	history   []historyEntry
	handlers  map[host.EventName][]*subscription
}

type subscription struct {
	handler func(host.Event)
}

var _ host.Host = (*Document)(nil)

// New returns an empty document using theme as the initial host theme.
func New(theme string) *Document {
	return &Document{
		media:    make(map[string]*asset),
		theme:    theme,
		handlers: make(map[host.EventName][]*subscription),
	}
}

func (d *Document) OpenPanel(title, url string, size host.Size) error {
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("open panel %q: invalid size %dx%d", title, size.Width, size.Height)
	}
	d.mu.Lock()
	d.panel = &PanelInfo{Title: title, URL: url, Size: size}
	d.mu.Unlock()
	return nil
}

// Panel returns the most recently opened panel.
func (d *Document) Panel() (PanelInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.panel == nil {
		return PanelInfo{}, false
	}
	return *d.panel, true
}

func (d *Document) Theme() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.theme
}

// SetTheme changes the host theme and emits themechange.
func (d *Document) SetTheme(theme string) {
	d.mu.Lock()
	d.theme = theme
	d.mu.Unlock()
	d.emit(host.Event{Name: host.EventThemeChange, Theme: theme})
}

func (d *Document) BeginUndoBlock() host.UndoBlockID {
	id := host.UndoBlockID(uuid.NewString())
	d.mu.Lock()
	d.open = append(d.open, &undoBlock{id: id})
	d.mu.Unlock()
	return id
}

// FinishUndoBlock closes the block and commits its mutations as one history
// entry. Blocks may be finished out of order.
func (d *Document) FinishUndoBlock(id host.UndoBlockID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, b := range d.open {
		if b.id != id {
			continue
		}
		d.open = append(d.open[:i], d.open[i+1:]...)
		if len(b.ops) > 0 {
			d.history = append(d.history, historyEntry{block: b.id, ops: b.ops})
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownUndoBlock, id)
}

// OpenUndoBlocks reports how many undo blocks have not been finished.
func (d *Document) OpenUndoBlocks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.open)
}

// History lists committed undo entries, oldest first.
func (d *Document) History() []UndoEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]UndoEntry, 0, len(d.history))
	for _, h := range d.history {
		entry := UndoEntry{Block: h.block}
		for _, o := range h.ops {
			entry.Ops = append(entry.Ops, o.desc)
		}
		out = append(out, entry)
	}
	return out
}

// Undo reverts the most recent history entry. It reports false when the
// history is empty.
func (d *Document) Undo() bool {
	d.mu.Lock()
	if len(d.history) == 0 {
		d.mu.Unlock()
		return false
	}
	last := d.history[len(d.history)-1]
	d.history = d.history[:len(d.history)-1]
	selBefore := append([]string(nil), d.selection...)
	for i := len(last.ops) - 1; i >= 0; i-- {
		last.ops[i].undo()
	}
	changed := !equalIDs(selBefore, d.selection)
	d.mu.Unlock()
	if changed {
		d.emit(host.Event{Name: host.EventSelectionChange})
	}
	return true
}

// record must be called with d.mu held.
func (d *Document) record(desc string, undo func()) {
	o := op{desc: desc, undo: undo}
	if n := len(d.open); n > 0 {
		top := d.open[n-1]
		top.ops = append(top.ops, o)
		return
	}
	d.history = append(d.history, historyEntry{ops: []op{o}})
}

func (d *Document) CreateRectangle() (host.Shape, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := d.addRectLocked("Rectangle", 0, 0, 100, 100)
	return r, nil
}

// AddRectangle seeds the document with a named rectangle.
func (d *Document) AddRectangle(name string, x, y, width, height float64) host.Shape {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addRectLocked(name, x, y, width, height)
}

func (d *Document) addRectLocked(name string, x, y, width, height float64) *rect {
	r := &rect{doc: d, id: uuid.NewString(), name: name, x: x, y: y, w: width, h: height}
	d.shapes = append(d.shapes, r)
	d.record("create "+r.id, func() { d.removeLocked(r.id) })
	return r
}

func (d *Document) removeLocked(id string) {
	for i, s := range d.shapes {
		if s.id == id {
			d.shapes = append(d.shapes[:i], d.shapes[i+1:]...)
			break
		}
	}
	kept := d.selection[:0]
	for _, sel := range d.selection {
		if sel != id {
			kept = append(kept, sel)
		}
	}
	d.selection = kept
}

// Shapes returns the document's shapes in creation order.
func (d *Document) Shapes() []host.Shape {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]host.Shape, len(d.shapes))
	for i, s := range d.shapes {
		out[i] = s
	}
	return out
}

// ShapeNames returns the names of all shapes in creation order.
func (d *Document) ShapeNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.shapes))
	for i, s := range d.shapes {
		out[i] = s.name
	}
	return out
}

func (d *Document) shapeLocked(id string) *rect {
	for _, s := range d.shapes {
		if s.id == id {
			return s
		}
	}
	return nil
}

func (d *Document) Selection() []host.Shape {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]host.Shape, 0, len(d.selection))
	for _, id := range d.selection {
		if s := d.shapeLocked(id); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (d *Document) SetSelection(shapes []host.Shape) {
	ids := make([]string, 0, len(shapes))
	for _, s := range shapes {
		if s != nil {
			ids = append(ids, s.ID())
		}
	}
	d.selectIDs(ids)
}

// SelectByName selects every shape whose name is listed, in document order.
func (d *Document) SelectByName(names ...string) error {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	d.mu.Lock()
	var ids []string
	found := make(map[string]bool, len(names))
	for _, s := range d.shapes {
		if want[s.name] {
			ids = append(ids, s.id)
			found[s.name] = true
		}
	}
	d.mu.Unlock()
	for _, n := range names {
		if !found[n] {
			return fmt.Errorf("%w: %q", ErrShapeNotFound, n)
		}
	}
	d.selectIDs(ids)
	return nil
}

// SelectAll selects every shape in the document.
func (d *Document) SelectAll() {
	d.mu.Lock()
	ids := make([]string, len(d.shapes))
	for i, s := range d.shapes {
		ids[i] = s.id
	}
	d.mu.Unlock()
	d.selectIDs(ids)
}

// ClearSelection empties the selection.
func (d *Document) ClearSelection() {
	d.selectIDs(nil)
}

func (d *Document) selectIDs(ids []string) {
	d.mu.Lock()
	d.selection = ids
	d.mu.Unlock()
	d.emit(host.Event{Name: host.EventSelectionChange})
}

// Match returns the shape names fuzzily matching query, best match first.
func (d *Document) Match(query string) []string {
	names := d.ShapeNames()
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)
	out := make([]string, 0, len(ranks))
	seen := make(map[string]bool, len(ranks))
	for _, r := range ranks {
		if seen[r.Target] {
			continue
		}
		seen[r.Target] = true
		out = append(out, r.Target)
	}
	return out
}

func (d *Document) ViewportCenter() host.Point {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.center
}

// SetViewportCenter moves the viewport.
func (d *Document) SetViewportCenter(p host.Point) {
	d.mu.Lock()
	d.center = p
	d.mu.Unlock()
}

func (d *Document) On(name host.EventName, handler func(host.Event)) func() {
	if handler == nil {
		return func() {}
	}
	sub := &subscription{handler: handler}
	d.mu.Lock()
	d.handlers[name] = append(d.handlers[name], sub)
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.handlers[name] = slices.DeleteFunc(d.handlers[name], func(s *subscription) bool {
			return s == sub
		})
	}
}

// Subscribers reports how many handlers are registered for name.
func (d *Document) Subscribers(name host.EventName) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers[name])
}

func (d *Document) emit(evt host.Event) {
	d.mu.Lock()
	subs := slices.Clone(d.handlers[evt.Name])
	d.mu.Unlock()
	for _, sub := range subs {
		sub.handler(evt)
	}
}

// MediaData returns the bytes uploaded for a media handle.
func (d *Document) MediaData(id string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.media[id]
	if !ok {
		return nil, false
	}
	return a.data, true
}

func (d *Document) UploadMedia(ctx context.Context, name string, data []byte, mimeType string) (*host.Media, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	width, height, err := imageConfig(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", name, err)
	}
	m := host.Media{
		ID:       uuid.NewString(),
		Name:     name,
		MimeType: mimeType,
		Width:    width,
		Height:   height,
	}
	d.mu.Lock()
	d.media[m.ID] = &asset{media: m, data: append([]byte(nil), data...)}
	d.mu.Unlock()
	out := m
	return &out, nil
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
