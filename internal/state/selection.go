package state

// Selection mirrors the host selection in the panel. IsLoading is only true
// while a load-selection request is outstanding; the store itself does not
// enforce that.
type Selection struct {
	SelectedName *string
	IsLoading    bool
}

// Name returns the selected name, or "" when nothing (or many) is selected.
func (s Selection) Name() string {
	if s.SelectedName == nil {
		return ""
	}
	return *s.SelectedName
}

type SelectionStore interface {
	Get() Selection
	Set(Selection)
	Subscribe(func(Selection)) func()
	SetName(*string)
	SetLoading(bool)
}

type selectionStore struct {
	*Cell[Selection]
}

func NewSelectionStore() SelectionStore {
	return &selectionStore{Cell: NewCell(Selection{})}
}

func (s *selectionStore) SetName(name *string) {
	var dup *string
	if name != nil {
		v := *name
		dup = &v
	}
	s.Update(func(cur Selection) Selection {
		cur.SelectedName = dup
		return cur
	})
}

func (s *selectionStore) SetLoading(loading bool) {
	s.Update(func(cur Selection) Selection {
		cur.IsLoading = loading
		return cur
	})
}
