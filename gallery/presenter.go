package gallery

// Presenter reflects gallery state on a rendering surface.
//
// Gallery calls these methods while holding its lock, so calls arrive in the
// same order as the mutations that caused them. Implementations must not call
// back into the Gallery from inside a Presenter method.
type Presenter interface {
	// AppendImage renders a newly appended item at the end of the list.
	AppendImage(item Item)
	// UpdateLimitCounter refreshes the "count / max" indicator. max is 0 when unlimited.
	UpdateLimitCounter(count, max int)
	// ShowAddControl re-enables the add control after capacity frees up.
	ShowAddControl()
	// HideAddControl hides the add control once capacity is exhausted.
	HideAddControl()
	// FillCaption sets the gallery caption input.
	FillCaption(text string)
	// Clear removes every rendered item before the list is replayed.
	Clear()
}

// NopPresenter ignores every call. It is used when a Gallery runs headless.
type NopPresenter struct{}

func (NopPresenter) AppendImage(Item)            {}
func (NopPresenter) UpdateLimitCounter(int, int) {}
func (NopPresenter) ShowAddControl()             {}
func (NopPresenter) HideAddControl()             {}
func (NopPresenter) FillCaption(string)          {}
func (NopPresenter) Clear()                      {}
