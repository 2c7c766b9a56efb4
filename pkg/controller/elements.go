package controller

import "github.com/Sternrassler/product-search/pkg/render"

// SearchInput is the search box.
type SearchInput interface {
	// Value returns the current text.
	Value() string
	// OnInput registers a handler called after every edit.
	OnInput(handler func())
}

// TableBody receives rendered result rows.
type TableBody interface {
	Clear()
	AppendRow(row render.Row)
}

// Button is a pagination control. SetDisabled toggles the disabled state of
// the control's container.
type Button interface {
	OnClick(handler func())
	SetDisabled(disabled bool)
}

// Label displays a page number.
type Label interface {
	Text() string
	SetText(text string)
}

// Elements are the page elements the controller drives. Every field is
// optional; a nil element disables the features bound to it.
type Elements struct {
	SearchBox   SearchInput
	TableBody   TableBody
	PrevButton  Button
	NextButton  Button
	CurrentPage Label
	TotalPages  Label
}
