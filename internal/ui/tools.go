package ui

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"localboard/internal/state"
)

var palette = []color.NRGBA{
	{A: 255},                 // black
	{R: 255, A: 255},         // red
	{G: 255, A: 255},         // green
	{B: 255, A: 255},         // blue
	{R: 255, G: 255, A: 255}, // yellow
}

var tools = []state.Kind{
	state.KindBrush, state.KindEraser, state.KindRect, state.KindCircle, state.KindLine, state.KindFill,
}

func colorToHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type colorSwatch struct {
	widget.BaseWidget
	Color    color.NRGBA
	OnTapped func(color.NRGBA)
}

func newColorSwatch(c color.NRGBA, tapped func(color.NRGBA)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// NewToolbar builds the tool, colour, width and style controls plus the
// history actions for board.
func NewToolbar(board *BoardWidget, onExport func()) fyne.CanvasObject {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = string(t)
	}
	toolPicker := widget.NewRadioGroup(names, func(name string) {
		board.SetTool(state.Kind(name))
	})
	toolPicker.Horizontal = true
	toolPicker.Required = true
	toolPicker.SetSelected(string(state.KindBrush))

	swatches := make([]fyne.CanvasObject, len(palette))
	for i, c := range palette {
		swatches[i] = newColorSwatch(c, func(c color.NRGBA) {
			board.SetColor(colorToHex(c))
		})
	}

	strokeSlider := widget.NewSlider(1, 50)
	strokeSlider.SetValue(5)
	strokeSlider.OnChanged = board.SetStroke
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), strokeSlider)

	styles := widget.NewSelect(
		[]string{string(state.LineSolid), string(state.LineDashed), string(state.LineDotted)},
		func(s string) { board.SetLineStyle(state.LineStyle(s)) },
	)
	styles.SetSelected(string(state.LineSolid))

	actions := widget.NewToolbar(
		widget.NewToolbarAction(theme.ContentUndoIcon(), board.Undo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), board.Redo),
		widget.NewToolbarAction(theme.DeleteIcon(), board.Clear),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), onExport),
	)

	return container.NewVBox(
		container.NewHBox(widget.NewLabel("Tool:"), toolPicker, layout.NewSpacer(), actions),
		container.NewHBox(
			widget.NewLabel("Color:"),
			container.NewHBox(swatches...),
			widget.NewSeparator(),
			widget.NewLabel("Size:"),
			sliderContainer,
			widget.NewSeparator(),
			widget.NewLabel("Style:"),
			styles,
			layout.NewSpacer(),
		),
	)
}
