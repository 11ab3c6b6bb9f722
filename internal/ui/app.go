package ui

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

var exportClient = &http.Client{Timeout: 30 * time.Second}

// RunApp shows the board window and blocks until it is closed. host is the
// address used for exports; shareLink, when set, is shown so others can join.
func RunApp(host, shareLink string, board *BoardWidget) {
	myApp := app.New()
	myWindow := myApp.NewWindow("Local Whiteboard")
	myWindow.Resize(fyne.NewSize(1024, 768))

	onExport := func() {
		save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, myWindow)
				return
			}
			if w == nil {
				return
			}
			if err := saveExport(host, w); err != nil {
				log.Printf("[UI] Export failed: %v", err)
				dialog.ShowError(err, myWindow)
				return
			}
			board.SetStatus("Exported to " + w.URI().Name())
		}, myWindow)
		save.SetFileName("board.pdf")
		save.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
		save.Show()
	}

	top := NewToolbar(board, onExport)
	var bottom fyne.CanvasObject = board.statusBar
	if shareLink != "" {
		link := widget.NewEntry()
		link.SetText(shareLink)
		bottom = container.NewBorder(nil, nil, widget.NewLabel("Share:"), board.statusBar, link)
	}

	myWindow.SetContent(container.NewBorder(top, bottom, nil, nil, container.NewScroll(board)))
	myWindow.ShowAndRun()
}

// saveExport downloads the host's PDF rendering of the board into w.
func saveExport(host string, w io.WriteCloser) error {
	defer w.Close()
	resp, err := exportClient.Get("http://" + host + "/export.pdf")
	if err != nil {
		return fmt.Errorf("failed to fetch export: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("export failed: host returned %s", resp.Status)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
