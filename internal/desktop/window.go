package desktop

import (
	"context"
	"image"
	"image/color"
	"os"

	"gioui.org/app"
	"gioui.org/font"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/charmbracelet/log"

	"todolist/internal/config"
	"todolist/pkg/task"
)

var (
	colorBg      = color.NRGBA{R: 0x1E, G: 0x1E, B: 0x2E, A: 0xFF}
	colorSurface = color.NRGBA{R: 0x2A, G: 0x2A, B: 0x3C, A: 0xFF}
	colorAccent  = color.NRGBA{R: 0xFF, G: 0x6B, B: 0x6B, A: 0xFF}
	colorMuted   = color.NRGBA{R: 0x3A, G: 0x3A, B: 0x4C, A: 0xFF}
	colorDate    = color.NRGBA{R: 0xA5, G: 0xA5, B: 0xA5, A: 0xFF}
	colorHint    = color.NRGBA{R: 0x6C, G: 0x6C, B: 0x7C, A: 0xFF}
	colorWhite   = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// row holds the widgets of one task, keyed by task ID so widget state
// follows the task when rows above it are deleted.
type row struct {
	done   widget.Bool
	delete widget.Clickable
}

// UI is the window state.
type UI struct {
	binding *Binding
	theme   *material.Theme
	logger  *log.Logger

	input     widget.Editor
	addBtn    widget.Clickable
	list      widget.List
	rows      map[string]*row
	selectAll widget.Clickable
	deselect  widget.Clickable
	deleteSel widget.Clickable

	snap    Snapshot
	lastErr string
}

// NewUI creates the window state for binding.
func NewUI(binding *Binding, logger *log.Logger) *UI {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	th.Palette.Bg = colorBg
	th.Palette.Fg = colorWhite
	th.Palette.ContrastBg = colorAccent
	th.Palette.ContrastFg = colorWhite

	ui := &UI{
		binding: binding,
		theme:   th,
		logger:  logger,
		rows:    make(map[string]*row),
	}
	ui.list.Axis = layout.Vertical
	ui.input.SingleLine = true
	ui.input.Submit = true
	ui.snap = binding.Snapshot()
	return ui
}

// Run opens the window and blocks in app.Main until it is closed. The
// process exits with the window, so store is closed here first.
func Run(store *task.Store, cfg *config.Config, logger *log.Logger) {
	binding := NewBinding(store, logger)
	ui := NewUI(binding, logger)

	go func() {
		w := new(app.Window)
		w.Option(app.Title(cfg.Window.Title))
		w.Option(app.Size(unit.Dp(cfg.Window.Width), unit.Dp(cfg.Window.Height)))

		changes := store.Subscribe()
		go func() {
			for range changes {
				w.Invalidate()
			}
		}()

		err := ui.run(w)
		store.Unsubscribe(changes)
		binding.Close()
		if err != nil {
			logger.Fatal("window", "err", err)
		}
		os.Exit(0)
	}()
	app.Main()
}

func (ui *UI) run(w *app.Window) error {
	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			ui.update(gtx)
			ui.layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

// update processes the frame's input. handle stops at the first
// mutation since positions after it are stale.
func (ui *UI) update(gtx layout.Context) {
	changed, err := ui.handle(context.Background(), gtx)
	switch {
	case err != nil:
		ui.lastErr = err.Error()
	case changed:
		ui.lastErr = ""
	}
	ui.snap = ui.binding.Snapshot()
	if changed || err != nil {
		gtx.Execute(op.InvalidateCmd{})
	}
}

func (ui *UI) handle(ctx context.Context, gtx layout.Context) (bool, error) {
	submitted := false
	for {
		ev, ok := ui.input.Update(gtx)
		if !ok {
			break
		}
		if _, ok := ev.(widget.SubmitEvent); ok {
			submitted = true
		}
	}
	if ui.addBtn.Clicked(gtx) || submitted {
		stored, err := ui.binding.Add(ctx, ui.input.Text())
		if stored {
			ui.input.SetText("")
		}
		return stored, err
	}

	for i, t := range ui.snap.Tasks {
		r := ui.row(t.ID)
		if r.done.Update(gtx) {
			return true, ui.binding.Toggle(ctx, i)
		}
		if r.delete.Clicked(gtx) {
			return true, ui.binding.Delete(ctx, i)
		}
	}

	switch {
	case ui.selectAll.Clicked(gtx):
		return true, ui.binding.SelectAll(ctx)
	case ui.deselect.Clicked(gtx):
		return true, ui.binding.DeselectAll(ctx)
	case ui.deleteSel.Clicked(gtx):
		return true, ui.binding.DeleteSelected(ctx)
	}
	return false, nil
}

func (ui *UI) row(id string) *row {
	r, ok := ui.rows[id]
	if !ok {
		r = &row{}
		ui.rows[id] = r
	}
	return r
}

// pruneRows drops widget state of tasks that no longer exist.
func (ui *UI) pruneRows() {
	live := make(map[string]bool, len(ui.snap.Tasks))
	for _, t := range ui.snap.Tasks {
		live[t.ID] = true
	}
	for id := range ui.rows {
		if !live[id] {
			delete(ui.rows, id)
		}
	}
}

func (ui *UI) layout(gtx layout.Context) layout.Dimensions {
	ui.pruneRows()
	paint.Fill(gtx.Ops, colorBg)
	th := ui.theme

	return layout.UniformInset(unit.Dp(20)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					label := material.H5(th, "Enhanced To-Do List")
					label.Font.Weight = font.Bold
					return label.Layout(gtx)
				})
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(15)}.Layout),
			layout.Rigid(ui.layoutInput),
			layout.Rigid(layout.Spacer{Height: unit.Dp(10)}.Layout),
			layout.Flexed(1, ui.layoutTasks),
			layout.Rigid(layout.Spacer{Height: unit.Dp(5)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Center.Layout(gtx, material.Body1(th, ui.snap.Stats.String()).Layout)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if ui.lastErr == "" {
					return layout.Dimensions{}
				}
				label := material.Caption(th, ui.lastErr)
				label.Color = colorAccent
				return layout.Center.Layout(gtx, label.Layout)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(10)}.Layout),
			layout.Rigid(ui.layoutBulk),
		)
	})
}

func (ui *UI) layoutInput(gtx layout.Context) layout.Dimensions {
	th := ui.theme
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return surface(gtx, colorSurface, 20, func(gtx layout.Context) layout.Dimensions {
				return layout.Inset{Top: unit.Dp(10), Bottom: unit.Dp(10), Left: unit.Dp(16), Right: unit.Dp(16)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					ed := material.Editor(th, &ui.input, "Enter a task")
					ed.Color = colorWhite
					ed.HintColor = colorHint
					ed.TextSize = unit.Sp(18)
					return ed.Layout(gtx)
				})
			})
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(10)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			btn := material.Button(th, &ui.addBtn, "Add Task")
			btn.Background = colorAccent
			btn.CornerRadius = unit.Dp(20)
			return btn.Layout(gtx)
		}),
	)
}

func (ui *UI) layoutTasks(gtx layout.Context) layout.Dimensions {
	th := ui.theme
	return surface(gtx, colorSurface, 10, func(gtx layout.Context) layout.Dimensions {
		gtx.Constraints.Min = gtx.Constraints.Max
		return layout.UniformInset(unit.Dp(8)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return material.List(th, &ui.list).Layout(gtx, len(ui.snap.Tasks), func(gtx layout.Context, i int) layout.Dimensions {
				t := ui.snap.Tasks[i]
				r := ui.row(t.ID)
				r.done.Value = t.Completed
				return layout.Inset{Top: unit.Dp(5), Bottom: unit.Dp(5)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
						layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
							cb := material.CheckBox(th, &r.done, t.Text)
							cb.Color = colorWhite
							cb.IconColor = colorAccent
							cb.TextSize = unit.Sp(18)
							return cb.Layout(gtx)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Body2(th, t.CreatedAt.Local().Format("2006-01-02 15:04"))
							label.Color = colorDate
							return layout.Inset{Left: unit.Dp(10), Right: unit.Dp(10)}.Layout(gtx, label.Layout)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							btn := material.Button(th, &r.delete, "✕")
							btn.Background = color.NRGBA{A: 0}
							btn.Color = colorAccent
							return btn.Layout(gtx)
						}),
					)
				})
			})
		})
	})
}

func (ui *UI) layoutBulk(gtx layout.Context) layout.Dimensions {
	th := ui.theme
	bulk := func(c *widget.Clickable, label string, bg color.NRGBA) layout.FlexChild {
		return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Left: unit.Dp(5), Right: unit.Dp(5)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				btn := material.Button(th, c, label)
				btn.Background = bg
				return btn.Layout(gtx)
			})
		})
	}
	return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{}.Layout(gtx,
			bulk(&ui.selectAll, "Select All", colorMuted),
			bulk(&ui.deselect, "Deselect All", colorMuted),
			bulk(&ui.deleteSel, "Delete Selected", colorAccent),
		)
	})
}

// surface draws a rounded rectangle of the given color behind w.
func surface(gtx layout.Context, bg color.NRGBA, radius unit.Dp, w layout.Widget) layout.Dimensions {
	return layout.Background{}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			rect := image.Rectangle{Max: gtx.Constraints.Min}
			defer clip.UniformRRect(rect, gtx.Dp(radius)).Push(gtx.Ops).Pop()
			paint.Fill(gtx.Ops, bg)
			return layout.Dimensions{Size: gtx.Constraints.Min}
		},
		w,
	)
}
