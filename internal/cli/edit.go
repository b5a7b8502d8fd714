package cli

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cooketh/flow/pkg/canvas"
	"github.com/cooketh/flow/pkg/collab"
	"github.com/cooketh/flow/pkg/diagram"
	"github.com/cooketh/flow/pkg/errors"
	"github.com/cooketh/flow/pkg/storage"
)

// editCommand creates the edit command, the interactive terminal editor.
func (c *CLI) editCommand() *cobra.Command {
	var share bool

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Open a map in the terminal editor",
		Long: `Open a stored map in the interactive terminal editor.

Without an ID a picker lists the workspace. Changes are saved
automatically after a short quiet period and when the editor closes.

Mouse: drag nodes, drag a node's bottom-right corner to resize it,
ctrl+drag from one node to another to connect them, double-click an
edge label to rename it.

Keys: n add node, e rename node, 1-4 layout (mindmap, tree, flowchart,
concept), ctrl+z/ctrl+y undo/redo, delete remove, ctrl+s sticky note,
alt+t text, ctrl+r fit, ctrl+a/ctrl+p pan/pointer tool, arrows pan,
+/- zoom, q quit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if share && c.cfg.Collab.Backend != "redis" {
				return errors.New(errors.ErrCodeInvalidInput, "--share needs collab.backend = \"redis\"")
			}
			return c.withWorkspace(ctx, func(ws *storage.Workspace) error {
				id := ""
				if len(args) == 1 {
					id = args[0]
				} else {
					var err error
					if id, err = c.pickDocument(ctx, ws); err != nil || id == "" {
						return err
					}
				}
				return c.runEditor(ctx, ws, id, share)
			})
		},
	}

	cmd.Flags().BoolVar(&share, "share", false, "show other editors' cursors and share yours")
	return cmd
}

// pickDocument lets the user choose a map, or create one. It returns ""
// when the picker is dismissed.
func (c *CLI) pickDocument(ctx context.Context, ws *storage.Workspace) (string, error) {
	list, err := ws.List(ctx)
	if err != nil {
		return "", err
	}
	final, err := tea.NewProgram(NewDocListModel(list)).Run()
	if err != nil {
		return "", err
	}
	m := final.(DocListModel)
	switch {
	case m.New:
		doc, err := ws.Create(ctx, diagram.Document{})
		if err != nil {
			return "", err
		}
		return doc.ID, nil
	case m.Selected != nil:
		return m.Selected.ID, nil
	}
	return "", nil
}

func (c *CLI) runEditor(ctx context.Context, ws *storage.Workspace, id string, share bool) error {
	stored, err := ws.Load(ctx, id)
	if err != nil {
		return err
	}

	// The terminal belongs to the editor while it runs.
	logger := newLogger(io.Discard, c.Logger.GetLevel())
	ref := &programRef{}

	var (
		ctrl     *canvas.Controller
		notify   func(context.Context, diagram.Graph)
		presence *collab.Presence
		pointer  func(diagram.Point)
	)
	saver := canvas.NewAutosaver(func(ctx context.Context, doc diagram.Document) error {
		if _, err := ws.Update(ctx, id, doc); err != nil {
			return err
		}
		if notify != nil {
			notify(ctx, doc.Graph)
		}
		return nil
	},
		canvas.WithQuietWindow(c.cfg.Editor.AutosaveWindow),
		canvas.WithAutosaveLogger(logger),
		canvas.WithStatusNotify(func(s canvas.SaveStatus) { ref.send(saveStatusMsg(s)) }),
	)
	defer saver.Stop()

	ctrl = canvas.New(
		canvas.WithLogger(logger),
		canvas.OnChange(func(string) { saver.Touch(ctrl.Document()) }),
	)
	ctrl.Load(stored.Diagram())

	if share {
		rdb := c.redisClient()
		defer rdb.Close()
		ch := collab.NewRedisChannel(rdb, collab.WithRedisPrefix(c.cfg.Redis.Prefix), collab.WithRedisLogger(logger))

		self := collab.Cursor{UserID: diagram.NewID("user"), UserName: c.cfg.Editor.UserName}
		if self.UserName == "" {
			self.UserName = "Guest"
		}
		self.Color = collab.ColorFor(self.UserID)
		presence = collab.NewPresence(self.UserID, collab.WithStaleAfter(c.cfg.Editor.CursorStaleAfter))

		sub, err := ch.Subscribe(ctx, id,
			func(diagram.Graph) { ref.send(remoteGraphMsg{}) },
			func(cur collab.Cursor) {
				if presence.Update(cur) {
					ref.send(remoteCursorMsg{})
				}
			})
		if err != nil {
			return err
		}
		defer sub.Close()

		outCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		outbox := collab.NewOutbox(collab.DefaultOutboxSize, func(ctx context.Context, m collab.Message) error {
			return ch.SendCursor(ctx, sub, *m.Cursor)
		}, collab.WithOutboxLogger(logger))
		go outbox.Run(outCtx)

		pointer = func(p diagram.Point) {
			cur := self
			cur.X, cur.Y, cur.LastActive = p.X, p.Y, time.Now()
			outbox.Offer(collab.Message{Kind: collab.KindCursor, DocID: id, Cursor: &cur})
		}
		notify = func(ctx context.Context, g diagram.Graph) {
			if err := ch.SendGraph(ctx, sub, g); err != nil {
				logger.Debug("graph notify failed", "err", err)
			}
		}
	}

	model := newEditorModel(ctx, ctrl, saver)
	model.presence = presence
	model.pointer = pointer

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithReportFocus())
	ref.set(p)
	if _, err := p.Run(); err != nil {
		return err
	}
	ref.set(nil)

	if err := saver.Flush(ctx); err != nil {
		printError("Could not save %s: %v", stored.Title, err)
		return err
	}
	printSuccess("Saved %s", StyleHighlight.Render(ctrl.Document().Title))
	printStats(len(ctrl.Graph().Nodes), len(ctrl.Graph().Edges), sourceSaved)
	return nil
}
