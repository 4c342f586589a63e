package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samirrijal/poimap/internal/client/app"
	"github.com/samirrijal/poimap/internal/client/termmap"
)

var errQuit = errors.New("quit")

const helpText = `commands:
  click LAT LON     click empty map area (places or moves the draft)
  marker ID         click the marker of POI ID (opens the edit dialog)
  edit [ID]         show the edit dialog, or open it for POI ID
  title TEXT        set the title of the open form or dialog
  desc TEXT         set the description of the open form or dialog
  submit            submit the open form or dialog
  close             dismiss the open form or dialog
  list              toggle the POI list
  select ID         center the map on POI ID
  delete ID         delete POI ID
  retry             refetch the POI list
  style NAME        switch the map style
  quit              exit`

// shell maps text commands onto the client core.
type shell struct {
	app      *app.App
	renderer *termmap.Renderer
	out      io.Writer
}

func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmd))

	switch cmd {
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "quit", "exit":
		return errQuit
	case "click":
		return s.click(args)
	case "marker":
		if len(args) != 1 {
			return errors.New("usage: marker ID")
		}
		return s.clickMarker(args[0])
	case "edit":
		if len(args) == 1 {
			if err := s.clickMarker(args[0]); err != nil {
				return err
			}
		}
		s.printOverlay()
	case "title":
		return s.setField(rest, (*app.CreationForm).SetTitle, (*app.EditDialog).SetTitle)
	case "desc":
		return s.setField(rest, (*app.CreationForm).SetDescription, (*app.EditDialog).SetDescription)
	case "submit":
		return s.submit(ctx)
	case "close":
		switch {
		case s.app.Form().Open():
			s.app.Form().Dismiss()
		case s.app.Dialog().Open():
			s.app.Dialog().Close()
		default:
			return errors.New("nothing is open")
		}
	case "list":
		s.app.ToggleList()
		if s.app.List().Open() {
			s.printList()
		} else {
			fmt.Fprintln(s.out, "list closed")
		}
	case "select":
		if len(args) != 1 {
			return errors.New("usage: select ID")
		}
		return s.app.List().Select(args[0])
	case "delete":
		if len(args) != 1 {
			return errors.New("usage: delete ID")
		}
		if err := s.app.List().Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "deleted %s\n", args[0])
	case "retry", "refresh":
		if err := s.app.List().Retry(ctx); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%d POIs\n", len(s.app.List().Rows()))
	case "style":
		if len(args) != 1 {
			return errors.New("usage: style NAME")
		}
		s.app.SetStyle(args[0])
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func (s *shell) surface() (*termmap.Surface, error) {
	surf := s.renderer.Surface()
	if surf == nil || surf.Removed() {
		return nil, errors.New("map disabled")
	}
	return surf, nil
}

func (s *shell) click(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: click LAT LON")
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("longitude: %w", err)
	}
	surf, err := s.surface()
	if err != nil {
		return err
	}
	surf.Click(lat, lon)
	s.printOverlay()
	return nil
}

func (s *shell) clickMarker(id string) error {
	surf, err := s.surface()
	if err != nil {
		return err
	}
	el, ok := s.app.View().ElementFor(id)
	if !ok {
		return fmt.Errorf("no marker for POI %q", id)
	}
	surf.ClickMarker(el)
	return nil
}

func (s *shell) setField(value string, form func(*app.CreationForm, string), dialog func(*app.EditDialog, string)) error {
	switch {
	case s.app.Form().Open():
		form(s.app.Form(), value)
	case s.app.Dialog().Open():
		dialog(s.app.Dialog(), value)
	default:
		return errors.New("nothing is open")
	}
	return nil
}

func (s *shell) submit(ctx context.Context) error {
	switch {
	case s.app.Form().Open():
		if err := s.app.Form().Submit(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "created")
	case s.app.Dialog().Open():
		if err := s.app.Dialog().Submit(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "saved")
	default:
		return errors.New("nothing is open")
	}
	return nil
}

func (s *shell) printOverlay() {
	anchor := ""
	if pt, ok := s.app.Anchor(); ok {
		anchor = fmt.Sprintf(" @ %.0f,%.0f", pt.X, pt.Y)
	}

	switch sel := s.app.Selection(); sel.Kind {
	case app.SelectionDraft:
		f := s.app.Form()
		fmt.Fprintf(s.out, "[new POI at %.5f, %.5f%s] title=%q desc=%q\n",
			sel.Point.Lat, sel.Point.Lon, anchor, f.Title(), f.Description())
	case app.SelectionEditing:
		d := s.app.Dialog()
		fmt.Fprintf(s.out, "[edit %s at %.5f, %.5f%s] title=%q desc=%q\n",
			sel.POI.ID, sel.POI.Latitude, sel.POI.Longitude, anchor, d.Title(), d.Description())
		if msg := d.Err(); msg != "" {
			fmt.Fprintf(s.out, "  error: %s\n", msg)
		}
	default:
		fmt.Fprintln(s.out, "nothing is open")
	}
}

func (s *shell) printList() {
	l := s.app.List()
	switch {
	case l.Loading():
		fmt.Fprintln(s.out, "loading...")
		return
	case l.Err() != "":
		fmt.Fprintf(s.out, "error: %s (type retry)\n", l.Err())
	}

	rows := l.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(s.out, "no POIs yet")
		return
	}
	for _, p := range rows {
		fmt.Fprintf(s.out, "%s  %s  (%.5f, %.5f)\n", p.ID, p.Title, p.Latitude, p.Longitude)
		if p.Description != "" {
			fmt.Fprintf(s.out, "    %s\n", p.Description)
		}
	}
}
