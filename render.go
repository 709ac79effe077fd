package main

import (
	"fmt"
	"io"

	"github.com/skyezerfox/mcstatus/connection"
	"github.com/skyezerfox/mcstatus/models"
	"github.com/skyezerfox/mcstatus/mojang"
)

func render(w io.Writer, format string, reports []connection.Report) error {
	switch format {
	case "json", "yaml":
		return encode(w, format, reports)
	case "text", "":
		for i := range reports {
			if err := printReport(w, &reports[i]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printReport(w io.Writer, r *connection.Report) error {
	s := r.Server
	header := fmt.Sprintf("%s (%s, %s)", s.Name, s.Edition, s.Address())
	if !r.Online() {
		_, err := fmt.Fprintf(w, "%s: %s: %s\n", header, r.Status, r.Error)
		return err
	}

	var err error
	switch {
	case r.Java != nil:
		j := r.Java
		_, err = fmt.Fprintf(w, "%s: online %.2fms\n  version: %s (protocol %d)\n  players: %d/%d\n  online:  %s\n  motd:    %s\n",
			header, j.LatencyMillis(), j.VersionName, j.ProtocolVersion,
			j.PlayersOnline, j.PlayersMax, models.FormatPlayerList(j.PlayerSample), j.MOTD)
	case r.Bedrock != nil:
		b := r.Bedrock
		_, err = fmt.Fprintf(w, "%s: online %.2fms\n  edition: %s %s (protocol %d)\n  players: %d/%d\n  mode:    %s\n  motd:    %s\n",
			header, b.LatencyMillis(), b.Edition, b.VersionName, b.ProtocolVersion,
			b.PlayersOnline, b.PlayersMax, b.Gamemode, b.MOTD)
	}
	if err != nil {
		return err
	}
	if s.WatchPlayer != "" {
		state := "not seen"
		if r.PlayerOnline {
			state = "online"
		}
		_, err = fmt.Fprintf(w, "  watch:   %s %s\n", s.WatchPlayer, state)
	}
	return err
}

func printLookup(w io.Writer, r *mojang.SearchResult) error {
	if !r.Found {
		_, err := fmt.Fprintf(w, "%s: not found\n", r.Username)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\n  uuid: %s\n", r.Username, r.UUID); err != nil {
		return err
	}
	if r.SkinURL != "" {
		if _, err := fmt.Fprintf(w, "  skin: %s\n", r.SkinURL); err != nil {
			return err
		}
	}
	for _, n := range r.NameHistory {
		if _, err := fmt.Fprintf(w, "  name: %s\n", n.Name); err != nil {
			return err
		}
	}
	return nil
}
