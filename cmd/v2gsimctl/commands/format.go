package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// sessionView mirrors internal/introspect's wire shape; kept as a
// separate type here since the CLI is a client over HTTP, not a Go
// package that can import the server's private type.
type sessionView struct {
	Peer         string    `json:"peer"`
	Protocol     string    `json:"protocol,omitempty"`
	SessionID    string    `json:"session_id,omitempty"`
	State        string    `json:"state"`
	Started      time.Time `json:"started"`
	LastActivity time.Time `json:"last_activity"`
}

func formatSessions(views []sessionView, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatSessionsJSON(views)
	case formatTable:
		return formatSessionsTable(views), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatSession(view sessionView, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatSessionJSON(view)
	case formatTable:
		return formatSessionDetail(view), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatSessionsTable(views []sessionView) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PEER\tPROTOCOL\tSTATE\tSESSION-ID\tSTARTED")

	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			v.Peer, valueOrDash(v.Protocol), v.State, valueOrDash(v.SessionID),
			v.Started.Format(time.RFC3339),
		)
	}

	_ = w.Flush()
	return buf.String()
}

func formatSessionDetail(v sessionView) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Peer:\t%s\n", v.Peer)
	fmt.Fprintf(w, "Protocol:\t%s\n", valueOrDash(v.Protocol))
	fmt.Fprintf(w, "Session ID:\t%s\n", valueOrDash(v.SessionID))
	fmt.Fprintf(w, "State:\t%s\n", v.State)
	fmt.Fprintf(w, "Started:\t%s\n", v.Started.Format(time.RFC3339))
	fmt.Fprintf(w, "Last Activity:\t%s\n", v.LastActivity.Format(time.RFC3339))

	_ = w.Flush()
	return buf.String()
}

func formatSessionsJSON(views []sessionView) (string, error) {
	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sessions to JSON: %w", err)
	}
	return string(data), nil
}

func formatSessionJSON(v sessionView) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal session to JSON: %w", err)
	}
	return string(data), nil
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
