package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

var errAborted = errors.New("aborted by user")

// confirm prints msg and requires an explicit y/yes answer.
func confirm(cmdCtx *commandContext, msg string) error {
	if err := writef(cmdCtx.Out, "%s\nContinue? [y/N]: ", msg); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := cmdCtx.In.ReadString('\n')
	if err != nil && resp == "" {
		return errAborted
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errAborted
}

// guardRemoteHost refuses destructive commands against a non-local database unless
// --allow-remote was given and the operator types the host name back.
func guardRemoteHost(cmdCtx *commandContext, allow bool, action string) error {
	host := cmdCtx.Config.Postgres.Host
	if !isLikelyRemoteHost(host) {
		return nil
	}
	if !allow {
		return fmt.Errorf(
			"refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional",
			host,
		)
	}
	if err := writef(
		cmdCtx.Out,
		"\nWARNING: database host %q does not look like a local address.\nThis operation will %s.\nType %q to continue or press enter to abort: ",
		host, action, host,
	); err != nil {
		return fmt.Errorf("print remote host prompt: %w", err)
	}
	resp, err := cmdCtx.In.ReadString('\n')
	if err != nil && resp == "" {
		return errAborted
	}
	if strings.TrimSpace(resp) != host {
		return errAborted
	}
	return nil
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return false
	}
	if h == "localhost" || h == "127.0.0.1" || h == "::1" {
		return false
	}
	if strings.HasSuffix(h, ".local") {
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
