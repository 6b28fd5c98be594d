package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/AlexZinkM/evm-wallet/internal/common"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// classify maps a transport or JSON-RPC failure onto the wallet's error kinds.
// Transport errors quote the request URL, so their text is scrubbed by r
// before it is wrapped.
func classify(method string, err error, r *redactor) error {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		return &common.NodeError{Method: method, Code: rpcErr.Code, Message: rpcErr.Message}
	}

	var httpErr *jsonrpc.HTTPError
	if errors.As(err, &httpErr) {
		return &common.NodeError{Method: method, Code: httpErr.Code, Message: fmt.Sprintf("HTTP status %d", httpErr.Code)}
	}

	err = r.wrap(err)
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", method, common.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w: %w", method, common.ErrTimeout, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w: %w", method, common.ErrNetworkUnreachable, err)
	}

	// Anything left is a reply the client could not decode.
	return &common.NodeError{Method: method, Message: err.Error()}
}

// IsPreSendFailure reports whether err proves the request never left the host:
// the connection could not be dialed or the host name did not resolve.
// Only such failures are safe to retry for writes.
func IsPreSendFailure(err error) bool {
	if !errors.Is(err, common.ErrNetworkUnreachable) {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// redactor removes the credential-bearing parts of an endpoint URL (API key
// path, query, user info) from error text.
type redactor struct {
	replacer *strings.Replacer
}

func newRedactor(raw string) *redactor {
	redacted := redactEndpoint(raw)
	var pairs []string
	add := func(old, repl string) {
		if old != "" && old != repl {
			pairs = append(pairs, old, repl)
		}
	}

	add(raw, redacted)
	if u, err := url.Parse(raw); err == nil {
		add(u.String(), redacted)
		if u.User != nil {
			add(u.User.String(), "***")
			if pw, ok := u.User.Password(); ok {
				add(pw, "***")
			}
		}
		for _, p := range []string{u.EscapedPath(), u.Path} {
			if len(p) > 1 {
				add(p, "/<redacted>")
			}
		}
		add(u.RawQuery, "<redacted>")
	}
	return &redactor{replacer: strings.NewReplacer(pairs...)}
}

func (r *redactor) scrub(s string) string {
	if r == nil {
		return s
	}
	return r.replacer.Replace(s)
}

// wrap keeps err in the chain for errors.Is and errors.As but reports scrubbed text.
func (r *redactor) wrap(err error) error {
	return &redactedError{msg: r.scrub(err.Error()), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
