// Package command implements the control-channel command set served on
// every session: greeting, login with lockout, and the handful of
// informational commands a client needs before it can do anything.
package command

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/text/encoding"

	ferrors "goftpd/internal/errors"
	"goftpd/internal/lockout"
	"goftpd/internal/metrics"
	"goftpd/internal/session"
	"goftpd/util"
)

// Interpreter runs the commands of one session.  Process is only called
// from the session's reader; DataTransferActive may be called from the
// watchdog at any time.
type Interpreter struct {
	id       uint64
	conn     net.Conn
	enc      encoding.Encoding
	tracker  lockout.Tracker
	accounts Accounts
	metrics  *metrics.Collector
	logger   *util.Logger
	host     string

	user     string
	loggedIn bool
	typ      string
}

// Options are the server-wide dependencies shared by all interpreters.
type Options struct {
	// Accounts is called once per session so that reloaded user tables
	// apply to new logins.
	Accounts func() Accounts
	Metrics  *metrics.Collector
	Logger   *util.Logger
}

// Factory returns a session.InterpreterFactory that builds Interpreters
// using opts.
func Factory(opts Options) session.InterpreterFactory {
	return func(id uint64, conn net.Conn, enc encoding.Encoding, tracker lockout.Tracker) session.Interpreter {
		var accounts Accounts = Users{}
		if opts.Accounts != nil {
			accounts = opts.Accounts()
		}
		return New(id, conn, enc, tracker, accounts, opts.Metrics, opts.Logger)
	}
}

// New creates an Interpreter that replies on conn.
func New(id uint64, conn net.Conn, enc encoding.Encoding, tracker lockout.Tracker,
	accounts Accounts, m *metrics.Collector, logger *util.Logger) *Interpreter {
	if logger == nil {
		logger = util.NewLogger(int(util.LogQuiet))
	}
	host := ""
	if a := conn.RemoteAddr(); a != nil {
		host = util.HostOf(a.String())
	}
	return &Interpreter{
		id:       id,
		conn:     conn,
		enc:      enc,
		tracker:  tracker,
		accounts: accounts,
		metrics:  m,
		logger:   logger.With("session", id),
		host:     host,
		typ:      "A",
	}
}

// Greet sends the service-ready banner.
func (in *Interpreter) Greet() error {
	return in.reply(220, "goftpd ready.")
}

// DataTransferActive always reports false: this command set opens no
// data connections.
func (in *Interpreter) DataTransferActive() bool { return false }

// Process executes one command line.
func (in *Interpreter) Process(line string) error {
	verb, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	verb = strings.ToUpper(verb)
	arg = strings.TrimSpace(arg)

	switch verb {
	case "":
		return in.reply(500, "Empty command.")
	case "USER":
		return in.cmdUser(arg)
	case "PASS":
		return in.cmdPass(arg)
	case "QUIT":
		if err := in.reply(221, "Goodbye."); err != nil {
			return err
		}
		return ferrors.ErrSessionEnd
	case "NOOP":
		return in.reply(200, "NOOP ok.")
	case "SYST":
		return in.reply(215, "UNIX Type: L8")
	case "FEAT":
		return in.reply(211, "No features.")
	}

	if !in.loggedIn {
		return in.reply(530, "Please login with USER and PASS.")
	}

	switch verb {
	case "PWD", "XPWD":
		return in.reply(257, `"/" is the current directory.`)
	case "TYPE":
		return in.cmdType(arg)
	case "STAT":
		return in.reply(211, fmt.Sprintf("Logged in as %s, TYPE %s.", in.user, in.typ))
	default:
		return in.reply(502, fmt.Sprintf("Command %s not implemented.", verb))
	}
}

func (in *Interpreter) cmdUser(name string) error {
	if name == "" {
		return in.reply(501, "Syntax: USER <name>.")
	}
	if in.tracker != nil && in.tracker.Blocked(in.host) {
		return in.blocked()
	}
	in.user = name
	in.loggedIn = false
	return in.reply(331, fmt.Sprintf("Password required for %s.", name))
}

func (in *Interpreter) cmdPass(password string) error {
	if in.user == "" {
		return in.reply(503, "Login with USER first.")
	}
	if in.loggedIn {
		return in.reply(230, "Already logged in.")
	}

	if in.accounts.Verify(in.user, password) {
		if in.tracker != nil {
			in.tracker.Succeed(in.host)
		}
		in.loggedIn = true
		in.logger.Info("user %s logged in from %s", in.user, in.host)
		return in.reply(230, fmt.Sprintf("User %s logged in.", in.user))
	}

	in.logger.Verbose("failed login for %s from %s", in.user, in.host)
	if in.tracker != nil && in.tracker.Fail(in.host) {
		return in.blocked()
	}
	return in.reply(530, "Login incorrect.")
}

func (in *Interpreter) cmdType(arg string) error {
	switch t := strings.ToUpper(arg); t {
	case "A", "I", "A N", "L 8":
		in.typ = t
		return in.reply(200, fmt.Sprintf("Type set to %s.", t))
	default:
		return in.reply(504, fmt.Sprintf("Type %s not supported.", arg))
	}
}

// blocked tells the client it is locked out and ends the session.
func (in *Interpreter) blocked() error {
	in.logger.Warn("host %s is locked out", in.host)
	if err := in.reply(421, "Too many failed logins, try again later."); err != nil {
		in.logger.Debug("lockout reply: %v", err)
	}
	return ferrors.ErrUserBlocked
}

func (in *Interpreter) reply(code int, text string) error {
	msg := fmt.Sprintf("%d %s\r\n", code, text)
	out := []byte(msg)
	if in.enc != nil {
		if b, err := in.enc.NewEncoder().Bytes(out); err == nil {
			out = b
		}
	}
	in.logger.Debug("-> %d %s", code, text)
	n, err := in.conn.Write(out)
	in.metrics.BytesSent(int64(n))
	return err
}
