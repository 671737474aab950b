package command

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/encoding/charmap"

	ferrors "goftpd/internal/errors"
	"goftpd/internal/lockout"
	"goftpd/internal/metrics"
)

func testUsers(t *testing.T) Users {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return Users{"alice": string(h)}
}

type client struct {
	t       *testing.T
	replies chan string
}

// newPair returns an interpreter writing into one end of a pipe and a
// client collecting reply lines from the other end.
func newPair(t *testing.T, tracker lockout.Tracker, m *metrics.Collector) (*Interpreter, *client) {
	t.Helper()
	server, peer := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		peer.Close()
	})

	c := &client{t: t, replies: make(chan string, 16)}
	go func() {
		sc := bufio.NewScanner(peer)
		for sc.Scan() {
			c.replies <- sc.Text()
		}
		close(c.replies)
	}()

	return New(1, server, nil, tracker, testUsers(t), m, nil), c
}

func (c *client) next() string {
	c.t.Helper()
	select {
	case r := <-c.replies:
		return r
	case <-time.After(2 * time.Second):
		c.t.Fatal("no reply")
		return ""
	}
}

func TestInterpreter_Greet(t *testing.T) {
	in, c := newPair(t, nil, nil)
	require.NoError(t, in.Greet())
	assert.Equal(t, "220 goftpd ready.\r", c.next())
}

func TestInterpreter_Login(t *testing.T) {
	m := metrics.New()
	in, c := newPair(t, nil, m)

	require.NoError(t, in.Process("USER alice"))
	assert.Equal(t, "331 Password required for alice.\r", c.next())

	require.NoError(t, in.Process("PASS s3cret"))
	assert.Equal(t, "230 User alice logged in.\r", c.next())

	require.NoError(t, in.Process("pwd"))
	assert.Equal(t, `257 "/" is the current directory.`+"\r", c.next())

	require.NoError(t, in.Process("TYPE i"))
	assert.Equal(t, "200 Type set to I.\r", c.next())

	require.NoError(t, in.Process("STAT"))
	assert.Equal(t, "211 Logged in as alice, TYPE I.\r", c.next())

	assert.Positive(t, m.TotalBytesOut())
}

func TestInterpreter_RequiresLogin(t *testing.T) {
	in, c := newPair(t, nil, nil)

	require.NoError(t, in.Process("PWD"))
	assert.Equal(t, "530 Please login with USER and PASS.\r", c.next())

	require.NoError(t, in.Process("PASS s3cret"))
	assert.Equal(t, "503 Login with USER first.\r", c.next())
}

func TestInterpreter_AlwaysAvailable(t *testing.T) {
	in, c := newPair(t, nil, nil)

	require.NoError(t, in.Process("NOOP"))
	assert.Equal(t, "200 NOOP ok.\r", c.next())
	require.NoError(t, in.Process("syst"))
	assert.Equal(t, "215 UNIX Type: L8\r", c.next())
	require.NoError(t, in.Process("FEAT"))
	assert.Equal(t, "211 No features.\r", c.next())
	require.NoError(t, in.Process("   "))
	assert.Equal(t, "500 Empty command.\r", c.next())
}

func TestInterpreter_Unimplemented(t *testing.T) {
	in, c := newPair(t, nil, nil)
	require.NoError(t, in.Process("USER alice"))
	c.next()
	require.NoError(t, in.Process("PASS s3cret"))
	c.next()

	require.NoError(t, in.Process("RETR file.bin"))
	assert.Equal(t, "502 Command RETR not implemented.\r", c.next())
	assert.False(t, in.DataTransferActive())
}

func TestInterpreter_Quit(t *testing.T) {
	in, c := newPair(t, nil, nil)
	err := in.Process("QUIT")
	assert.ErrorIs(t, err, ferrors.ErrSessionEnd)
	assert.Equal(t, "221 Goodbye.\r", c.next())
}

func TestInterpreter_WrongPassword(t *testing.T) {
	in, c := newPair(t, nil, nil)
	require.NoError(t, in.Process("USER alice"))
	c.next()
	require.NoError(t, in.Process("PASS guess"))
	assert.Equal(t, "530 Login incorrect.\r", c.next())

	require.NoError(t, in.Process("PWD"))
	assert.Equal(t, "530 Please login with USER and PASS.\r", c.next())
}

func TestInterpreter_LockoutAfterFailures(t *testing.T) {
	tracker := lockout.New(lockout.Config{MaxFailures: 2, Window: time.Minute, Duration: time.Hour})
	in, c := newPair(t, tracker, nil)

	require.NoError(t, in.Process("USER alice"))
	c.next()
	require.NoError(t, in.Process("PASS one"))
	assert.Equal(t, "530 Login incorrect.\r", c.next())

	err := in.Process("PASS two")
	assert.ErrorIs(t, err, ferrors.ErrUserBlocked)
	assert.Equal(t, "421 Too many failed logins, try again later.\r", c.next())
	assert.True(t, tracker.Blocked("pipe"))
}

func TestInterpreter_BlockedHostCannotStartLogin(t *testing.T) {
	tracker := lockout.New(lockout.Config{MaxFailures: 1, Window: time.Minute, Duration: time.Hour})
	tracker.Fail("pipe")

	in, c := newPair(t, tracker, nil)
	err := in.Process("USER alice")
	assert.True(t, ferrors.IsBlocked(err))
	assert.Equal(t, "421 Too many failed logins, try again later.\r", c.next())
}

func TestInterpreter_EncodesReplies(t *testing.T) {
	server, peer := net.Pipe()
	defer server.Close()
	defer peer.Close()

	in := New(1, server, charmap.Windows1251, nil, Users{}, nil, nil)
	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := peer.Read(buf)
		got <- buf[:n]
	}()

	require.NoError(t, in.Process("USER Иван"))
	b := <-got
	assert.Equal(t, []byte("331 Password required for \xc8\xe2\xe0\xed.\r\n"), b)
}

func TestUsers_Verify(t *testing.T) {
	u := testUsers(t)
	assert.True(t, u.Verify("alice", "s3cret"))
	assert.True(t, u.Verify("ALICE", "s3cret"))
	assert.False(t, u.Verify("alice", "S3cret"))
	assert.False(t, u.Verify("mallory", "s3cret"))
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, Users{"bob": h}.Verify("bob", "hunter2"))
}
