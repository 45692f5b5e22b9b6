package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
)

// DefaultFTPPort is the control port used when FTPOptions.Port is zero.
const DefaultFTPPort = 21

// FTPOptions describes an FTP login.
type FTPOptions struct {
	Host     string
	Port     int
	User     string
	Password string
	// Timeout bounds the dial. Zero uses the Client timeout.
	Timeout time.Duration
	// DisableEPSV forces PASV for servers that mishandle EPSV. It is
	// implied when a proxy is used, since EPSV replies carry no address.
	DisableEPSV bool
}

// Address returns host:port.
func (o FTPOptions) Address() string {
	port := o.Port
	if port == 0 {
		port = DefaultFTPPort
	}
	return net.JoinHostPort(o.Host, strconv.Itoa(port))
}

// FTPSession is a logged-in FTP control connection. It is not safe for
// concurrent use beyond Close.
type FTPSession struct {
	mu   sync.Mutex
	conn *ftp.ServerConn
	addr string
}

// DialFTP connects to the server through the Client dialer and logs in.
func (c *Client) DialFTP(ctx context.Context, opts FTPOptions) (*FTPSession, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	addr := opts.Address()
	disableEPSV := opts.DisableEPSV || c.proxyAddress != ""

	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(timeout),
		ftp.DialWithDisabledEPSV(disableEPSV),
		ftp.DialWithDialFunc(func(network, address string) (net.Conn, error) {
			return c.DialContext(ctx, network, address)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrFTPConnect, addr, err)
	}

	if err := conn.Login(opts.User, opts.Password); err != nil {
		_ = conn.Quit() //nolint:errcheck // login already failed
		return nil, fmt.Errorf("%w as %q: %v", ErrFTPLogin, opts.User, err)
	}

	return &FTPSession{conn: conn, addr: addr}, nil
}

// Addr returns the server address.
func (s *FTPSession) Addr() string {
	return s.addr
}

func (s *FTPSession) server() (*ftp.ServerConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, ErrNotConnected
	}
	return s.conn, nil
}

// ChangeDir changes the working directory.
func (s *FTPSession) ChangeDir(dir string) error {
	conn, err := s.server()
	if err != nil {
		return err
	}
	return conn.ChangeDir(dir)
}

// ChangeDirToParent moves to the parent of the working directory.
func (s *FTPSession) ChangeDirToParent() error {
	conn, err := s.server()
	if err != nil {
		return err
	}
	return conn.ChangeDirToParent()
}

// CurrentDir returns the working directory.
func (s *FTPSession) CurrentDir() (string, error) {
	conn, err := s.server()
	if err != nil {
		return "", err
	}
	return conn.CurrentDir()
}

// NameList returns the entry names of dir.
func (s *FTPSession) NameList(dir string) ([]string, error) {
	conn, err := s.server()
	if err != nil {
		return nil, err
	}
	return conn.NameList(dir)
}

// Close logs out. Closing a closed session returns ErrNotConnected.
func (s *FTPSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNotConnected
	}
	err := s.conn.Quit()
	s.conn = nil
	return err
}
