package transport

import "errors"

var (
	// ErrInvalidProxyAddress is returned when the proxy address is not in
	// "host:port" form.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrProxyCannotConnect is returned when the proxy does not accept TCP
	// connections.
	ErrProxyCannotConnect = errors.New("cannot connect to proxy")

	// ErrProxyNotSOCKS5 is returned when the proxy answers but does not speak
	// SOCKS5 without authentication.
	ErrProxyNotSOCKS5 = errors.New("proxy is not a SOCKS5 proxy")

	// ErrProxyTimeout is returned when the proxy check times out.
	ErrProxyTimeout = errors.New("timeout connecting to proxy")

	// ErrFTPConnect is returned when the FTP server cannot be reached.
	ErrFTPConnect = errors.New("failed to connect to FTP server")

	// ErrFTPLogin is returned when the FTP server rejects the credentials.
	ErrFTPLogin = errors.New("failed to log in to FTP server")

	// ErrNotConnected is returned when closing a session that is not open.
	ErrNotConnected = errors.New("no FTP connection open")
)
