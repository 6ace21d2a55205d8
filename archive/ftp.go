package archive

import (
	"context"
	"io"
	"io/ioutil"
	"net"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
)

// DefaultFTPHost is NCBI's public archive.
const DefaultFTPHost = "ftp.ncbi.nlm.nih.gov"

// FTPDialer logs in anonymously to an FTP archive.
type FTPDialer struct {
	Host    string
	Timeout time.Duration
	// Debug receives the raw protocol exchange when set.
	Debug io.Writer
}

func (d FTPDialer) addr() string {
	host := d.Host
	if host == "" {
		host = DefaultFTPHost
	}
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "21")
	}
	return host
}

func (d FTPDialer) Dial(ctx context.Context) (Session, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	opts := []ftp.DialOption{
		ftp.DialWithTimeout(timeout),
		ftp.DialWithContext(ctx),
	}
	if d.Debug != nil {
		opts = append(opts, ftp.DialWithDebugOutput(d.Debug))
	}

	addr := d.addr()
	conn, err := ftp.Dial(addr, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't connect to %s", addr)
	}
	if err := conn.Login("anonymous", "anonymous"); err != nil {
		conn.Quit()
		return nil, errors.Wrapf(err, "couldn't log in to %s", addr)
	}
	log.Debugf("connected to %s", addr)
	return &ftpSession{conn: conn}, nil
}

type ftpSession struct {
	conn *ftp.ServerConn
}

func (s *ftpSession) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir = DirPath(dir)
	raw, err := s.conn.List(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't list %s", dir)
	}
	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		name := baseName(e.Name)
		if name == "." || name == ".." || name == "" {
			continue
		}
		entries = append(entries, Entry{Name: name, Dir: e.Type == ftp.EntryTypeFolder, Size: e.Size})
	}
	return entries, nil
}

func (s *ftpSession) NameList(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir = DirPath(dir)
	raw, err := s.conn.NameList(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't list names in %s", dir)
	}
	names := make([]string, 0, len(raw))
	for _, n := range raw {
		names = append(names, baseName(n))
	}
	return names, nil
}

func (s *ftpSession) RetrieveText(ctx context.Context, file string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := s.conn.Retr(file)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't retrieve %s", file)
	}
	defer r.Close()
	b, err := ioutil.ReadAll(&ctxReader{ctx: ctx, r: r})
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read %s", file)
	}
	return b, nil
}

func (s *ftpSession) Retrieve(ctx context.Context, file, localPath string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r, err := s.conn.Retr(file)
	if err != nil {
		return 0, errors.Wrapf(err, "couldn't retrieve %s", file)
	}
	defer r.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return 0, errors.Wrapf(err, "couldn't create %s", localPath)
	}
	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: r})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, errors.Wrapf(err, "couldn't copy %s to %s", file, localPath)
	}
	return n, nil
}

func (s *ftpSession) Close() error {
	return s.conn.Quit()
}

// ctxReader stops a copy once its context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
