package archive

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cavaliercoder/grab"
	"github.com/pkg/errors"
)

// DefaultHTTPSURL serves the same tree as the FTP archive.
const DefaultHTTPSURL = "https://ftp.ncbi.nlm.nih.gov"

// HTTPSDialer reads the archive through its HTTP directory index pages.
type HTTPSDialer struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

func (d HTTPSDialer) Dial(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := d.BaseURL
	if base == "" {
		base = DefaultHTTPSURL
	}
	u, err := url.Parse(strings.TrimSuffix(base, "/"))
	if err != nil || u.Host == "" {
		return nil, errors.Errorf("invalid archive url: %q", base)
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	g := grab.NewClient()
	g.HTTPClient = client
	if d.UserAgent != "" {
		g.UserAgent = d.UserAgent
	}
	return &httpsSession{base: u, client: client, grab: g, userAgent: d.UserAgent}, nil
}

type httpsSession struct {
	base      *url.URL
	client    *http.Client
	grab      *grab.Client
	userAgent string
}

func (s *httpsSession) url(p string) string {
	u := *s.base
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(p, "/")
	return u.String()
}

func (s *httpsSession) get(ctx context.Context, p string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url(p), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't build request for %s", p)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't get %s", p)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("couldn't get %s: %s", p, resp.Status)
	}
	return resp, nil
}

// List parses the anchors of an index page. Links ending in a slash are
// directories; sorting links, parent links and absolute links are skipped.
func (s *httpsSession) List(ctx context.Context, dir string) ([]Entry, error) {
	dir = DirPath(dir)
	resp, err := s.get(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't parse index of %s", dir)
	}
	var entries []Entry
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || strings.ContainsAny(href, "?#:") || strings.HasPrefix(href, "/") || strings.HasPrefix(href, "..") {
			return
		}
		name, err := url.PathUnescape(strings.TrimSuffix(href, "/"))
		if err != nil || name == "" || name == "." || strings.Contains(name, "/") || seen[name] {
			return
		}
		seen[name] = true
		entries = append(entries, Entry{Name: name, Dir: strings.HasSuffix(href, "/")})
	})
	return entries, nil
}

func (s *httpsSession) NameList(ctx context.Context, dir string) ([]string, error) {
	entries, err := s.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

func (s *httpsSession) RetrieveText(ctx context.Context, file string) ([]byte, error) {
	resp, err := s.get(ctx, file)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read %s", file)
	}
	return b, nil
}

// Retrieve downloads with grab. Any earlier copy at localPath is removed
// first so grab never resumes from a corrupt attempt.
func (s *httpsSession) Retrieve(ctx context.Context, file, localPath string) (int64, error) {
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		return 0, errors.Wrapf(err, "couldn't clear %s", localPath)
	}
	req, err := grab.NewRequest(localPath, s.url(file))
	if err != nil {
		return 0, errors.Wrapf(err, "couldn't build request for %s", file)
	}
	resp := s.grab.Do(req.WithContext(ctx))
	if err := resp.Err(); err != nil {
		return resp.BytesComplete(), errors.Wrapf(err, "couldn't download %s", file)
	}
	return resp.BytesComplete(), nil
}

func (s *httpsSession) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *httpsSession) String() string {
	return fmt.Sprintf("https session to %s", s.base.Host)
}
