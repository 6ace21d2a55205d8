// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mock

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// Handler serves the archive the way the public HTTPS mirror does: a
// directory URL returns an Apache style index page, anything else returns
// the file. Injected faults apply to requests too.
func (a *Archive) Handler() http.Handler {
	r := mux.NewRouter()
	r.Methods(http.MethodGet, http.MethodHead).PathPrefix("/").HandlerFunc(a.serve)
	return r
}

func (a *Archive) serve(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path
	a.mu.Lock()
	_, isFile := a.files[clean(p)]
	a.mu.Unlock()

	if isFile && !strings.HasSuffix(p, "/") {
		var b []byte
		var err error
		if r.Method == http.MethodHead {
			b, _ = a.Content(p)
		} else {
			b, err = a.fetch(p)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(b))
		return
	}

	entries, err := a.list(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if !strings.HasSuffix(p, "/") {
		http.Redirect(w, r, p+"/", http.StatusMovedPermanently)
		return
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<html><head><title>Index of %s</title></head><body>\n", html.EscapeString(p))
	fmt.Fprintf(&buf, "<h1>Index of %s</h1>\n<pre>", html.EscapeString(p))
	buf.WriteString(`<a href="?C=N;O=D">Name</a> <a href="?C=M;O=A">Last modified</a> <a href="?C=S;O=A">Size</a>` + "\n<hr>")
	buf.WriteString(`<a href="../">Parent Directory</a>` + "\n")
	for _, e := range entries {
		name := e.Name
		if e.Dir {
			name += "/"
		}
		href := (&url.URL{Path: name}).EscapedPath()
		fmt.Fprintf(&buf, "<a href=\"%s\">%s</a> %20d\n", href, html.EscapeString(name), e.Size)
	}
	buf.WriteString("</pre><hr></body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
