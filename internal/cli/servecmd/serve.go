// Package servecmd implements the "serve" subcommand: a plain static
// file server over a directory of rewritten chunks and manifests, so a
// browser injector (or pkg/loader's HTTPInjector, against a remote
// process) has something real to fetch from. Logging and request-path
// handling follow the teacher's dev server (tools/please_js/dev/dev.go),
// trimmed to the static-file case — no live reload, no proxying, since
// nothing in this system rebuilds in response to a file watch.
package servecmd

import (
	"fmt"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"time"
)

// Args holds the arguments for the serve subcommand.
type Args struct {
	Dir  string
	Port int
}

func Run(args Args) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", loggingFileHandler(args.Dir))

	addr := fmt.Sprintf(":%d", args.Port)
	log.Printf("serving %s on http://localhost%s", args.Dir, addr)
	return http.ListenAndServe(addr, mux)
}

func loggingFileHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if ct := mime.TypeByExtension(filepath.Ext(r.URL.Path)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		fileServer.ServeHTTP(w, r)
		log.Printf("%s %s (%dms)", r.Method, r.URL.Path, time.Since(start).Milliseconds())
	}
}
