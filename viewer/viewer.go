// Package viewer serves recorded traces over HTTP so that they can be
// inspected from a browser.
package viewer

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"

	"github.com/tracekit/tracekit/trace"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>TraceKit Viewer</title></head>
<body>
<h1>TraceKit Viewer</h1>
<ul>
<li><a href="/api/locations">/api/locations</a></li>
<li><a href="/api/trace">/api/trace</a></li>
<li>/api/locationinfo?where=...&amp;info_type=...&amp;start_time=...&amp;end_time=...&amp;num_dots=...</li>
</ul>
</body>
</html>
`

// A Viewer is an HTTP server that serves tasks from a trace database.
type Viewer struct {
	httpAddr string
	reader   *trace.SQLiteTraceReader
}

// New creates a Viewer that reads from the given SQLite trace file.
func New(sqliteFileName, httpAddr string) *Viewer {
	if sqliteFileName == "" {
		panic("must specify a SQLite file")
	}

	reader := trace.NewSQLiteTraceReader(sqliteFileName)
	reader.Init()

	return &Viewer{
		httpAddr: httpAddr,
		reader:   reader,
	}
}

// Run starts the server. It blocks until the server stops.
func (v *Viewer) Run(openBrowser bool) error {
	r := mux.NewRouter()

	r.HandleFunc("/", v.serveIndex)
	r.HandleFunc("/api/trace", v.httpTrace)
	r.HandleFunc("/api/locations", v.httpLocations)
	r.HandleFunc("/api/locationinfo", v.httpLocationInfo)

	listener, err := net.Listen("tcp", v.httpAddr)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Printf("Listening %s\n", url)

	if openBrowser {
		go func() {
			err := browser.OpenURL(url)
			if err != nil {
				log.Printf("failed to open browser: %s", err)
			}
		}()
	}

	return http.Serve(listener, r)
}

func (v *Viewer) serveIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")

	_, err := w.Write([]byte(indexHTML))
	dieOnErr(err)
}

func (v *Viewer) httpTrace(w http.ResponseWriter, r *http.Request) {
	useTimeRange := true
	if r.FormValue("starttime") == "" || r.FormValue("endtime") == "" {
		useTimeRange = false
	}

	var err error

	startTime := 0.0
	endTime := 0.0

	if useTimeRange {
		startTime, err = strconv.ParseFloat(r.FormValue("starttime"), 64)
		dieOnErr(err)

		endTime, err = strconv.ParseFloat(r.FormValue("endtime"), 64)
		dieOnErr(err)
	}

	query := trace.TaskQuery{
		ID:               r.FormValue("id"),
		ParentID:         r.FormValue("parentid"),
		Kind:             r.FormValue("kind"),
		Where:            r.FormValue("where"),
		StartTime:        startTime,
		EndTime:          endTime,
		EnableTimeRange:  useTimeRange,
		EnableParentTask: false,
	}

	tasks := v.reader.ListTasks(query)

	rsp, err := json.Marshal(tasks)
	dieOnErr(err)

	_, err = w.Write(rsp)
	dieOnErr(err)
}

func (v *Viewer) httpLocations(w http.ResponseWriter, _ *http.Request) {
	locations := v.reader.ListLocations()

	rsp, err := json.Marshal(locations)
	dieOnErr(err)

	_, err = w.Write(rsp)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
