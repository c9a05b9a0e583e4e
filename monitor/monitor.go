// Package monitor turns a traced program into a server so that tracing can
// be controlled and observed from outside the process.
package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/tracekit/tracekit/core"
	"github.com/tracekit/tracekit/trace"
)

// Monitor allows external controlling and inspection of tracing in a running
// program.
type Monitor struct {
	timeTeller     core.TimeTeller
	objects        []core.Named
	portNumber     int
	metricsHandler http.Handler

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		timeTeller: core.NewWallClock(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterTimeTeller sets the time teller that reports the current time.
func (m *Monitor) RegisterTimeTeller(t core.TimeTeller) {
	m.timeTeller = t
}

// RegisterObject registers a named object to be inspected through the
// monitor.
func (m *Monitor) RegisterObject(o core.Named) {
	m.objects = append(m.objects, o)
}

// RegisterMetricsHandler mounts a metrics handler at /metrics.
func (m *Monitor) RegisterMetricsHandler(h http.Handler) {
	m.metricsHandler = h
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        core.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars)-1)
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/enable", m.enableTracing)
	r.HandleFunc("/api/disable", m.disableTracing)
	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/list_objects", m.listObjects)
	r.HandleFunc("/api/object/{name}", m.listObjectDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	if m.metricsHandler != nil {
		r.Handle("/metrics", m.metricsHandler)
	}

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	fmt.Fprintf(
		os.Stderr,
		"Monitoring tracing with http://localhost:%d\n",
		listener.Addr().(*net.TCPAddr).Port)

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()
}

func (m *Monitor) enableTracing(w http.ResponseWriter, _ *http.Request) {
	trace.Enable()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) disableTracing(w http.ResponseWriter, _ *http.Request) {
	trace.Disable()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"enabled\":%t}", trace.IsEnabled())
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.timeTeller.CurrentTime()
	fmt.Fprintf(w, "{\"now\":%.10f}", now)
}

func (m *Monitor) listObjects(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, o := range m.objects {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "\"%s\"", o.Name())
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) listObjectDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	object := m.findObjectOr404(w, name)
	if object == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(object)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	ObjectName string `json:"object_name,omitempty"`
	FieldName  string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		dieOnErr(err)
	}

	name := req.ObjectName
	fields := strings.Split(req.FieldName, ".")

	object := m.findObjectOr404(w, name)
	if object == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(object)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(fields)
	dieOnErr(err)

	err = serializer.Serialize(w)
	dieOnErr(err)
}

type fieldFormatError struct {
}

func (e fieldFormatError) Error() string {
	return "fieldFormatError"
}

func (m *Monitor) walkFields(
	obj any,
	fields string,
) (reflect.Value, error) {
	elem := reflect.ValueOf(obj)

	fieldNames := strings.Split(fields, ".")

	for len(fieldNames) > 0 {
		switch elem.Kind() {
		case reflect.Ptr, reflect.Interface:
			elem = elem.Elem()
		case reflect.Struct:
			elem = elem.FieldByName(fieldNames[0])
			fieldNames = fieldNames[1:]
		case reflect.Slice:
			index, err := strconv.Atoi(fieldNames[0])
			if err != nil {
				return elem, fieldFormatError{}
			}

			elem = elem.Index(index)
			fieldNames = fieldNames[1:]
		default:
			panic(fmt.Sprintf("kind %d not supported", elem.Kind()))
		}
	}

	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	return elem, nil
}

func (m *Monitor) findObjectOr404(
	w http.ResponseWriter,
	name string,
) core.Named {
	var object core.Named
	for _, o := range m.objects {
		if o.Name() == name {
			object = o
		}
	}

	if object == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Object not found"))
		dieOnErr(err)
	}

	return object
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bytes, err := json.Marshal(m.progressBars)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
