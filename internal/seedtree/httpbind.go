package seedtree

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// NewHTTPHandler adapts reg to a thin HTTP surface at the mount point it's
// registered under: the request path after the mount is the seed path
// (spec §6's `/segment/.../key^tab$cmd` syntax, URL-decoded by net/http
// already), and the `op` query parameter selects the ticket runner —
// read/write/remove/gridview/command/subscribe — matching internal/api's
// own handler-per-route style rather than introducing a router framework.
//
// read/write/remove/gridview/command block for one result and reply with a
// single JSON body. subscribe upgrades the response to a chunked
// text/event-stream of Notice lines, one JSON object per line, until the
// client disconnects.
func NewHTTPHandler(reg *Registry, dispatch Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "" {
			path = "/"
		}
		op := r.URL.Query().Get("op")
		if op == "" {
			op = "read"
		}

		switch op {
		case "read":
			handleSync(w, r, func(v *Visitor, done chan struct{}) {
				RunRead(r.Context(), reg, v, path, dispatch)
				<-done
			})
		case "write":
			cmd := r.URL.Query().Get("cmd")
			handleSync(w, r, func(v *Visitor, done chan struct{}) {
				RunWrite(r.Context(), reg, v, withCmd(path, cmd), dispatch)
				<-done
			})
		case "remove":
			handleSync(w, r, func(v *Visitor, done chan struct{}) {
				RunRemove(r.Context(), reg, v, path, dispatch)
				<-done
			})
		case "gridview":
			startKey := r.URL.Query().Get("start_key")
			if startKey == "" {
				startKey = GridViewBegin
			}
			maxRows, _ := strconv.Atoi(r.URL.Query().Get("max_rows"))
			if maxRows <= 0 {
				maxRows = 100
			}
			handleSync(w, r, func(v *Visitor, done chan struct{}) {
				RunGridView(r.Context(), reg, v, path, startKey, maxRows, dispatch)
				<-done
			})
		case "command":
			cmd := r.URL.Query().Get("cmd")
			handleSync(w, r, func(v *Visitor, done chan struct{}) {
				RunCommand(r.Context(), reg, v, withCmd(path, cmd), dispatch)
				<-done
			})
		case "subscribe":
			handleSubscribe(w, r, reg, path, dispatch)
		default:
			http.Error(w, "unknown op: "+op, http.StatusBadRequest)
		}
	})
}

// withCmd appends a "$cmd" suffix to path if cmd is non-empty and path does
// not already carry one.
func withCmd(path, cmd string) string {
	if cmd == "" || strings.Contains(path, "$") {
		return path
	}
	return path + "$" + cmd
}

// syncCallbacks collects exactly one terminal callback into body/status and
// signals done.
type syncCallbacks struct {
	done   chan struct{}
	status int
	body   any
}

func newSyncCallbacks() *syncCallbacks {
	return &syncCallbacks{done: make(chan struct{})}
}

func (c *syncCallbacks) finish(status int, body any) {
	c.status = status
	c.body = body
	close(c.done)
}

func (c *syncCallbacks) OnRead(rd RawRd) { c.finish(http.StatusOK, rawRdJSON(rd)) }
func (c *syncCallbacks) OnWrite(wr WriteResult)      { c.finish(http.StatusOK, wr) }
func (c *syncCallbacks) OnGridView(g GridViewResult) { c.finish(http.StatusOK, g) }
func (c *syncCallbacks) OnRemoved(ok bool)           { c.finish(http.StatusOK, map[string]bool{"removed": ok}) }
func (c *syncCallbacks) OnCommand(result string)     { c.finish(http.StatusOK, map[string]string{"result": result}) }
func (c *syncCallbacks) OnSubscribe(ok bool)         { c.finish(http.StatusOK, map[string]bool{"subscribed": ok}) }
func (c *syncCallbacks) OnNotify(n Notice)           {} // unused outside subscribe
func (c *syncCallbacks) OnError(err *Error) {
	c.finish(statusForError(err), map[string]string{"error": err.Kind.String(), "message": err.Message})
}

// rawRdJSON flattens a RawRd into a plain field-name -> value map; Tab
// carries Get/Set closures that encoding/json cannot marshal.
func rawRdJSON(rd RawRd) map[string]string {
	out := make(map[string]string, len(rd.Values))
	if rd.Tab == nil {
		return out
	}
	for i, f := range rd.Tab.Fields {
		if i >= len(rd.Values) {
			break
		}
		out[f.Name] = rd.Values[i]
	}
	return out
}

func statusForError(err *Error) int {
	switch err.Kind {
	case NotFoundKey, NotFoundTab, FileNotFound:
		return http.StatusNotFound
	case BadCommandArgument, PathFormatError, FieldNotFound, StrToCellFailed, ParseError:
		return http.StatusBadRequest
	case AccessDenied:
		return http.StatusForbidden
	case NotSupportedCmd, NotSupportedRead, NotSupportedWrite, NotSupportedRemovePod:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

func handleSync(w http.ResponseWriter, r *http.Request, run func(v *Visitor, done chan struct{})) {
	cb := newSyncCallbacks()
	v := NewVisitor(cb)
	run(v, cb.done)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(cb.status)
	json.NewEncoder(w).Encode(cb.body)
}

// streamCallbacks forwards OnNotify to an SSE stream and reports the first
// terminal callback on ready: an error ends the request, OnSubscribe(true)
// lets the stream run until the client disconnects.
type streamCallbacks struct {
	w       http.ResponseWriter
	flusher http.Flusher
	ready   chan *Error
}

func (c *streamCallbacks) OnRead(RawRd)            {}
func (c *streamCallbacks) OnWrite(WriteResult)      {}
func (c *streamCallbacks) OnGridView(GridViewResult) {}
func (c *streamCallbacks) OnRemoved(bool)          {}
func (c *streamCallbacks) OnCommand(string)        {}
func (c *streamCallbacks) OnSubscribe(ok bool) {
	if ok {
		c.ready <- nil
	}
}
func (c *streamCallbacks) OnError(err *Error) { c.ready <- err }
func (c *streamCallbacks) OnNotify(n Notice) {
	fmt.Fprintf(c.w, "data: {\"key\":%q}\n\n", n.Key)
	c.flusher.Flush()
}

func handleSubscribe(w http.ResponseWriter, r *http.Request, reg *Registry, path string, dispatch Dispatcher) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Headers must go out before RunSubscribe's dispatch can reach OnNotify
	// on another goroutine, or the two writers race on the same response.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	cb := &streamCallbacks{w: w, flusher: flusher, ready: make(chan *Error, 1)}
	v := NewVisitor(cb)
	defer v.Unsubscribe()

	RunSubscribe(r.Context(), reg, v, path, dispatch)
	if err := <-cb.ready; err != nil {
		fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Message)
		flusher.Flush()
		return
	}

	<-r.Context().Done()
}
