// Package filesystem implements the typed filesystem RPC operations
// (list, stat, mkdir, move, remove, watch) layered on pkg/rpcclient, plus
// the bulk file read/write operations that bypass framed-RPC entirely in
// favor of plain multipart HTTP: streaming RPC for control, multipart
// HTTP for bulk bytes.
package filesystem

// EntryType is the kind of a filesystem entry. Unknown server values map
// to EntryTypeNone rather than erroring.
type EntryType string

const (
	EntryTypeFile EntryType = "file"
	EntryTypeDir  EntryType = "dir"
	EntryTypeNone EntryType = "none"
)

// EntryInfo describes one directory entry or stat result.
type EntryInfo struct {
	Name string    `json:"name"`
	Type EntryType `json:"type,omitempty"`
	Path string    `json:"path"`
}

// EventType is the kind of filesystem change a watch observed.
type EventType string

const (
	EventCreate EventType = "create"
	EventWrite  EventType = "write"
	EventRemove EventType = "remove"
	EventRename EventType = "rename"
	EventChmod  EventType = "chmod"
)

// Event is one translated filesystem-watch notification.
type Event struct {
	Name string    `json:"name"`
	Type EventType `json:"type"`
}

// WriteEntry is one path+bytes pair in a batch write; batches preserve
// caller order on the wire.
type WriteEntry struct {
	Path string
	Data []byte
}

// wire-level request/response shapes, unexported: these never leave the
// package, callers only see the typed methods on Client.

type entryWire struct {
	Name string `json:"name"`
	Type *int   `json:"type"`
	Path string `json:"path"`
}

func (e entryWire) toEntryInfo() EntryInfo {
	info := EntryInfo{Name: e.Name, Path: e.Path, Type: EntryTypeNone}
	if e.Type != nil {
		switch *e.Type {
		case 1:
			info.Type = EntryTypeFile
		case 2:
			info.Type = EntryTypeDir
		}
	}
	return info
}

type listDirRequest struct {
	Path  string `json:"path"`
	Depth int    `json:"depth"`
}

type listDirResponse struct {
	Entries []entryWire `json:"entries"`
}

type statRequest struct {
	Path string `json:"path"`
}

type statResponse struct {
	Entry *entryWire `json:"entry,omitempty"`
}

type makeDirRequest struct {
	Path string `json:"path"`
}

type makeDirResponse struct {
	Entry *entryWire `json:"entry,omitempty"`
}

type moveRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type moveResponse struct {
	Entry *entryWire `json:"entry,omitempty"`
}

type removeRequest struct {
	Path string `json:"path"`
}

type removeResponse struct{}

type watchDirRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive"`
}

type filesystemEventWire struct {
	Name string `json:"name"`
	Type int    `json:"type"`
}

func (e filesystemEventWire) toEvent() Event {
	evt := Event{Name: e.Name}
	switch e.Type {
	case 1:
		evt.Type = EventCreate
	case 2:
		evt.Type = EventWrite
	case 3:
		evt.Type = EventRemove
	case 4:
		evt.Type = EventRename
	case 5:
		evt.Type = EventChmod
	default:
		evt.Type = EventWrite
	}
	return evt
}

type watchEventWire struct {
	Start      *struct{}            `json:"start,omitempty"`
	Keepalive  *struct{}            `json:"keepalive,omitempty"`
	Filesystem *filesystemEventWire `json:"filesystem,omitempty"`
}

type watchDirResponse struct {
	Event *watchEventWire `json:"event,omitempty"`
}
