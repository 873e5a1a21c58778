package seedtree

import "sync"

// Callbacks receives the typed results a ticket runner reports, matching
// spec §4.E's on_read/on_write/.../on_error set.
type Callbacks interface {
	OnRead(RawRd)
	OnWrite(WriteResult)
	OnGridView(GridViewResult)
	OnRemoved(bool)
	OnCommand(string)
	OnSubscribe(ok bool)
	OnNotify(Notice)
	OnError(*Error)
}

// subscription is one visitor's currently-installed subscription, if any.
type subscription struct {
	mu   sync.Mutex
	tree *Tree
	conn SubConn
	set  bool
}

func (s *subscription) install(tree *Tree, conn SubConn) {
	s.mu.Lock()
	s.tree = tree
	s.conn = conn
	s.set = true
	s.mu.Unlock()
}

func (s *subscription) teardown() {
	s.mu.Lock()
	tree, conn, set := s.tree, s.conn, s.set
	s.set = false
	s.mu.Unlock()
	if set {
		tree.Unsubscribe(conn)
	}
}

// Visitor is a session object: a current working path, at most one active
// subscription, and the callback interface for op results. It is the Go
// analogue of fon9::seed::SeedVisitor.
type Visitor struct {
	mu          sync.Mutex
	currentPath string
	sub         *subscription

	Callbacks Callbacks
}

// NewVisitor creates a Visitor rooted at "/".
func NewVisitor(cb Callbacks) *Visitor {
	return &Visitor{currentPath: "/", Callbacks: cb}
}

// CurrentPath returns the visitor's current working path.
func (v *Visitor) CurrentPath() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.currentPath
}

// SetCurrentPath commits a new working path, used by the Command runner
// when the path ends at a tree with an empty command line.
func (v *Visitor) SetCurrentPath(path string) {
	v.mu.Lock()
	v.currentPath = path
	v.mu.Unlock()
}

// newSubscribe atomically installs a fresh, not-yet-populated subscription
// slot, displacing and unsubscribing whatever was there before. This is the
// Go analogue of SeedVisitor::NewSubscribe's swap-and-unsubscribe-displaced
// pattern.
func (v *Visitor) newSubscribe() *subscription {
	next := &subscription{}
	v.mu.Lock()
	old := v.sub
	v.sub = next
	v.mu.Unlock()
	if old != nil {
		old.teardown()
	}
	return next
}

// stillCurrent reports whether sub is still the visitor's active
// subscription slot (i.e. no newer subscribe has displaced it).
func (v *Visitor) stillCurrent(sub *subscription) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sub == sub
}

// Unsubscribe releases the visitor's current subscription, if any.
func (v *Visitor) Unsubscribe() {
	v.mu.Lock()
	old := v.sub
	v.sub = nil
	v.mu.Unlock()
	if old != nil {
		old.teardown()
	}
}
