package seedtree

// ErrKind enumerates the terminal error kinds a ticket runner can report,
// matching spec §7 exactly.
type ErrKind int

const (
	Ok ErrKind = iota
	BadCommandArgument
	NotSupportedCmd
	NotSupportedRead
	NotSupportedWrite
	NotSupportedRemovePod
	NotFoundTab
	NotFoundKey
	PathFormatError
	FieldNotFound
	StrToCellFailed
	AccessDenied
	IOError
	FileNotFound
	ParseError
)

func (k ErrKind) String() string {
	switch k {
	case Ok:
		return "ok"
	case BadCommandArgument:
		return "bad_command_argument"
	case NotSupportedCmd:
		return "not_supported_cmd"
	case NotSupportedRead:
		return "not_supported_read"
	case NotSupportedWrite:
		return "not_supported_write"
	case NotSupportedRemovePod:
		return "not_supported_remove_pod"
	case NotFoundTab:
		return "not_found_tab"
	case NotFoundKey:
		return "not_found_key"
	case PathFormatError:
		return "path_format_error"
	case FieldNotFound:
		return "field_not_found"
	case StrToCellFailed:
		return "str_to_cell_failed"
	case AccessDenied:
		return "access_denied"
	case IOError:
		return "io_error"
	case FileNotFound:
		return "file_not_found"
	case ParseError:
		return "parse_error"
	default:
		return "unknown"
	}
}

// Error is a seed-tree operation failure: a kind plus a human-readable
// message. Runners convert every internal failure to exactly one of these
// and route it through the visitor's OnError exactly once.
type Error struct {
	Kind    ErrKind
	Message string
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Message }

// NewError constructs an Error.
func NewError(kind ErrKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}
