package problem

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by an extractor or the dispatcher
// matches exactly one of these with errors.Is.
var (
	// ErrInvalidURLFormat: the URL does not match the source's identifier
	// pattern. Always raised before any network I/O.
	ErrInvalidURLFormat = errors.New("invalid URL format")
	// ErrSourceNotFound: the source confirmed there is no such problem.
	ErrSourceNotFound = errors.New("problem not found")
	// ErrExtractionFailed: every fallback strategy was exhausted without
	// recovering a title or a body. The extractor needs maintenance.
	ErrExtractionFailed = errors.New("content extraction failed")
	// ErrAutomationUnavailable: no browser backend could be launched.
	ErrAutomationUnavailable = errors.New("browser unavailable")
	// ErrUpstreamBlocked: the source answered with an access-denial signal.
	ErrUpstreamBlocked = errors.New("upstream blocked")
	// ErrUnsupportedPlatform: the URL belongs to none of the known sources.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// Error attaches the source and URL to an error kind.
type Error struct {
	Kind   error
	Source Source
	URL    string
	Err    error
}

// NewError wraps err (which may be nil) as an error of the given kind.
func NewError(kind error, source Source, url string, err error) *Error {
	return &Error{Kind: kind, Source: source, URL: url, Err: err}
}

func (e *Error) Error() string {
	prefix := e.Kind.Error()
	if e.Source != "" {
		prefix = fmt.Sprintf("%s: %s", e.Source, prefix)
	}
	if e.URL != "" {
		prefix = fmt.Sprintf("%s (%s)", prefix, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	return prefix
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the error kind err belongs to, or nil if it is not one of
// ours.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrInvalidURLFormat,
		ErrSourceNotFound,
		ErrExtractionFailed,
		ErrAutomationUnavailable,
		ErrUpstreamBlocked,
		ErrUnsupportedPlatform,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// UserMessage maps an error to the message shown to a user. Internal detail
// is left to the logs.
func UserMessage(err error) string {
	switch KindOf(err) {
	case ErrInvalidURLFormat:
		return "The URL is not a valid problem link for this platform. Check the URL and try again."
	case ErrSourceNotFound:
		return "The platform reports that this problem does not exist. Check the URL."
	case ErrExtractionFailed:
		return "The problem page could not be understood. The extractor for this platform needs an update."
	case ErrAutomationUnavailable:
		return "No browser is available to render this page in the current environment."
	case ErrUpstreamBlocked:
		return "The platform denied access. Try again later."
	case ErrUnsupportedPlatform:
		return "This platform is not supported. Supported: Codeforces, AtCoder, LeetCode, CodeChef."
	default:
		return "Something went wrong while fetching the problem."
	}
}
