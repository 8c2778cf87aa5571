package market

import "fmt"

// InvalidURLError reports that a request URL could not be built. No request
// was issued; retrying with the same inputs cannot succeed.
type InvalidURLError struct {
	URL string
	Err error
}

func (e *InvalidURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid url %q: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("invalid url %q", e.URL)
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

// RequestFailedError reports a transport-level failure or a non-2xx status.
// The caller decides whether to fall back to the secondary provider.
type RequestFailedError struct {
	URL    string
	Status int // 0 when the request never produced a response
	Err    error
}

func (e *RequestFailedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("GET %s -> %d", e.URL, e.Status)
	}
	return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
}

func (e *RequestFailedError) Unwrap() error { return e.Err }

// DecodingError reports a response body that did not match the expected JSON
// shape. Not retryable; indicates upstream schema drift.
type DecodingError struct {
	URL string
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// QuoteNotFoundError reports a ticker that lacks a quote in the required
// currency. Another currency is never substituted silently.
type QuoteNotFoundError struct {
	TickerID string
	Currency string
}

func (e *QuoteNotFoundError) Error() string {
	return fmt.Sprintf("ticker %s: no %s quote", e.TickerID, e.Currency)
}
