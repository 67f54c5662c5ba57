package loader

import "fmt"

// BundleLoadFailedError reports a script-tag fetch that fired its error
// event (spec §7). Terminal: the owning BundleEntry is never recreated
// for the same URL.
type BundleLoadFailedError struct {
	URL string
	Err error
}

func (e *BundleLoadFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("loader: bundle %q failed to load: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("loader: bundle %q failed to load", e.URL)
}

func (e *BundleLoadFailedError) Unwrap() error { return e.Err }
