package rewriter

import "fmt"

// ExternalError reports a module flagged as an external reference; the
// rewriter scheme forbids host-side externals (spec §4.3 step 1).
type ExternalError struct {
	SourcePath string
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("rewriter: %s is external, which this build scheme does not allow", e.SourcePath)
}

// UnresolvableAsyncChunkError reports an __internalRequire.e(N) site
// whose target chunk id isn't present in the compilation.
type UnresolvableAsyncChunkError struct {
	ChunkID int
}

func (e *UnresolvableAsyncChunkError) Error() string {
	return fmt.Sprintf("rewriter: async chunk reference to unknown chunk id %d", e.ChunkID)
}
