// Package restclient provides a resilient HTTP client: per-attempt timeout
// enforcement, retry with a total attempt budget, response classification by
// content type, before/after observer hooks, and a loading state broadcaster,
// behind Get/Post/Put/Patch/Delete verb methods.
package restclient
