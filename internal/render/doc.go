// Package render drives the external rendering engine through its
// bundle/compositions/render protocol.
//
// The engine runs as a Node sidecar invoked through npx; it cannot read the
// server's filesystem, so local video references are converted to URLs under
// the service base URL before rendering. The composition bundle is built at
// most once per process and shared by all render calls.
package render
