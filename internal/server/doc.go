// Package server exposes the captioning pipeline over HTTP. It accepts video
// uploads, produces caption segments on demand, and hands render requests to
// the composition engine. The server holds no per-request caption state;
// clients carry captions between calls.
package server
