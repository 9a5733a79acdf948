// Command captionify runs the video captioning service and its operator
// utilities.
package main
