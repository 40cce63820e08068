// Package process terminates the headless browser process tree.
package process
