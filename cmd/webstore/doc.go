// Package main provides the entry point for webstore.
//
// webstore edits a namespaced key/value store through a mirror that is
// kept in sync with it:
//
//	webstore set counter 1
//	webstore --store sqlite watch --metrics-addr 127.0.0.1:9090
//	webstore -o yaml ls
package main
