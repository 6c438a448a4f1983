// Package main provides the entry point for the scrynk CLI.
//
// scrynk is the front end of an email-extraction service: it serves the web
// pages (scrynk serve) and runs the same flows from a terminal.
//
// Usage:
//
//	scrynk serve
//	scrynk extract --email me@example.com --post-url https://...
//	scrynk download --format csv
//
// See --help for all available options.
package main

func main() {
	Execute()
}
