// Rangegeo is a service to resolve geolocation data for IPv4
// addresses using a table of address ranges.
//
// Idea is simple: there is a CSV dataset where each row says that
// addresses from A to B belong to some country, region and city. You
// give an address like 12.22.104.13 and get its location back.
//
// Tool itself is organized into 3 logical parts:
//
// Rangelib
//
// rangelib is a main package of the application. It contains a table
// builder, a binary search over ranges and Locator: an entity which
// loads a dataset once and answers lookups. It has its own HTTP API
// which can be used as http.Handler.
//
// Csvdb
//
// This package reads datasets: plain or gzipped CSV files with
// comments.
//
// Rangegeo
//
// A main package itself is an example of how to wire rangelib into
// an application. It has 3 commands: serve starts HTTP server, lookup
// resolves addresses from the command line, check verifies a dataset.
package main
