// This package provides a set of structs and functions which are used
// to geolocate IPv4 addresses with a table of address ranges.
//
// rangelib is a core of the rangegeo project. The rest of the
// application is an example of how to use this library: how to read a
// configuration, how to log, how to serve HTTP.
//
// A dataset is a CSV file where each row is an IP range:
//
//	range_start,range_end,country,<ignored>,region,city
//
// range_start and range_end are IPv4 addresses as big-endian numbers
// (1.0.0.0 is 16777216). Both ends are inclusive. Ranges must not
// overlap.
//
// TableBuilder converts these rows into RangeTable once. RangeTable is
// immutable and is searched with a binary search, so any number of
// goroutines can use it without locks.
//
// Locator is a main entity of the library. It loads a dataset, keeps a
// table and answers lookups. If a dataset cannot be loaded, Locator
// logs an error and works with an empty table unless StrictLoad is set.
// LoadResult tells what has happened.
package rangelib
