// Package domain defines the normalized flight search entities that the
// rest of the application works with. Values in this package are plain
// data: they carry no behavior beyond derived-field helpers and are not
// mutated after construction.
package domain
