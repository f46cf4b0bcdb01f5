// Package pager implements a paged compound file store: a single backing
// file divided into fixed-size pages and 16 MiB chapters, holding any
// number of independently sized byte streams addressed by page-index
// handles. Every page carries a CRC-32 checksum; free pages and the pages
// of every stream are each threaded into their own singly linked chain via
// the page's own link field, so the store needs no separate index
// structure to track allocation.
package pager
