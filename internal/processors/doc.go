// Package processors provides the built-in processors of pagepipe.
//
// Every processor declares its parameters as a struct bound with
// params.Bind, passes upstream items on by reference and keeps the relative
// order of the items it receives. Processors that synthesize items (archive,
// sitemap, feed) emit them after every upstream item.
package processors
