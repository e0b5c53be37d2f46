// Package ecommerce holds the standard event-type catalog for online stores
// and typed builders for the events stores record most often.
package ecommerce
