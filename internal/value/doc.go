// Package value provides the open-ended metadata values carried by trace
// events: a string-keyed Object over a sealed union of Null, String, Int,
// Float, Bool, Array, and Object.
//
// Stored blobs always go through MarshalCanonical so that equal values
// produce byte-identical text. Decoding distinguishes integers from floats
// by the presence of a fraction or exponent, which is why Float marshaling
// never drops the decimal point.
package value
