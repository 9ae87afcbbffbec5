// Package fixed implements the fixed-point numeric codec used by payload
// field layouts. A floating-point domain value is stored as a signed integer
// of a declared width after division by a scale factor; one reserved bit
// pattern optionally encodes "invalid" and is presented to callers as NaN.
package fixed
