// Package message defines the payload codec contract and the registry that
// maps numeric message types to typed payload implementations. The registry
// is populated during package initialization and read-only afterwards;
// unregistered message types fall back to an opaque raw-bytes payload so the
// decoder can carry frames it does not understand.
package message
