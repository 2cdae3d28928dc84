// Package extraction normalizes provider responses into retrievable
// image references. The provider's response schema is heterogeneous and
// not fully specified, so the extractor treats it as an untrusted
// nested structure and interprets it by key names alone.
package extraction
