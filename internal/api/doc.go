// Package api contains the HTTP handlers, request/response models and
// error mapping for the image generation API. Handlers are thin: they
// decode and validate requests, call into the stores and the generation
// service, and translate errors into sanitized responses.
package api
