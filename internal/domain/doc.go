// Package domain defines the core business entities of the image
// generation API: task records with their lifecycle state machine, and
// the durable history entries projected from completed tasks.
package domain
