// Package analytics composes the dataset sources, validation, the result
// cache and the scoring packages into the operations served by the API and
// the report job.
//
// Scoring packages stay pure. This layer owns I/O, logging and errors.
package analytics
