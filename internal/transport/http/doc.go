// Package http exposes the capacity engine as a small local JSON API.
// Handlers stay thin: they parse the request, call a service and render
// the result with go-chi/render. Every failure goes through
// errors.ErrorHandler and is returned as RFC 7807 problem details.
//
// # Routes
//
//	POST   /api/v1/imports                                    ingest an uploaded file
//	GET    /api/v1/records                                    search the store
//	DELETE /api/v1/records                                    delete records by key
//	POST   /api/v1/records/clear                              empty the store
//	POST   /api/v1/records/restore                            restore the backup
//	GET    /api/v1/records/export                             download the store file
//	GET    /api/v1/projects/{project}/sprints/{sprint}/totals per-member sums
//	GET    /api/v1/projects/{project}/sprints/{sprint}/grid   per-day grid
//	GET    /api/v1/projects/{project}/sprints/{sprint}/summary
//	GET    /api/health, /api/health/ready, /api/health/live, /api/version
//	GET    /metrics
//
// # Writes
//
// Requests that write the store share one weighted semaphore. A write
// arriving while another one runs is rejected with 409 instead of queueing,
// so the store is never written by two requests at once.
package http
