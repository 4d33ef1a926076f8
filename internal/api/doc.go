// Package api implements the HTTP REST API for shakerwatch-server.
//
// New(store, ...) returns a Handler that serves:
//
//	POST /api/v1/datasets                    — multipart CSV upload
//	GET  /api/v1/datasets                    — all live datasets
//	GET  /api/v1/datasets/{id}               — single dataset; 404 if expired
//	GET  /api/v1/datasets/{id}/summary       — derived metrics + diagnostics
//	GET  /api/v1/datasets/{id}/series        — chart rows (last N points)
//	GET  /api/v1/datasets/{id}/drops         — drop-flag subset
//	GET  /api/v1/datasets/{id}/efficiency    — efficiency series and split
//	GET  /api/v1/overview                    — everything the hub broadcasts
//	GET  /api/v1/meshes                      — mesh grades and capacities
//	GET  /api/v1/health                      — dataset/client counts
//	GET  /metrics                            — Prometheus text exposition
//
// Per-dataset endpoints accept ?date=, ?mesh= and ?threshold= query
// parameters; absent parameters fall back to the live dashboard defaults.
// A metric that cannot be computed is reported with its reason inside a 200
// response — one missing column never blanks the rest of the dashboard.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
