// Package routes wires the controllers onto a gin engine.
//
//   - api.go: /search_address_api, /v1/*, probes and /metrics
//   - web.go: the address form served on /
//
// Usage:
//
//	routes.SetupAllRoutes(router, addressController, adminController, m, logger)
package routes
