// Package adminapi holds the HTTP handlers of the catalog API.
package adminapi

import "sync"

var initOnce sync.Once

// Init registers every route with the webserver. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		registerHealthRoutes()
		registerAuthRoutes()
		registerProductRoutes()
		registerCategoryRoutes()
		registerImportRoutes()
		registerReportRoutes()
	})
}
