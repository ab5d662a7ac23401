package internal

import (
	"net/http"

	"fbd/internal/controllers"
	"fbd/internal/providers"
	"fbd/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, debugController *controllers.DebugController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/sync", http.HandlerFunc(apiController.Sync))
	routers.Get("/baseline", http.HandlerFunc(apiController.GetBaseline))
	routers.Get("/count", http.HandlerFunc(apiController.GetCount))
	routers.Get("/contains", http.HandlerFunc(apiController.GetContains))

	// Manual triggers stay off production deployments.
	if conf.Debug {
		routers.Post("/debug/refetch", http.HandlerFunc(debugController.Refetch))
		routers.Post("/debug/save", http.HandlerFunc(debugController.Save))
		routers.Post("/debug/reset", http.HandlerFunc(debugController.Reset))
		routers.Get("/debug/raw", http.HandlerFunc(debugController.Raw))
	}

	return routers
}
