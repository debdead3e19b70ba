package airquality

import (
	"net/http"

	"airwatch-server/internal/modules/airquality/controller"
	"airwatch-server/internal/modules/airquality/service"
	"airwatch-server/internal/mqtt"
)

// RegisterFeature mounts the dashboard and API routes and, when a subscriber
// is given, attaches the telemetry handler to it.
func RegisterFeature(mux *http.ServeMux, svc *service.Service, frames controller.FrameOptions, subscriber mqtt.MQTTSubscriber) {
	airQualityController := controller.NewAirQualityController(svc, frames)
	airQualityController.RegisterRoutes(mux)
	if subscriber != nil {
		svc.Register(subscriber)
	}
}
