package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lintang-b-s/railnav/pkg/datastructure"
	"github.com/lintang-b-s/railnav/pkg/server"
	"github.com/lintang-b-s/railnav/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

type RoutingService interface {
	RouteBetweenStations(ctx context.Context, fromID, toID uint16, trainSpeed, trainLength int) (*service.RouteResult, error)
	RouteBetweenPoints(ctx context.Context, srcLat, srcLon, dstLat, dstLon float64, trainSpeed, trainLength int) (*service.RouteResult, error)
	NearbyStations(ctx context.Context, lat, lon, radiusKm float64) []datastructure.KVStation
	FlushRouteCache(ctx context.Context) error
}

type RailRoutingHandler struct {
	svc RoutingService
}

func RailRouter(r *chi.Mux, svc RoutingService) {
	handler := &RailRoutingHandler{svc}

	r.Group(func(r chi.Router) {
		r.Route("/api/rail", func(r chi.Router) {
			r.Post("/route", handler.Route)
			r.Post("/route-by-location", handler.RouteByLocation)
			r.Post("/stations/nearby", handler.NearbyStations)
			r.Post("/route-cache/flush", handler.FlushRouteCache)
		})
	})
}

type RouteRequest struct {
	FromStationID uint16 `json:"from_station_id" validate:"required"`
	ToStationID   uint16 `json:"to_station_id" validate:"required"`
	TrainSpeed    int    `json:"train_speed" validate:"required,gt=0,lte=500"`
	TrainLength   int    `json:"train_length" validate:"required,gt=0"`
}

func (s *RouteRequest) Bind(r *http.Request) error {
	if s.FromStationID == s.ToStationID {
		return errors.New("origin and destination station are the same")
	}
	return nil
}

type RouteResponse struct {
	Path          string  `json:"path"`
	Coords        []Coord `json:"coordinates,omitempty"`
	Cost          int     `json:"cost"`
	SignalsPassed int     `json:"signals_passed"`
	Waiting       bool    `json:"waiting"`
}

type Coord struct {
	Lat float64 `json:"lat" validate:"required,lt=90,gt=-90"`
	Lon float64 `json:"lon" validate:"required,lt=180,gt=-180"`
}

func RenderRouteResponse(res *service.RouteResult) *RouteResponse {
	coords := make([]Coord, 0, len(res.Coords))
	for _, c := range res.Coords {
		coords = append(coords, Coord{Lat: c.Lat, Lon: c.Lon})
	}
	return &RouteResponse{
		Path:          res.Polyline,
		Coords:        coords,
		Cost:          res.Cost,
		SignalsPassed: res.SignalsPassed,
		Waiting:       res.Waiting,
	}
}

func (h *RailRoutingHandler) Route(w http.ResponseWriter, r *http.Request) {
	data := &RouteRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if rend := validateStruct(*data); rend != nil {
		render.Render(w, r, rend)
		return
	}

	res, err := h.svc.RouteBetweenStations(r.Context(), data.FromStationID, data.ToStationID,
		data.TrainSpeed, data.TrainLength)
	if err != nil {
		render.Render(w, r, renderServiceError(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderRouteResponse(res))
}

type RouteByLocationRequest struct {
	Source      Coord `json:"source" validate:"required"`
	Destination Coord `json:"destination" validate:"required"`
	TrainSpeed  int   `json:"train_speed" validate:"required,gt=0,lte=500"`
	TrainLength int   `json:"train_length" validate:"required,gt=0"`
}

func (s *RouteByLocationRequest) Bind(r *http.Request) error {
	if s.Source == s.Destination {
		return errors.New("source and destination are the same")
	}
	return nil
}

func (h *RailRoutingHandler) RouteByLocation(w http.ResponseWriter, r *http.Request) {
	data := &RouteByLocationRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if rend := validateStruct(*data); rend != nil {
		render.Render(w, r, rend)
		return
	}

	res, err := h.svc.RouteBetweenPoints(r.Context(), data.Source.Lat, data.Source.Lon,
		data.Destination.Lat, data.Destination.Lon, data.TrainSpeed, data.TrainLength)
	if err != nil {
		render.Render(w, r, renderServiceError(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderRouteResponse(res))
}

type NearbyStationsRequest struct {
	Lat    float64 `json:"lat" validate:"required,lt=90,gt=-90"`
	Lon    float64 `json:"lon" validate:"required,lt=180,gt=-180"`
	Radius float64 `json:"radius"`
}

func (s *NearbyStationsRequest) Bind(r *http.Request) error {
	if s.Radius <= 0 {
		return errors.New("invalid request")
	}
	return nil
}

type NearbyStationsResponse struct {
	Stations []StationInfo `json:"stations"`
}

type StationInfo struct {
	ID             uint16  `json:"id"`
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	PlatformLength int32   `json:"platform_length"`
	IsWaypoint     bool    `json:"is_waypoint"`
}

func RenderNearbyStationsResponse(stations []datastructure.KVStation) *NearbyStationsResponse {
	resp := &NearbyStationsResponse{Stations: make([]StationInfo, 0, len(stations))}
	for _, st := range stations {
		resp.Stations = append(resp.Stations, StationInfo{
			ID:             st.ID,
			Name:           st.Name,
			Lat:            st.CenterLoc[0],
			Lon:            st.CenterLoc[1],
			PlatformLength: st.PlatformLength,
			IsWaypoint:     st.IsWaypoint,
		})
	}
	return resp
}

func (h *RailRoutingHandler) NearbyStations(w http.ResponseWriter, r *http.Request) {
	data := &NearbyStationsRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if rend := validateStruct(*data); rend != nil {
		render.Render(w, r, rend)
		return
	}

	stations := h.svc.NearbyStations(r.Context(), data.Lat, data.Lon, data.Radius)

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderNearbyStationsResponse(stations))
}

func (h *RailRoutingHandler) FlushRouteCache(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.FlushRouteCache(r.Context()); err != nil {
		render.Render(w, r, renderServiceError(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func validateStruct(data interface{}) render.Renderer {
	validate := validator.New()
	if err := validate.Struct(data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		return ErrValidation(err, vv)
	}
	return nil
}

func renderServiceError(err error) render.Renderer {
	var svcErr *server.Error
	if errors.As(err, &svcErr) {
		switch svcErr.Code() {
		case server.ErrNotFound:
			return &ErrResponse{
				Err:            err,
				HTTPStatusCode: 404,
				StatusText:     "Resource not found.",
				ErrorText:      err.Error(),
			}
		case server.ErrInvalidArgument:
			return ErrInvalidRequest(err)
		}
	}
	return ErrInternalServerErrorRend(errors.New("internal server error"))
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 500,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}
