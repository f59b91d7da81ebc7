package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/annisahuljannah/cadoobag/api/responses"
	"github.com/annisahuljannah/cadoobag/internal/shipping"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
)

type ShippingController struct {
	service *shipping.Service
	logg    *logger.Logger
}

func NewShippingController(service *shipping.Service, logg *logger.Logger) *ShippingController {
	return &ShippingController{service: service, logg: logg}
}

func (c *ShippingController) Provinces(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	provinces, err := c.service.Provinces(ctx)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, provinces)
}

func (c *ShippingController) Cities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	provinceID := r.URL.Query().Get("province_id")
	if provinceID == "" {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "province_id is required"))
		return
	}

	cities, err := c.service.Cities(ctx, provinceID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, cities)
}

func (c *ShippingController) Subdistricts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cityID := r.URL.Query().Get("city_id")
	if cityID == "" {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "city_id is required"))
		return
	}

	subdistricts, err := c.service.Subdistricts(ctx, cityID)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, subdistricts)
}

func (c *ShippingController) Rates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	destinationCityID := query.Get("destination_city_id")
	weightGram, _ := strconv.Atoi(query.Get("weight_gram"))
	if destinationCityID == "" || weightGram <= 0 {
		responses.WriteError(ctx, c.logg, w, pkgerrors.New(
			pkgerrors.CodeValidation, "destination_city_id and a positive weight_gram are required"))
		return
	}

	var couriers []string
	if raw := query.Get("couriers"); raw != "" {
		for _, courier := range strings.Split(raw, ",") {
			if courier = strings.TrimSpace(courier); courier != "" {
				couriers = append(couriers, courier)
			}
		}
	}

	quotes, err := c.service.Rates(ctx, destinationCityID, weightGram, couriers)
	if err != nil {
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, quotes)
}
