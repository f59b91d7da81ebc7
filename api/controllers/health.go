package controllers

import (
	"context"
	"net/http"

	"github.com/annisahuljannah/cadoobag/api/responses"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db    pinger
	cache pinger
	logg  *logger.Logger
}

func NewHealthController(db, cache pinger, logg *logger.Logger) *HealthController {
	return &HealthController{db: db, cache: cache, logg: logg}
}

func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, map[string]string{"status": "ok"})
}

func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{"database": "ok", "cache": "ok"}
	healthy := true

	if err := c.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if err := c.cache.Ping(ctx); err != nil {
		checks["cache"] = err.Error()
		healthy = false
	}

	if !healthy {
		err := pkgerrors.New(pkgerrors.CodeDependency, "dependency check failed").WithDetails(checks)
		responses.WriteError(ctx, c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, checks)
}
