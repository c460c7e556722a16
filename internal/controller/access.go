package controller

import (
	"net/http"

	"lms_backend/internal/access"
	"lms_backend/internal/middleware"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// decisionOf returns the guard's decision. Routes are always mounted behind
// ACGuard, so a missing decision is answered with 403.
func decisionOf(ctx *gin.Context) (access.Decision, bool) {
	d, ok := middleware.DecisionFromContext(ctx)
	if !ok || !d.Granted() {
		util.Forbidden(ctx)
		return access.Decision{}, false
	}
	return d, true
}

// project converts a value to its JSON shape and removes every field the
// grant does not allow.
func project(d access.Decision, value interface{}) (interface{}, error) {
	v, err := util.ToJSONValue(value)
	if err != nil {
		return nil, err
	}
	return d.Grant.Filter(v), nil
}

// readDecision is the grant responses are projected through.
func readDecision(ctx *gin.Context) access.Decision {
	d, _ := middleware.ReadDecisionFromContext(ctx)
	return d
}

func respond(ctx *gin.Context, status int, value interface{}) {
	out, err := project(readDecision(ctx), value)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if status == http.StatusCreated {
		util.Created(ctx, out)
		return
	}
	util.Success(ctx, out)
}

func respondPage(ctx *gin.Context, list interface{}, total int64, page, limit int) {
	out, err := project(readDecision(ctx), list)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if out == nil {
		out = []interface{}{}
	}
	util.Success(ctx, util.PageResponse{List: out, Total: total, Page: page, Limit: limit})
}

// writePayload reads a write request, drops derived fields and silently
// strips whatever the grant does not allow the caller to write.
func writePayload(ctx *gin.Context, d access.Decision, derived ...string) (util.Payload, bool) {
	p, err := util.BindPayload(ctx)
	if err != nil {
		util.HandleError(ctx, err)
		return nil, false
	}
	p.Strip(derived...)
	return util.Payload(d.Grant.FilterPayload(p)), true
}

// claimOwnership makes an own-scoped create belong to the caller: a missing
// owner field is filled in and a foreign one is refused.
func claimOwnership(d access.Decision, p util.Payload) error {
	if d.IsAny() {
		return nil
	}
	field, ok := access.OwnerField(d.Resource)
	if !ok {
		return util.NewAuthorizationError("%s cannot be created with own access", d.Resource)
	}
	v, present := p[field]
	if !present || v == nil {
		p[field] = d.ActorID
		return nil
	}
	if s, _ := v.(string); s != d.ActorID {
		return util.NewAuthorizationError("%s can only be created for yourself", d.Resource)
	}
	return nil
}

// checkOwner refuses access to a record the caller does not own when the
// grant only covers own records.
func checkOwner(d access.Decision, ownerID string) error {
	if !d.Owns(ownerID) {
		return util.NewAuthorizationError("no access to this %s", d.Resource)
	}
	return nil
}

func checkOwnerPtr(d access.Decision, ownerID *string) error {
	if !d.OwnsPtr(ownerID) {
		return util.NewAuthorizationError("no access to this %s", d.Resource)
	}
	return nil
}
