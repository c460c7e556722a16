package middleware

import (
	"net/http"

	"lms_backend/internal/access"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	decisionKey     = "access_decision"
	readDecisionKey = "access_read_decision"
)

// ACGuard resolves the caller's grant for resource, using the HTTP method
// as the action. Without any grant the request stops here with 403, before
// a handler touches the store.
func ACGuard(holder *access.Holder, resource string) gin.HandlerFunc {
	return guard(holder, resource, nil)
}

// ACGuardAction is ACGuard with a fixed action, for routes whose method does
// not say what they do.
func ACGuardAction(holder *access.Holder, resource string, action access.Action) gin.HandlerFunc {
	return guard(holder, resource, &action)
}

func guard(holder *access.Holder, resource string, fixed *access.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		var action access.Action
		if fixed != nil {
			action = *fixed
		} else {
			a, known := access.ActionForMethod(c.Request.Method)
			if !known {
				util.Error(c, http.StatusMethodNotAllowed, util.KindValidation, "method not allowed")
				c.Abort()
				return
			}
			action = a
		}

		decision := holder.Policy().Decide(actor, resource, action)
		if !decision.Granted() {
			monitoring.AccessDenials.WithLabelValues(resource, string(action)).Inc()
			logger.Log.Debug("Access denied",
				zap.String("resource", resource),
				zap.String("action", string(action)),
				zap.Strings("roles", actor.Roles),
				zap.String("user_id", actor.ID))
			util.Forbidden(c)
			c.Abort()
			return
		}

		c.Set(decisionKey, decision)
		if action == access.ActionRead {
			c.Set(readDecisionKey, decision)
		} else {
			c.Set(readDecisionKey, holder.Policy().Decide(actor, resource, access.ActionRead))
		}
		c.Next()
	}
}

// DecisionFromContext returns the decision stored by ACGuard.
func DecisionFromContext(c *gin.Context) (access.Decision, bool) {
	v, ok := c.Get(decisionKey)
	if !ok {
		return access.Decision{}, false
	}
	d, ok := v.(access.Decision)
	return d, ok
}

// ReadDecisionFromContext returns the caller's read decision for the guarded
// resource. Responses are always projected through it, whatever the action.
func ReadDecisionFromContext(c *gin.Context) (access.Decision, bool) {
	v, ok := c.Get(readDecisionKey)
	if !ok {
		return access.Decision{}, false
	}
	d, ok := v.(access.Decision)
	return d, ok
}
