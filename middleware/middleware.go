package middleware

import (
	"context"
	"net/http"

	"yatra/auth"
	"yatra/globals"
	"yatra/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	msgNoToken      = "No token, authorization denied"
	msgInvalidToken = "Token is not valid"
)

// TokenVerifier is satisfied by *auth.TokenIssuer.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Gate rejects requests without a valid x-auth-token before the wrapped
// handler runs.
type Gate struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

func NewGate(verifier TokenVerifier, logger *zap.Logger) *Gate {
	return &Gate{verifier: verifier, logger: logger.Named("gate")}
}

func (g *Gate) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := r.Header.Get(globals.AuthHeader)
		if tokenString == "" {
			utils.RespondWithMsg(w, http.StatusUnauthorized, msgNoToken)
			return
		}

		claims, err := g.verifier.Verify(tokenString)
		if err != nil {
			g.logger.Debug("token rejected",
				zap.String("path", r.URL.Path),
				zap.String("requestId", utils.GetRequestID(r)),
				zap.Error(err),
			)
			utils.RespondWithMsg(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		// Store UserID in context
		ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.User.ID)
		next(w, r.WithContext(ctx), ps)
	}
}
