package routes

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haguru/myblog/internal/interfaces"
	"github.com/haguru/myblog/internal/models/dto"
	"github.com/haguru/myblog/internal/policy"
	"github.com/haguru/myblog/internal/userservice"
	"github.com/haguru/myblog/pkg/helper"
)

type Route struct {
	Logger      interfaces.Logger
	Metrics     interfaces.Metrics
	UserService interfaces.UserService
	PrivateKey  *ecdsa.PrivateKey
	SessionTTL  time.Duration
	// Audience is stamped on issued session tokens; only this service accepts them.
	Audience  string
	FormLogin *policy.FormLogin
	validator *structValidator.Validate
}

// NewRoute creates a new Route instance. formLogin may be nil for
// applications without the browser login flow.
func NewRoute(logger interfaces.Logger, metrics interfaces.Metrics, userService interfaces.UserService,
	validator *structValidator.Validate, privateKey *ecdsa.PrivateKey, sessionTTL time.Duration,
	audience string, formLogin *policy.FormLogin,
) *Route {
	return &Route{
		Logger:      logger,
		Metrics:     metrics,
		UserService: userService,
		PrivateKey:  privateKey,
		SessionTTL:  sessionTTL,
		Audience:    audience,
		FormLogin:   formLogin,
		validator:   validator,
	}
}

// RegisterMetrics registers the collectors the handlers report to.
func (r *Route) RegisterMetrics() {
	r.Metrics.RegisterCounter(RegisterRequestsTotal, RegisterRequestsTotalHelp)
	r.Metrics.RegisterCounter(RegisterSuccessTotal, RegisterSuccessTotalHelp)
	r.Metrics.RegisterCounterVec(RegisterRejectedTotal, RegisterRejectedTotalHelp, []string{"reason"})
	r.Metrics.RegisterCounter(RegisterErrorsTotal, RegisterErrorsTotalHelp)
	r.Metrics.RegisterHistogram(RegisterDurationSeconds, RegisterDurationSecondsHelp, RegisterDurationSecondsBuckets)
	r.Metrics.RegisterCounter(LoginRequestsTotal, LoginRequestsTotalHelp)
	r.Metrics.RegisterCounter(LoginSuccessTotal, LoginSuccessTotalHelp)
	r.Metrics.RegisterCounter(LoginFailedTotal, LoginFailedTotalHelp)
	r.Metrics.RegisterHistogram(LoginDurationSeconds, LoginDurationSecondsHelp, LoginDurationSecondsBuckets)
}

// Register handles POST /auth/register.
//
//	201 {"message":"User registered successfully!"}
//	400 {"error":"<message>"} for blank passwords and taken usernames or emails
//	500 {"error":"failed to register user"} when the store or hasher fails
func (r *Route) Register(w http.ResponseWriter, req *http.Request) {
	funcName := helper.GetFuncName()

	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		r.errorResponse(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", req.Method), ErrMethodNotAllowed)
		return
	}

	r.Metrics.IncCounter(RegisterRequestsTotal)

	if !isJSON(req.Header.Get(helper.ContentType)) {
		r.Metrics.IncCounter(RegisterErrorsTotal)
		r.errorResponse(w, http.StatusBadRequest, fmt.Errorf(ErrInvalidContentTypeFormat, req.Header.Get(helper.ContentType)), ErrInvalidContentType)
		return
	}

	registration := dto.RegistrationRequestDTO{}
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes)).Decode(&registration); err != nil {
		r.Metrics.IncCounter(RegisterErrorsTotal)
		r.errorResponse(w, http.StatusBadRequest, err, ErrInvalidRequestBody)
		return
	}

	startTime := time.Now()
	err := r.UserService.RegisterUser(req.Context(), registration)
	r.Metrics.ObserveHistogram(RegisterDurationSeconds, time.Since(startTime).Seconds())

	var regErr *userservice.RegistrationError
	switch {
	case errors.As(err, &regErr):
		reason := ReasonConflict
		if errors.Is(err, userservice.ErrInvalidInput) {
			reason = ReasonInvalidInput
		}
		r.Metrics.IncCounterVec(RegisterRejectedTotal, reason)
		r.errorResponse(w, http.StatusBadRequest, err, regErr.Message)
		return
	case err != nil:
		r.Metrics.IncCounter(RegisterErrorsTotal)
		r.errorResponse(w, http.StatusInternalServerError, err, ErrFailedToRegisterUser)
		return
	}

	r.Metrics.IncCounter(RegisterSuccessTotal)
	if err := helper.WriteJSON(w, http.StatusCreated, dto.RegistrationResponseDTO{Message: MsgUserRegistered}); err != nil {
		r.Logger.Error(ErrFailedToEncodeResponse, "func", funcName, "error", err)
	}
}

// Health answers 200 while ping succeeds and 503 otherwise.
func (r *Route) Health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.Header().Set("Allow", http.MethodGet)
			r.errorResponse(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", req.Method), ErrMethodNotAllowed)
			return
		}
		if err := ping(req.Context()); err != nil {
			r.errorResponse(w, http.StatusServiceUnavailable, err, ErrUnhealthy)
			return
		}
		_ = helper.WriteJSON(w, http.StatusOK, map[string]string{"status": MsgHealthy})
	}
}

// MetricsHandler exposes the registry in the Prometheus text format.
func (r *Route) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(r.Metrics.GetRegistry(), promhttp.HandlerOpts{})
}

// errorResponse writes {"error": message}; err is logged, never sent.
func (r *Route) errorResponse(w http.ResponseWriter, status int, err error, message string) {
	if status >= http.StatusInternalServerError {
		r.Logger.Error(message, "status", status, "error", err)
	} else {
		r.Logger.Debug(message, "status", status, "error", err)
	}
	if encErr := helper.WriteJSON(w, status, dto.ErrorResponseDTO{Error: message}); encErr != nil {
		r.Logger.Error(ErrFailedToEncodeResponse, "error", encErr)
	}
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == helper.ContentTypeJson
}
